// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// folders and templates.
//
// This package defines the core domain types shared by the conversation
// store and the persistence adapter, together with the helpers that keep
// derived fields (message count, preview, timestamps) consistent.
//
// # Key Types
//
//   - Conversation: Titled thread of messages with pin, folder and status
//   - Message: Single message with role, content and timestamps
//   - Folder: Named bucket conversations can be filed under
//   - Template: Reusable snippet used to pre-fill the composer
//   - Status: Per-conversation reply state (idle, awaiting-reply)
//
// # Usage
//
// Create a conversation and add a message:
//
//	conv := model.NewConversation("Work Projects", model.Now())
//	conv.AppendMessage(model.NewMessage(model.RoleUser, "Hello!", model.Now()))
//
// Sanitize records read back from storage:
//
//	convs = model.NormalizeConversations(convs)
package model
