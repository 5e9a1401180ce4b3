// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation implements the chat state core: conversations,
// folders, templates, the selection cursor and the send pathway.
//
// Every operation is total. Unknown IDs and invalid input are no-ops that
// report false (or a nil *Reply) rather than returning an error. After each
// mutation the affected collections are written through the Persister.
//
// # Key Types
//
//   - Store: Mutex-guarded owner of all chat state
//   - Reply: Handle on an in-flight assistant reply
//   - Asker: The chat backend as seen by the store
//   - Persister: Durable storage for the four records
//
// # Send Pathway
//
// Each conversation moves idle -> awaiting-reply -> idle. Send appends the
// user message synchronously and asks the backend on its own goroutine.
// Every send gets one assistant message, and the conversation stays
// awaiting-reply until the last outstanding send finishes. A failed request
// produces FallbackReply. PauseThinking and DeleteConversation cancel all
// pending requests of the conversation and discard their results.
//
// # Usage
//
//	store := conversation.NewStore(adapter, client, conversation.DefaultOptions())
//	defer store.Close()
//
//	conv := store.CreateConversation()
//	reply := store.Send(ctx, conv.ID, "Hello")
//	msg, err := reply.Wait(ctx)
package conversation
