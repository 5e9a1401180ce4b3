// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
// Only Content and EditedAt change after creation.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string, now time.Time) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
}

// Edit replaces the content and stamps EditedAt.
func (m *Message) Edit(content string, now time.Time) {
	m.Content = content
	edited := now
	m.EditedAt = &edited
}

// IsEdited reports whether the message was edited after creation.
func (m Message) IsEdited() bool {
	return m.EditedAt != nil
}

// IsBlank reports whether the content is empty after trimming whitespace.
func (m Message) IsBlank() bool {
	return strings.TrimSpace(m.Content) == ""
}

// Clone returns a copy that shares no pointers with m.
func (m Message) Clone() Message {
	if m.EditedAt != nil {
		edited := *m.EditedAt
		m.EditedAt = &edited
	}
	return m
}
