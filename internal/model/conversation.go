// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/SyDuc7421/chatbot-gui/internal/util"
)

const (
	// DefaultTitle is the title given to freshly created conversations.
	DefaultTitle = "New Chat"

	// PlaceholderPreview is shown until the first message arrives.
	PlaceholderPreview = "Say hello to start..."

	// DefaultFolder is the folder new conversations are filed under.
	DefaultFolder = "Work Projects"

	// PreviewLength is the number of characters kept in Preview.
	PreviewLength = 80
)

// =============================================================================
// STATUS TYPE
// =============================================================================

// Status is the reply state of a single conversation.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusAwaitingReply Status = "awaiting-reply"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a chat thread and the metadata shown in list views.
//
// MessageCount and Preview are derived from Messages and are kept in sync by
// the mutating methods below. UpdatedAt never moves backwards.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
	Preview      string    `json:"preview"`
	Pinned       bool      `json:"pinned"`
	Folder       *string   `json:"folder"`
	Messages     []Message `json:"messages"`
	Status       Status    `json:"status,omitempty"`
}

// NewConversation creates an empty conversation with a generated ID.
// An empty folder leaves the conversation unfiled.
func NewConversation(folder string, now time.Time) Conversation {
	return Conversation{
		ID:        NewID(),
		Title:     DefaultTitle,
		UpdatedAt: now,
		Preview:   PlaceholderPreview,
		Folder:    FolderRef(folder),
		Messages:  []Message{},
		Status:    StatusIdle,
	}
}

// FolderRef converts a folder name to the nullable form stored on a
// conversation. Blank names map to nil.
func FolderRef(name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}

// FolderName returns the folder name or "" when unfiled.
func (c Conversation) FolderName() string {
	if c.Folder == nil {
		return ""
	}
	return *c.Folder
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AppendMessage appends msg and refreshes the derived fields.
func (c *Conversation) AppendMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.MessageCount = len(c.Messages)
	c.Preview = PreviewOf(msg.Content)
	c.Touch(msg.CreatedAt)
}

// EditMessage updates the content of the message with the given ID.
// The preview is recomputed from the last message; UpdatedAt is left alone.
// Returns false when no message matches.
func (c *Conversation) EditMessage(id, content string, now time.Time) bool {
	for i := range c.Messages {
		if c.Messages[i].ID != id {
			continue
		}
		c.Messages[i].Edit(content, now)
		if last := c.LastMessage(); last != nil && last.Content != "" {
			c.Preview = PreviewOf(last.Content)
		}
		return true
	}
	return false
}

// MessageByID returns a pointer to the message with the given ID, or nil.
func (c *Conversation) MessageByID(id string) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i]
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Touch moves UpdatedAt forward to now. Earlier times are ignored so the
// timestamp is monotonic even if the wall clock steps back.
func (c *Conversation) Touch(now time.Time) {
	if now.After(c.UpdatedAt) {
		c.UpdatedAt = now
	}
}

// IsAwaitingReply reports whether an assistant reply is pending.
func (c Conversation) IsAwaitingReply() bool {
	return c.Status == StatusAwaitingReply
}

// Matches reports whether query appears in the title or preview,
// ignoring case. A blank query matches everything.
func (c Conversation) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Title), q) ||
		strings.Contains(strings.ToLower(c.Preview), q)
}

// Clone creates a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	clone := c
	if c.Folder != nil {
		clone.Folder = FolderRef(*c.Folder)
	}
	clone.Messages = make([]Message, len(c.Messages))
	for i, msg := range c.Messages {
		clone.Messages[i] = msg.Clone()
	}
	return clone
}

// PreviewOf returns the first PreviewLength characters of content.
func PreviewOf(content string) string {
	return util.TruncateRunesNoEllipsis(content, PreviewLength)
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the conversation as a Markdown document.
func (c Conversation) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + c.Title + "\n\n")
	sb.WriteString("Updated: " + c.UpdatedAt.Format(time.RFC3339) + "\n\n")
	if c.Folder != nil {
		sb.WriteString("Folder: " + *c.Folder + "\n\n")
	}
	sb.WriteString("---\n\n")

	for _, msg := range c.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.CreatedAt.Format("15:04") + ")")
		if msg.IsEdited() {
			sb.WriteString(" _edited_")
		}
		sb.WriteString(":\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// ExportJSON exports the conversation as pretty-printed JSON.
func (c Conversation) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
