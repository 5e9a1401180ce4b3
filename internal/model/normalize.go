// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
)

// =============================================================================
// LOAD-TIME VALIDATION
// =============================================================================

// NormalizeConversations repairs conversations read back from storage.
//
// Records without an ID get a fresh one, duplicate IDs are dropped (first
// wins), messages with an unknown role are dropped, derived fields are
// recomputed and any pending reply state is reset to idle since no request
// survives a reload. The result is never nil.
func NormalizeConversations(convs []Conversation) []Conversation {
	out := make([]Conversation, 0, len(convs))
	seen := make(map[string]struct{}, len(convs))

	for _, c := range convs {
		if c.ID == "" {
			c.ID = NewID()
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}

		if strings.TrimSpace(c.Title) == "" {
			c.Title = DefaultTitle
		}
		c.Messages = normalizeMessages(c.Messages)
		c.MessageCount = len(c.Messages)
		if last := c.LastMessage(); last != nil && last.Content != "" {
			c.Preview = PreviewOf(last.Content)
		} else if c.Preview == "" {
			c.Preview = PlaceholderPreview
		}
		if c.Folder != nil {
			c.Folder = FolderRef(*c.Folder)
		}
		c.Status = StatusIdle
		out = append(out, c)
	}
	return out
}

func normalizeMessages(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	seen := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if !m.Role.Valid() {
			continue
		}
		if m.ID == "" {
			m.ID = NewID()
		}
		if _, dup := seen[m.ID]; dup {
			m.ID = NewID()
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// NormalizeFolders drops blank names and case-insensitive duplicates.
func NormalizeFolders(folders []Folder) []Folder {
	out := make([]Folder, 0, len(folders))
	names := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			continue
		}
		key := FoldName(f.Name)
		if _, dup := names[key]; dup {
			continue
		}
		names[key] = struct{}{}
		if f.ID == "" {
			f.ID = NewID()
		}
		out = append(out, f)
	}
	return out
}

// NormalizeTemplates drops unnamed templates and fills missing IDs and
// timestamps.
func NormalizeTemplates(templates []Template) []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		if t.ID == "" {
			t.ID = NewID()
		}
		if t.UpdatedAt.Before(t.CreatedAt) {
			t.UpdatedAt = t.CreatedAt
		}
		out = append(out, t)
	}
	return out
}
