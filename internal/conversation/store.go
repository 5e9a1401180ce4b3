// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SyDuc7421/chatbot-gui/internal/logger"
	"github.com/SyDuc7421/chatbot-gui/internal/model"
	"github.com/SyDuc7421/chatbot-gui/internal/storage"
)

// DefaultRecentLimit is the number of conversations Recent returns when no
// limit is given.
const DefaultRecentLimit = 10

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Persister stores the chat records. Saves never fail from the caller's
// point of view; *storage.Adapter is the production implementation.
type Persister interface {
	LoadAll() storage.Snapshot
	SaveConversations([]model.Conversation)
	SaveTemplates([]model.Template)
	SaveFolders([]model.Folder)
	SaveSelectedID(string)
	Clear()
}

// Asker sends a question to the chat backend and returns the answer.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Options configures a Store.
type Options struct {
	// DefaultFolder is assigned to new conversations. Empty leaves them unfiled.
	DefaultFolder string

	// Now returns the current time. Default: model.Now.
	Now func() time.Time
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		DefaultFolder: model.DefaultFolder,
		Now:           model.Now,
	}
}

// =============================================================================
// STORE
// =============================================================================

// Store owns the in-memory chat state and keeps it persisted.
//
// The Store is safe for concurrent use. Accessors return copies.
type Store struct {
	mu sync.Mutex

	persist Persister
	asker   Asker
	opts    Options
	log     *zap.Logger

	conversations []model.Conversation
	folders       []model.Folder
	templates     []model.Template
	selectedID    string

	// In-flight replies keyed by conversation ID
	tasks  map[string][]*task
	wg     sync.WaitGroup
	closed bool
}

// NewStore loads persisted state and returns a ready Store.
// A persisted selection that no longer names a conversation is dropped.
func NewStore(persist Persister, asker Asker, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = model.Now
	}

	snap := persist.LoadAll()
	s := &Store{
		persist:       persist,
		asker:         asker,
		opts:          opts,
		log:           logger.Named("conversation"),
		conversations: snap.Conversations,
		folders:       snap.Folders,
		templates:     snap.Templates,
		selectedID:    snap.SelectedID,
		tasks:         make(map[string][]*task),
	}

	if s.selectedID != "" && s.indexOf(s.selectedID) < 0 {
		s.log.Info("dropping stale selection", zap.String("id", s.selectedID))
		s.selectedID = ""
		s.persist.SaveSelectedID("")
	}

	s.log.Debug("store loaded",
		zap.Int("conversations", len(s.conversations)),
		zap.Int("folders", len(s.folders)),
		zap.Int("templates", len(s.templates)))
	return s
}

// now returns the clock reading in UTC without a monotonic component.
func (s *Store) now() time.Time {
	return s.opts.Now().UTC().Round(0)
}

func (s *Store) indexOf(id string) int {
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) find(id string) *model.Conversation {
	if i := s.indexOf(id); i >= 0 {
		return &s.conversations[i]
	}
	return nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// CreateConversation inserts a new empty conversation at the head of the
// list and selects it.
func (s *Store) CreateConversation() model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := model.NewConversation(s.opts.DefaultFolder, s.now())
	s.conversations = append([]model.Conversation{conv}, s.conversations...)
	s.selectedID = conv.ID

	s.persist.SaveConversations(s.conversations)
	s.persist.SaveSelectedID(s.selectedID)
	return conv.Clone()
}

// TogglePin flips the pinned flag. UpdatedAt is not changed.
func (s *Store) TogglePin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.find(id)
	if conv == nil {
		return false
	}
	conv.Pinned = !conv.Pinned
	s.persist.SaveConversations(s.conversations)
	return true
}

// RenameConversation sets a trimmed, non-empty title that differs from the
// current one.
func (s *Store) RenameConversation(id, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	title = strings.TrimSpace(title)
	conv := s.find(id)
	if conv == nil || title == "" || title == conv.Title {
		return false
	}
	conv.Title = title
	conv.Touch(s.now())
	s.persist.SaveConversations(s.conversations)
	return true
}

// DeleteConversation removes a conversation and cancels its pending replies.
// If it was selected, the selection moves to the first remaining
// conversation, or is cleared.
func (s *Store) DeleteConversation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.cancelTasksLocked(id)
	s.conversations = append(s.conversations[:i:i], s.conversations[i+1:]...)
	s.persist.SaveConversations(s.conversations)

	if s.selectedID == id {
		s.selectedID = ""
		if len(s.conversations) > 0 {
			s.selectedID = s.conversations[0].ID
		}
		s.persist.SaveSelectedID(s.selectedID)
	}
	return true
}

// AppendMessage appends a message to a conversation. Blank content, an
// unknown conversation or an invalid role is a no-op.
func (s *Store) AppendMessage(convID string, role model.Role, content string) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.appendLocked(convID, role, content)
	if ok {
		s.persist.SaveConversations(s.conversations)
	}
	return msg, ok
}

func (s *Store) appendLocked(convID string, role model.Role, content string) (model.Message, bool) {
	if !role.Valid() || strings.TrimSpace(content) == "" {
		return model.Message{}, false
	}
	conv := s.find(convID)
	if conv == nil {
		return model.Message{}, false
	}
	msg := model.NewMessage(role, content, s.now())
	// Keep CreatedAt ordered with UpdatedAt even if the clock stepped back
	if msg.CreatedAt.Before(conv.UpdatedAt) {
		msg.CreatedAt = conv.UpdatedAt
	}
	conv.AppendMessage(msg)
	return msg, true
}

// EditMessage replaces the content of a message and stamps EditedAt.
// Unknown IDs leave everything unchanged.
func (s *Store) EditMessage(convID, msgID, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.find(convID)
	if conv == nil || !conv.EditMessage(msgID, content, s.now()) {
		return false
	}
	s.persist.SaveConversations(s.conversations)
	return true
}

// Conversation returns a copy of the conversation with the given ID.
func (s *Store) Conversation(id string) (model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.find(id)
	if conv == nil {
		return model.Conversation{}, false
	}
	return conv.Clone(), true
}

// Conversations returns copies of all conversations in list order.
func (s *Store) Conversations() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.conversations, nil)
}

func cloneAll(convs []model.Conversation, keep func(model.Conversation) bool) []model.Conversation {
	out := make([]model.Conversation, 0, len(convs))
	for _, c := range convs {
		if keep == nil || keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// =============================================================================
// SELECTION
// =============================================================================

// Select moves the selection cursor. Unknown IDs are rejected.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return false
	}
	if s.selectedID != id {
		s.selectedID = id
		s.persist.SaveSelectedID(id)
	}
	return true
}

// ClearSelection clears the selection cursor.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID != "" {
		s.selectedID = ""
		s.persist.SaveSelectedID("")
	}
}

// SelectedID returns the selected conversation ID, or "".
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// Selected returns a copy of the selected conversation.
func (s *Store) Selected() (model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedID == "" {
		return model.Conversation{}, false
	}
	conv := s.find(s.selectedID)
	if conv == nil {
		return model.Conversation{}, false
	}
	return conv.Clone(), true
}

// =============================================================================
// QUERIES
// =============================================================================

// Search returns the conversations whose title or preview contains query,
// ignoring case. A blank query matches everything.
func (s *Store) Search(query string) []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneAll(s.conversations, func(c model.Conversation) bool {
		return c.Matches(query)
	})
}

// Pinned returns pinned conversations matching query, newest first.
func (s *Store) Pinned(query string) []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := cloneAll(s.conversations, func(c model.Conversation) bool {
		return c.Pinned && c.Matches(query)
	})
	sortNewestFirst(out)
	return out
}

// Recent returns up to limit unpinned conversations matching query, newest
// first. A limit of zero or less means DefaultRecentLimit.
func (s *Store) Recent(query string, limit int) []model.Conversation {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := cloneAll(s.conversations, func(c model.Conversation) bool {
		return !c.Pinned && c.Matches(query)
	})
	sortNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortNewestFirst(convs []model.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
}

// FolderCounts returns the number of conversations filed under each
// existing folder. Conversations naming a missing folder are not counted.
func (s *Store) FolderCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(s.folders))
	for _, f := range s.folders {
		counts[f.Name] = 0
	}
	for _, c := range s.conversations {
		if c.Folder == nil {
			continue
		}
		if n, ok := counts[*c.Folder]; ok {
			counts[*c.Folder] = n + 1
		}
	}
	return counts
}

// =============================================================================
// RESET
// =============================================================================

// Clear cancels every pending reply, drops all state and removes the
// persisted records.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.tasks {
		s.cancelTasksLocked(id)
	}
	s.conversations = []model.Conversation{}
	s.folders = []model.Folder{}
	s.templates = []model.Template{}
	s.selectedID = ""
	s.persist.Clear()
	s.log.Info("store cleared")
}
