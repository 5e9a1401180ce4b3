// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/SyDuc7421/chatbot-gui/internal/logger"
	"github.com/SyDuc7421/chatbot-gui/internal/metrics"
	"github.com/SyDuc7421/chatbot-gui/internal/model"
)

// Storage keys for the persisted records.
const (
	KeyConversations = "chatbot-conversations"
	KeyTemplates     = "chatbot-templates"
	KeyFolders       = "chatbot-folders"
	KeySelectedID    = "chatbot-selected-id"
)

// Keys lists every key the adapter writes.
var Keys = []string{KeyConversations, KeyTemplates, KeyFolders, KeySelectedID}

// =============================================================================
// ADAPTER
// =============================================================================

// Adapter provides typed access to the persisted records.
//
// Reads never fail: a missing, unreadable or malformed record yields the
// empty default. Writes are fire-and-forget: failures are logged and counted
// but never returned, so in-memory state stays authoritative.
type Adapter struct {
	backend Backend
	log     *zap.Logger
}

// NewAdapter wraps backend.
func NewAdapter(backend Backend) *Adapter {
	return &Adapter{
		backend: backend,
		log:     logger.Named("storage"),
	}
}

// Close closes the underlying backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}

// Load decodes the JSON record at key into a T, returning def when the key
// is missing or its payload cannot be decoded as a T.
func Load[T any](a *Adapter, key string, def T) T {
	data, err := a.backend.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Warn("failed to read record", zap.String("key", key), zap.Error(err))
			metrics.PersistFailures.WithLabelValues("load", key).Inc()
			metrics.LoadFallbacks.WithLabelValues(key).Inc()
		}
		return def
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		a.log.Warn("discarding malformed record", zap.String("key", key), zap.Error(err))
		metrics.LoadFallbacks.WithLabelValues(key).Inc()
		return def
	}
	return v
}

// Save encodes v as JSON and writes it under key.
func Save[T any](a *Adapter, key string, v T) {
	metrics.PersistWrites.WithLabelValues(key).Inc()

	data, err := json.Marshal(v)
	if err != nil {
		a.log.Error("failed to encode record", zap.String("key", key), zap.Error(err))
		metrics.PersistFailures.WithLabelValues("save", key).Inc()
		return
	}
	if err := a.backend.Set(key, data); err != nil {
		a.log.Error("failed to persist record", zap.String("key", key), zap.Error(err))
		metrics.PersistFailures.WithLabelValues("save", key).Inc()
	}
}

// Clear removes every record the adapter manages.
func (a *Adapter) Clear() {
	for _, key := range Keys {
		a.remove(key)
	}
}

func (a *Adapter) remove(key string) {
	if err := a.backend.Delete(key); err != nil {
		a.log.Error("failed to delete record", zap.String("key", key), zap.Error(err))
		metrics.PersistFailures.WithLabelValues("delete", key).Inc()
	}
}

// =============================================================================
// TYPED RECORDS
// =============================================================================

// LoadConversations returns the stored conversations after normalization.
func (a *Adapter) LoadConversations() []model.Conversation {
	return model.NormalizeConversations(Load[[]model.Conversation](a, KeyConversations, nil))
}

// SaveConversations persists the full conversation list.
func (a *Adapter) SaveConversations(convs []model.Conversation) {
	if convs == nil {
		convs = []model.Conversation{}
	}
	Save(a, KeyConversations, convs)
}

// LoadTemplates returns the stored templates.
func (a *Adapter) LoadTemplates() []model.Template {
	return model.NormalizeTemplates(Load[[]model.Template](a, KeyTemplates, nil))
}

// SaveTemplates persists the full template list.
func (a *Adapter) SaveTemplates(templates []model.Template) {
	if templates == nil {
		templates = []model.Template{}
	}
	Save(a, KeyTemplates, templates)
}

// LoadFolders returns the stored folders.
func (a *Adapter) LoadFolders() []model.Folder {
	return model.NormalizeFolders(Load[[]model.Folder](a, KeyFolders, nil))
}

// SaveFolders persists the full folder list.
func (a *Adapter) SaveFolders(folders []model.Folder) {
	if folders == nil {
		folders = []model.Folder{}
	}
	Save(a, KeyFolders, folders)
}

// LoadSelectedID returns the stored selection or "" when none is stored.
// The ID is kept as a plain string, not JSON.
func (a *Adapter) LoadSelectedID() string {
	data, err := a.backend.Get(KeySelectedID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Warn("failed to read record", zap.String("key", KeySelectedID), zap.Error(err))
			metrics.PersistFailures.WithLabelValues("load", KeySelectedID).Inc()
			metrics.LoadFallbacks.WithLabelValues(KeySelectedID).Inc()
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveSelectedID persists the selection. An empty id removes the key.
func (a *Adapter) SaveSelectedID(id string) {
	if id == "" {
		a.remove(KeySelectedID)
		return
	}
	metrics.PersistWrites.WithLabelValues(KeySelectedID).Inc()
	if err := a.backend.Set(KeySelectedID, []byte(id)); err != nil {
		a.log.Error("failed to persist record", zap.String("key", KeySelectedID), zap.Error(err))
		metrics.PersistFailures.WithLabelValues("save", KeySelectedID).Inc()
	}
}

// Snapshot is the full persisted state.
type Snapshot struct {
	Conversations []model.Conversation
	Templates     []model.Template
	Folders       []model.Folder
	SelectedID    string
}

// LoadAll reads every record. Slices in the result are never nil.
func (a *Adapter) LoadAll() Snapshot {
	return Snapshot{
		Conversations: a.LoadConversations(),
		Templates:     a.LoadTemplates(),
		Folders:       a.LoadFolders(),
		SelectedID:    a.LoadSelectedID(),
	}
}
