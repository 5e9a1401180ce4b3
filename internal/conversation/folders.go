// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"strings"

	"github.com/SyDuc7421/chatbot-gui/internal/model"
)

// CreateFolder adds a folder. Blank names and names equal to an existing
// folder ignoring case are rejected.
func (s *Store) CreateFolder(name string) (model.Folder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" || s.folderNameTaken(name, "") {
		return model.Folder{}, false
	}
	folder := model.NewFolder(name)
	s.folders = append(s.folders, folder)
	s.persist.SaveFolders(s.folders)
	return folder, true
}

// RenameFolder renames a folder under the same uniqueness rule as
// CreateFolder. Conversations keep the folder name they were filed under.
func (s *Store) RenameFolder(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	i := s.folderIndex(id)
	if i < 0 || name == "" || name == s.folders[i].Name || s.folderNameTaken(name, id) {
		return false
	}
	s.folders[i].Name = name
	s.persist.SaveFolders(s.folders)
	return true
}

// DeleteFolder removes a folder. Conversations filed under it are untouched.
func (s *Store) DeleteFolder(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.folderIndex(id)
	if i < 0 {
		return false
	}
	s.folders = append(s.folders[:i:i], s.folders[i+1:]...)
	s.persist.SaveFolders(s.folders)
	return true
}

// Folders returns a copy of the folder list.
func (s *Store) Folders() []model.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Folder(nil), s.folders...)
}

// MoveConversation files a conversation under folder. An empty folder
// unfiles it. The folder does not have to exist.
func (s *Store) MoveConversation(id, folder string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.find(id)
	if conv == nil {
		return false
	}
	conv.Folder = model.FolderRef(folder)
	s.persist.SaveConversations(s.conversations)
	return true
}

func (s *Store) folderIndex(id string) int {
	for i := range s.folders {
		if s.folders[i].ID == id {
			return i
		}
	}
	return -1
}

// folderNameTaken reports whether another folder (not exceptID) already
// uses name ignoring case.
func (s *Store) folderNameTaken(name, exceptID string) bool {
	key := model.FoldName(name)
	for _, f := range s.folders {
		if f.ID != exceptID && model.FoldName(f.Name) == key {
			return true
		}
	}
	return false
}
