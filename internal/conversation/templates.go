// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"strings"

	"github.com/SyDuc7421/chatbot-gui/internal/model"
)

// CreateTemplate adds a template. Name and content must not be blank.
func (s *Store) CreateTemplate(name, content string) (model.Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(name) == "" || strings.TrimSpace(content) == "" {
		return model.Template{}, false
	}
	tmpl := model.NewTemplate(name, content, s.now())
	s.templates = append(s.templates, tmpl)
	s.persist.SaveTemplates(s.templates)
	return tmpl, true
}

// UpdateTemplate replaces a template's name and content.
func (s *Store) UpdateTemplate(id, name, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	i := s.templateIndex(id)
	if i < 0 || name == "" || strings.TrimSpace(content) == "" {
		return false
	}
	t := &s.templates[i]
	t.Name = name
	t.Content = content
	if now := s.now(); now.After(t.UpdatedAt) {
		t.UpdatedAt = now
	}
	s.persist.SaveTemplates(s.templates)
	return true
}

// DeleteTemplate removes a template.
func (s *Store) DeleteTemplate(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.templateIndex(id)
	if i < 0 {
		return false
	}
	s.templates = append(s.templates[:i:i], s.templates[i+1:]...)
	s.persist.SaveTemplates(s.templates)
	return true
}

// Template returns the template with the given ID, typically to pre-fill
// the composer.
func (s *Store) Template(id string) (model.Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.templateIndex(id); i >= 0 {
		return s.templates[i], true
	}
	return model.Template{}, false
}

// Templates returns a copy of the template list.
func (s *Store) Templates() []model.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Template(nil), s.templates...)
}

func (s *Store) templateIndex(id string) int {
	for i := range s.templates {
		if s.templates[i].ID == id {
			return i
		}
	}
	return -1
}
