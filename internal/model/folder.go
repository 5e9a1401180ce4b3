// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Folder is a named bucket that conversations reference by name.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewFolder creates a folder with a generated ID.
func NewFolder(name string) Folder {
	return Folder{ID: NewID(), Name: strings.TrimSpace(name)}
}

// FoldName returns the case-folded form of a folder name used for
// uniqueness checks. A Caser is stateful, so each call gets its own.
func FoldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// SameName reports whether two folder names are equal ignoring case.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}

// Template is a reusable snippet used to pre-fill the composer.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewTemplate creates a template with a generated ID.
func NewTemplate(name, content string, now time.Time) Template {
	return Template{
		ID:        NewID(),
		Name:      strings.TrimSpace(name),
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
