// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders conversations as documents for sharing or backup.
//
// # Key Types
//
//   - Format: Export format enumeration (JSON, Markdown, HTML)
//   - Exporter: Renders a conversation to bytes
//   - Options: Output directory, metadata and theme settings
//
// # Supported Formats
//
//   - JSON: The full stored record, re-importable
//   - Markdown: Human-readable with YAML frontmatter
//   - HTML: Standalone page styled for browsers
//
// # Usage
//
//	exporter, err := export.New(export.FormatMarkdown, nil)
//	path, err := export.ToFile(&conv, exporter, &export.Options{OutputDir: dir})
package export
