// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/SyDuc7421/chatbot-gui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown, optionally with a YAML
// frontmatter block.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// frontmatter is marshalled with yaml.v3 so titles never need hand escaping.
type frontmatter struct {
	Title    string `yaml:"title"`
	Folder   string `yaml:"folder,omitempty"`
	Pinned   bool   `yaml:"pinned,omitempty"`
	Updated  string `yaml:"updated"`
	Messages int    `yaml:"messages"`
	Exported string `yaml:"exported"`
}

// Export converts a conversation to Markdown.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}

	var buf bytes.Buffer
	if e.options.IncludeMetadata {
		meta, err := yaml.Marshal(frontmatter{
			Title:    conv.Title,
			Folder:   conv.FolderName(),
			Pinned:   conv.Pinned,
			Updated:  conv.UpdatedAt.Format(time.RFC3339),
			Messages: len(conv.Messages),
			Exported: e.options.now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, fmt.Errorf("marshal frontmatter: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(meta)
		buf.WriteString("---\n\n")
	}

	buf.WriteString(conv.ExportMarkdown())
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}
