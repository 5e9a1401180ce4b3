// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/SyDuc7421/chatbot-gui/internal/model"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func testConversation() *model.Conversation {
	conv := model.NewConversation("Work Projects", fixedNow)
	conv.Title = `Deploy: "prod" <script>`
	conv.AppendMessage(model.NewMessage(model.RoleUser, "How do I run it?", fixedNow))
	conv.AppendMessage(model.NewMessage(model.RoleAssistant, "Use this:\n\n```bash\ngo run ./cmd\n```\n\nThen check `logs`.", fixedNow))
	return &conv
}

func testOptions(dir string) *Options {
	return &Options{
		OutputDir:       dir,
		IncludeMetadata: true,
		Theme:           "light",
		Now:             func() time.Time { return fixedNow },
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{"MD", FormatMarkdown},
		{" markdown ", FormatMarkdown},
		{"htm", FormatHTML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestNew_EveryFormat(t *testing.T) {
	exts := map[Format]string{FormatJSON: ".json", FormatMarkdown: ".md", FormatHTML: ".html"}
	for _, f := range Formats {
		e, err := New(f, nil)
		require.NoError(t, err)
		assert.Equal(t, exts[f], e.FileExtension())
		assert.NotEmpty(t, e.MimeType())
	}

	_, err := New(Format("txt"), nil)
	assert.Error(t, err)
}

func TestExporters_NilConversation(t *testing.T) {
	for _, f := range Formats {
		e, err := New(f, nil)
		require.NoError(t, err)
		_, err = e.Export(nil)
		assert.ErrorIs(t, err, ErrNilConversation)
	}
}

func TestJSONExporter_ReimportsAsConversation(t *testing.T) {
	conv := testConversation()
	data, err := NewJSONExporter(nil).Export(conv)
	require.NoError(t, err)

	var back model.Conversation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, conv.ID, back.ID)
	assert.Equal(t, conv.Title, back.Title)
	assert.Len(t, back.Messages, 2)
}

func TestMarkdownExporter_Frontmatter(t *testing.T) {
	conv := testConversation()
	data, err := NewMarkdownExporter(testOptions("")).Export(conv)
	require.NoError(t, err)

	text := string(data)
	require.True(t, strings.HasPrefix(text, "---\n"))
	end := strings.Index(text[4:], "---\n")
	require.Greater(t, end, 0)

	var meta frontmatter
	require.NoError(t, yaml.Unmarshal([]byte(text[4:4+end]), &meta))
	assert.Equal(t, conv.Title, meta.Title)
	assert.Equal(t, "Work Projects", meta.Folder)
	assert.Equal(t, 2, meta.Messages)
	assert.Equal(t, "2025-03-04T05:06:07Z", meta.Exported)

	assert.Contains(t, text, "# "+conv.Title)
	assert.Contains(t, text, "How do I run it?")
}

func TestMarkdownExporter_WithoutMetadata(t *testing.T) {
	opts := testOptions("")
	opts.IncludeMetadata = false
	data, err := NewMarkdownExporter(opts).Export(testConversation())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# "))
}

func TestHTMLExporter_EscapesAndFormatsCode(t *testing.T) {
	data, err := NewHTMLExporter(testOptions("")).Export(testConversation())
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, "<title>Deploy: &#34;prod&#34; &lt;script&gt;</title>")
	assert.NotContains(t, page, "<script>")
	assert.Contains(t, page, `<body class="light-theme">`)
	assert.Contains(t, page, `<code class="language-bash">go run ./cmd</code>`)
	assert.Contains(t, page, `<code class="inline-code">logs</code>`)
	assert.Contains(t, page, "user-message")
	assert.Contains(t, page, "assistant-message")
	assert.Contains(t, page, "<strong>Folder:</strong> Work Projects")
}

func TestHTMLExporter_UnknownThemeFallsBackToDark(t *testing.T) {
	opts := testOptions("")
	opts.Theme = "neon"
	data, err := NewHTMLExporter(opts).Export(testConversation())
	require.NoError(t, err)
	assert.Contains(t, string(data), `<body class="dark-theme">`)
}

func TestFormatContent_Paragraphs(t *testing.T) {
	got := formatContent("one\ntwo\n\nthree & four")
	assert.Equal(t, "<p>one<br>\ntwo</p>\n<p>three &amp; four</p>", got)
}

func TestToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	conv := testConversation()

	path, err := ToFile(conv, NewMarkdownExporter(testOptions(dir)), testOptions(dir))
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "conversation_Deploy-_-prod-_-script-_20250304_050607.md", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "How do I run it?")
}

func TestToFile_NilConversation(t *testing.T) {
	_, err := ToFile(nil, NewJSONExporter(nil), testOptions(t.TempDir()))
	assert.ErrorIs(t, err, ErrNilConversation)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "conversation", sanitizeFilename("   "))
	assert.Equal(t, "a-b-c_d", sanitizeFilename("a/b:c d"))
	assert.Equal(t, "x-y", sanitizeFilename("x\x01y"))
	assert.Equal(t, maxFilenameRunes, len([]rune(sanitizeFilename(strings.Repeat("é", 80)))))
}
