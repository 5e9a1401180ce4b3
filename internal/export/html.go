// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/SyDuc7421/chatbot-gui/internal/model"
)

var (
	codeBlockRegex  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page with
// embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a conversation to HTML.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", html.EscapeString(conv.Title))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n    <div class=\"container\">\n", theme)

	if e.options.IncludeMetadata {
		sb.WriteString(e.renderHeader(conv))
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for i := range conv.Messages {
		sb.WriteString(e.renderMessage(&conv.Messages[i]))
	}
	sb.WriteString("        </main>\n")

	fmt.Fprintf(&sb, "        <footer class=\"footer\"><p>Exported on %s</p></footer>\n",
		formatTimestamp(e.options.now()))
	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderHeader(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("        <header class=\"header\">\n")
	fmt.Fprintf(&sb, "            <h1>%s</h1>\n", html.EscapeString(conv.Title))
	sb.WriteString("            <div class=\"metadata\">\n")
	if folder := conv.FolderName(); folder != "" {
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Folder:</strong> %s</span>\n", html.EscapeString(folder))
	}
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Updated:</strong> %s</span>\n", formatTimestamp(conv.UpdatedAt))
	fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(conv.Messages))
	sb.WriteString("            </div>\n        </header>\n")
	return sb.String()
}

func (e *HTMLExporter) renderMessage(msg *model.Message) string {
	var sb strings.Builder
	role := html.EscapeString(strings.ToLower(string(msg.Role)))
	fmt.Fprintf(&sb, "            <div class=\"message %s-message\">\n", role)
	sb.WriteString("                <div class=\"message-header\">\n")
	fmt.Fprintf(&sb, "                    <span class=\"role-label\">%s</span>\n", html.EscapeString(msg.Role.DisplayName()))
	fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n", msg.CreatedAt.Format("15:04:05"))
	if msg.IsEdited() {
		sb.WriteString("                    <span class=\"edited\">edited</span>\n")
	}
	sb.WriteString("                </div>\n")
	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(formatContent(msg.Content))
	sb.WriteString("\n                </div>\n            </div>\n")
	return sb.String()
}

// =============================================================================
// CONTENT FORMATTING
// =============================================================================

// formatContent escapes content and turns fenced and inline code into
// markup. Everything else becomes paragraphs split on blank lines.
func formatContent(content string) string {
	content = html.EscapeString(strings.TrimSpace(content))

	content = codeBlockRegex.ReplaceAllStringFunc(content, func(match string) string {
		parts := codeBlockRegex.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		lang, code := parts[1], strings.TrimSpace(parts[2])
		label := ""
		if lang != "" {
			label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", lang)
		}
		// Newlines inside code survive the paragraph pass below.
		code = strings.ReplaceAll(code, "\n", "&#10;")
		return fmt.Sprintf("\n\n<div class=\"code-block\">%s<pre><code class=\"language-%s\">%s</code></pre></div>\n\n", label, lang, code)
	})
	content = inlineCodeRegex.ReplaceAllString(content, "<code class=\"inline-code\">$1</code>")

	var out []string
	for _, block := range strings.Split(content, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if strings.HasPrefix(block, "<div class=\"code-block\">") {
			out = append(out, block)
			continue
		}
		out = append(out, "<p>"+strings.ReplaceAll(block, "\n", "<br>\n")+"</p>")
	}
	return strings.Join(out, "\n")
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.6; padding: 2rem; }
        .dark-theme { background: #1e1e2e; color: #cdd6f4; }
        .light-theme { background: #fafafa; color: #24292f; }
        .container { max-width: 900px; margin: 0 auto; }
        .header { margin-bottom: 2rem; border-bottom: 1px solid #585b70; padding-bottom: 1rem; }
        .metadata { display: flex; flex-wrap: wrap; gap: 1rem; font-size: 0.9rem; opacity: 0.8; }
        .message { border-radius: 8px; padding: 1rem; margin-bottom: 1rem; }
        .dark-theme .user-message { background: #313244; }
        .dark-theme .assistant-message { background: #181825; }
        .light-theme .user-message { background: #e8f0fe; }
        .light-theme .assistant-message { background: #ffffff; border: 1px solid #d0d7de; }
        .message-header { display: flex; gap: 0.75rem; font-size: 0.85rem; margin-bottom: 0.5rem; }
        .role-label { font-weight: 600; }
        .timestamp, .edited { opacity: 0.6; }
        .message-content p { margin-bottom: 0.75rem; }
        .code-block { margin: 0.75rem 0; }
        .code-lang { font-size: 0.75rem; opacity: 0.7; }
        pre { overflow-x: auto; padding: 0.75rem; border-radius: 6px; background: rgba(0,0,0,0.25); white-space: pre; }
        code { font-family: "JetBrains Mono", Consolas, monospace; font-size: 0.9rem; }
        .footer { margin-top: 2rem; font-size: 0.8rem; opacity: 0.6; text-align: center; }
    </style>
`
