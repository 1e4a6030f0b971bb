// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/jeranaias/dsamentor/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

var (
	codeBlockRegex  = regexp.MustCompile("```([a-zA-Z0-9_+-]*)\n([\\s\\S]*?)```")
	inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")
)

// HTMLExporter exports conversations to a standalone HTML page.
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
func (e *HTMLExporter) Export(conv model.Conversation) ([]byte, error) {
	if err := validate(conv); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(conv.Title)))
	sb.WriteString("    <meta name=\"generator\" content=\"" + Generator + "\">\n")
	sb.WriteString(htmlCSS)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString(fmt.Sprintf("    <h1>%s</h1>\n", html.EscapeString(conv.Title)))

	if e.options.IncludeMetadata {
		sb.WriteString("    <ul class=\"meta\">\n")
		sb.WriteString(fmt.Sprintf("        <li>Last updated: %s</li>\n", formatTimestamp(conv.Timestamp)))
		sb.WriteString(fmt.Sprintf("        <li>Messages: %d</li>\n", len(conv.Messages)))
		for _, u := range problemURLs(conv) {
			esc := html.EscapeString(u)
			sb.WriteString(fmt.Sprintf("        <li>Problem: <a href=\"%s\">%s</a></li>\n", esc, esc))
		}
		sb.WriteString("    </ul>\n")
	}

	sb.WriteString("    <main>\n")
	for _, msg := range conv.Messages {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("    </main>\n")
	sb.WriteString(fmt.Sprintf("    <footer>Exported from %s on %s</footer>\n", Generator,
		e.options.now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("</body>\n</html>\n")

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
// RENDERING
// =============================================================================

func (e *HTMLExporter) renderMessage(msg model.Message) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("        <section class=\"message %s\">\n", html.EscapeString(msg.Sender.String())))
	sb.WriteString(fmt.Sprintf("            <div class=\"role\">%s", html.EscapeString(msg.Sender.DisplayName())))
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		sb.WriteString(fmt.Sprintf(" <time datetime=\"%s\">%s</time>",
			msg.Timestamp.Format(time.RFC3339), formatShortTimestamp(msg.Timestamp)))
	}
	sb.WriteString("</div>\n")
	sb.WriteString("            <div class=\"content\">")
	sb.WriteString(formatHTMLContent(msg.Text))
	sb.WriteString("</div>\n        </section>\n")
	return sb.String()
}

// formatHTMLContent escapes text and renders fenced and inline code.
func formatHTMLContent(content string) string {
	content = html.EscapeString(strings.TrimSpace(content))

	content = codeBlockRegex.ReplaceAllStringFunc(content, func(match string) string {
		parts := codeBlockRegex.FindStringSubmatch(match)
		if len(parts) != 3 {
			return match
		}
		lang, code := parts[1], parts[2]
		label := ""
		if lang != "" {
			label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", lang)
		}
		return fmt.Sprintf("%s<pre><code class=\"language-%s\">%s</code></pre>", label, lang, strings.TrimRight(code, "\n"))
	})
	content = inlineCodeRegex.ReplaceAllString(content, "<code>$1</code>")

	// Paragraph breaks outside <pre> blocks.
	var out strings.Builder
	for {
		start := strings.Index(content, "<pre>")
		if start < 0 {
			out.WriteString(paragraphs(content))
			break
		}
		end := strings.Index(content[start:], "</pre>")
		if end < 0 {
			out.WriteString(paragraphs(content))
			break
		}
		end += start + len("</pre>")
		out.WriteString(paragraphs(content[:start]))
		out.WriteString(content[start:end])
		content = content[end:]
	}
	return out.String()
}

func paragraphs(s string) string {
	var parts []string
	for _, p := range strings.Split(s, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts = append(parts, "<p>"+strings.ReplaceAll(p, "\n", "<br>")+"</p>")
	}
	return strings.Join(parts, "")
}

const htmlCSS = `    <style>
        body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 860px; margin: 2rem auto; padding: 0 1rem; }
        .dark-theme { background: #1e1e2e; color: #cdd6f4; }
        .light-theme { background: #ffffff; color: #1f2328; }
        .meta { opacity: 0.8; }
        .message { border-radius: 8px; padding: 0.75rem 1rem; margin: 1rem 0; }
        .dark-theme .user { background: #313244; }
        .dark-theme .assistant { background: #181825; }
        .light-theme .user { background: #ddf4ff; }
        .light-theme .assistant { background: #f6f8fa; }
        .system { border: 1px solid #f38ba8; }
        .role { font-weight: bold; margin-bottom: 0.5rem; }
        .role time { font-weight: normal; opacity: 0.6; margin-left: 0.5rem; }
        pre { overflow-x: auto; padding: 0.75rem; border-radius: 6px; background: rgba(127,127,127,0.15); }
        .code-lang { font-size: 0.8rem; opacity: 0.7; }
        footer { margin-top: 2rem; opacity: 0.6; font-size: 0.85rem; }
    </style>
`
