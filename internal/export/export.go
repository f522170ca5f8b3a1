// Package export renders a single note as a plain text stream.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/starford/notepad/internal/resource"
)

// MIMEType is the only stream type notes are exported as.
const MIMEType = "text/plain"

// StreamTypes returns the stream MIME types scope can be opened as, given a
// filter such as "*/*" or "text/*". Only single notes are streamable.
func StreamTypes(scope resource.Scope, mimeFilter string) []string {
	if scope.Kind != resource.KindItem {
		return nil
	}
	if !matchMIME(mimeFilter, MIMEType) {
		return nil
	}
	return []string{MIMEType}
}

func matchMIME(filter, mimeType string) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if i := strings.IndexByte(filter, ';'); i >= 0 {
		filter = strings.TrimSpace(filter[:i])
	}
	if filter == "*/*" || filter == mimeType {
		return true
	}
	major, minor, ok := strings.Cut(filter, "/")
	if !ok || minor != "*" {
		return false
	}
	return strings.HasPrefix(mimeType, major+"/")
}

// Write writes title, a blank line and body to w as UTF-8.
func Write(w io.Writer, title, body string) error {
	if _, err := io.WriteString(w, title+"\n\n"+body); err != nil {
		return fmt.Errorf("export: write: %w", err)
	}
	return nil
}

// Parse splits an exported payload back into title and body. Text without a
// blank line is all title.
func Parse(text string) (title, body string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	title, body, _ = strings.Cut(text, "\n\n")
	title = strings.TrimSpace(title)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		// Multi-line heading: first line is the title, the rest joins the body.
		rest := strings.TrimSpace(title[i+1:])
		title = strings.TrimSpace(title[:i])
		if body == "" {
			body = rest
		} else if rest != "" {
			body = rest + "\n\n" + body
		}
	}
	return title, body
}
