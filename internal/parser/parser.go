// Package parser turns dropped text files into note values.
package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/notepad/internal/export"
)

const fence = "---"

// Frontmatter is the optional YAML header of a dropped file.
type Frontmatter struct {
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
}

// Result holds the output of parsing a text file.
type Result struct {
	Frontmatter *Frontmatter // nil when the file has none
	Title       string
	Body        string
	Category    string
}

// Parse reads optional YAML frontmatter (title, category) followed by the
// note text. Without a frontmatter title, the text is read in export format:
// the first line is the title and everything after the first blank line is
// the body. A leading Markdown "# " is dropped from such a title. A closed
// header that is not valid YAML is an error.
func Parse(data []byte) (*Result, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	fm, text, err := splitFrontmatter(text)
	if err != nil {
		return nil, err
	}

	res := &Result{Frontmatter: fm}
	if fm != nil {
		res.Category = strings.TrimSpace(fm.Category)
		if title := strings.TrimSpace(fm.Title); title != "" {
			res.Title = title
			res.Body = strings.TrimRight(text, "\n")
			return res, nil
		}
	}

	title, body := export.Parse(text)
	if h, ok := strings.CutPrefix(title, "# "); ok {
		title = strings.TrimSpace(h)
	}
	res.Title = title
	res.Body = strings.TrimRight(body, "\n")
	return res, nil
}

// splitFrontmatter returns the decoded header and the remaining text. Text
// without a closed header is returned whole.
func splitFrontmatter(text string) (*Frontmatter, string, error) {
	head, ok := strings.CutPrefix(strings.TrimLeft(text, "\n"), fence+"\n")
	if !ok {
		return nil, text, nil
	}

	var block, rest string
	if strings.HasPrefix(head, fence) {
		block, rest = "", head[len(fence):]
	} else {
		var found bool
		block, rest, found = strings.Cut(head, "\n"+fence)
		if !found {
			return nil, text, nil
		}
	}
	// The closing fence must end its line.
	if rest != "" && rest[0] != '\n' {
		return nil, text, nil
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, "", fmt.Errorf("parser: frontmatter: %w", err)
	}
	return &fm, strings.TrimLeft(rest, "\n"), nil
}
