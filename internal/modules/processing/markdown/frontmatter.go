package markdown

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/myad-dev/site/internal/pkg/textutil"
)

const frontMatterFence = "---"

// FrontMatter is the YAML header of an imported markdown document. Tags and
// keywords may be a YAML list or a single comma separated string.
type FrontMatter struct {
	Title     string `yaml:"title,omitempty" json:"title"`
	Slug      string `yaml:"slug,omitempty" json:"slug"`
	Date      string `yaml:"date,omitempty" json:"date"`
	Excerpt   string `yaml:"excerpt,omitempty" json:"excerpt"`
	Author    string `yaml:"author,omitempty" json:"author"`
	Thumbnail string `yaml:"thumbnail,omitempty" json:"thumbnail"`
	Status    string `yaml:"status,omitempty" json:"status"`
	Tags      any    `yaml:"tags,omitempty" json:"tags"`
	Keywords  any    `yaml:"keywords,omitempty" json:"keywords"`
}

// TagList returns the cleaned tags.
func (m FrontMatter) TagList() []string { return textutil.ToList(m.Tags) }

// KeywordList returns the cleaned keywords.
func (m FrontMatter) KeywordList() []string { return textutil.ToList(m.Keywords) }

// DateString normalizes the date to YYYY-MM-DD, or "" when it cannot be parsed.
func (m FrontMatter) DateString() string {
	t := parseTime(m.Date)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// Document is a markdown file split into header and body.
type Document struct {
	Meta FrontMatter
	Body string
}

// ParseDocument splits an optional "---" delimited YAML header from the
// markdown body. A document without a header returns zero Meta. When the
// header has no title, the first "# " heading of the body is used and removed.
func ParseDocument(text string) (Document, error) {
	text = strings.TrimPrefix(strings.ReplaceAll(text, "\r\n", "\n"), "\uFEFF")

	var doc Document
	body := text
	if strings.HasPrefix(text, frontMatterFence+"\n") {
		rest := text[len(frontMatterFence)+1:]
		end := strings.Index(rest, "\n"+frontMatterFence)
		if end < 0 {
			return Document{}, fmt.Errorf("front matter: missing closing %q", frontMatterFence)
		}
		if err := yaml.Unmarshal([]byte(rest[:end]), &doc.Meta); err != nil {
			return Document{}, fmt.Errorf("front matter: %w", err)
		}
		body = rest[end+len(frontMatterFence)+1:]
	}

	body = strings.TrimSpace(body)
	if strings.TrimSpace(doc.Meta.Title) == "" && strings.HasPrefix(body, "# ") {
		line, rest, _ := strings.Cut(body, "\n")
		doc.Meta.Title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
		body = strings.TrimSpace(rest)
	}
	doc.Body = body
	return doc, nil
}

// BuildDocument writes meta as a YAML header followed by body.
func BuildDocument(meta FrontMatter, body string) (string, error) {
	header, err := yaml.Marshal(meta)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(frontMatterFence + "\n")
	sb.WriteString(strings.TrimSpace(string(header)))
	sb.WriteString("\n" + frontMatterFence + "\n\n")
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")
	return sb.String(), nil
}

// parseTime attempts the layouts markdown exports commonly use.
func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"2006/01/02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
