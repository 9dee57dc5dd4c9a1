// Package markdown renders author-supplied markdown into the contentHtml
// stored on items and reads front-matter documents for bulk import.
package markdown

import (
	"bytes"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.Linkify,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithUnsafe(),
	),
)

var (
	youtubeEmbedRegex    = regexp.MustCompile(`(?m)^\s*::youtube\[([A-Za-z0-9_-]{11})\]\s*$`)
	imageTagRegex        = regexp.MustCompile(`(?is)<img\s+[^>]*>`)
	imageAttrRegex       = regexp.MustCompile(`([a-zA-Z:_-]+)\s*=\s*"([^"]*)"`)
	figureParagraphRegex = regexp.MustCompile(`(?is)<p>\s*(<figure\b[^>]*>[\s\S]*?</figure>)\s*</p>`)
)

// Render converts markdown to HTML. Raw HTML in the source is passed through
// because authors are trusted, the same as with contentHtml.
func Render(markdownText string) string {
	text := strings.TrimSpace(markdownText)
	if text == "" {
		return ""
	}

	text = replaceYouTubeEmbeds(text)

	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(text), &out); err != nil {
		return "<p>" + template.HTMLEscapeString(text) + "</p>"
	}
	return rewriteImages(out.String())
}

// replaceYouTubeEmbeds expands "::youtube[VIDEO_ID]" lines into a responsive
// Bootstrap embed.
func replaceYouTubeEmbeds(text string) string {
	return youtubeEmbedRegex.ReplaceAllString(text,
		`<div class="ratio ratio-16x9 my-3"><iframe src="https://www.youtube.com/embed/$1" title="YouTube video" loading="lazy" allowfullscreen></iframe></div>`)
}

// rewriteImages makes images lazy and responsive. An alt text starting with
// "!" turns the image into a figure captioned with the rest of the alt.
func rewriteImages(rendered string) string {
	processed := imageTagRegex.ReplaceAllStringFunc(rendered, func(tag string) string {
		attrs := parseImageAttrs(tag)
		src := strings.TrimSpace(attrs["src"])
		if src == "" {
			return tag
		}

		alt := strings.TrimSpace(attrs["alt"])
		escapedSrc := template.HTMLEscapeString(src)

		if strings.HasPrefix(alt, "!") {
			caption := strings.TrimSpace(strings.TrimPrefix(alt, "!"))
			if caption == "" {
				caption = strings.TrimSpace(attrs["title"])
			}
			caption = template.HTMLEscapeString(caption)
			return `<figure class="figure"><img src="` + escapedSrc + `" alt="` + caption + `" class="figure-img img-fluid rounded" loading="lazy"><figcaption class="figure-caption text-center">` + caption + `</figcaption></figure>`
		}

		return `<img src="` + escapedSrc + `" alt="` + template.HTMLEscapeString(alt) + `" class="img-fluid" loading="lazy">`
	})
	return figureParagraphRegex.ReplaceAllString(processed, "$1")
}

func parseImageAttrs(tag string) map[string]string {
	attrs := make(map[string]string)
	for _, item := range imageAttrRegex.FindAllStringSubmatch(tag, -1) {
		key := strings.ToLower(strings.TrimSpace(item[1]))
		if key == "" {
			continue
		}
		attrs[key] = html.UnescapeString(item[2])
	}
	return attrs
}
