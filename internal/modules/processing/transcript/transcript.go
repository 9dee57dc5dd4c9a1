// Package transcript turns raw timestamped transcript text into caption HTML,
// chapter markers and the clip offsets search engines consume.
package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/myad-dev/site/internal/models"
)

const (
	labelMaxWords = 10
	labelMaxRunes = 60
)

// Line is one caption of a transcript. TC is empty for lines without a timecode.
type Line struct {
	TC   string `json:"tc"`
	Text string `json:"text"`
}

// linePattern matches "00:12 text", "[00:12] text", "01:02:03 text" and "[01:02:03]text".
var linePattern = regexp.MustCompile(`^\[?(\d{1,2}:\d{2}(?::\d{2})?)\]?\s*(.*)$`)

// ParseRaw splits raw transcript text into captions, one per non-blank line.
func ParseRaw(raw string) []Line {
	raw = strings.ReplaceAll(raw, "\r", "")
	var lines []Line
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if m := linePattern.FindStringSubmatch(l); m != nil {
			lines = append(lines, Line{TC: m[1], Text: strings.TrimSpace(m[2])})
			continue
		}
		lines = append(lines, Line{Text: l})
	}
	return lines
}

// TimecodeToSeconds converts SS, MM:SS or HH:MM:SS into seconds. Components
// are not range checked, so "99:99" is 6039. ok is false for empty input,
// more than three parts, or any non-numeric part.
func TimecodeToSeconds(tc string) (seconds int, ok bool) {
	tc = strings.TrimSpace(tc)
	if tc == "" {
		return 0, false
	}
	parts := strings.Split(tc, ":")
	if len(parts) > 3 {
		return 0, false
	}
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return 0, false
		}
		seconds = seconds*60 + n
	}
	return seconds, true
}

// SecondsToTimecode formats seconds as MM:SS, or HH:MM:SS from one hour up.
func SecondsToTimecode(sec int) string {
	sec = max(sec, 0)
	h, m, s := sec/3600, (sec%3600)/60, sec%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML escapes the five characters that matter inside element text and
// quoted attributes.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// BuildHTML renders raw transcript text as Bootstrap paragraphs with a badge
// per timecode. Empty input yields "" rather than an empty wrapper.
func BuildHTML(raw string) string {
	lines := ParseRaw(raw)
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div class="transcript">`)
	for _, l := range lines {
		b.WriteString(`<p class="mb-2">`)
		if l.TC != "" {
			b.WriteString(`<span class="badge text-bg-secondary me-2">`)
			b.WriteString(EscapeHTML(l.TC))
			b.WriteString(`</span>`)
		}
		b.WriteString(EscapeHTML(l.Text))
		b.WriteString(`</p>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// BuildChapters derives chapter markers from the timecoded lines of raw.
// The first occurrence of each timecode string wins.
func BuildChapters(raw string) []models.Chapter {
	chapters := []models.Chapter{}
	seen := make(map[string]struct{})
	for _, l := range ParseRaw(raw) {
		if l.TC == "" {
			continue
		}
		label := GuessLabel(l.Text)
		if label == "" {
			continue
		}
		if _, ok := seen[l.TC]; ok {
			continue
		}
		seen[l.TC] = struct{}{}
		chapters = append(chapters, models.Chapter{T: l.TC, Label: label})
	}
	return chapters
}

// GuessLabel shortens caption text to a chapter label: the first ten words,
// cut to 60 characters with an ellipsis when still too long.
func GuessLabel(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	label := strings.Join(words[:min(len(words), labelMaxWords)], " ")
	if utf8.RuneCountInString(label) <= labelMaxRunes {
		return label
	}
	runes := []rune(label)
	return strings.TrimSpace(string(runes[:labelMaxRunes])) + "…"
}
