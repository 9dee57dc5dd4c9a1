package textutil

import (
	"regexp"
	"strings"
)

// tokenSep matches the separators admins paste tag/keyword lists with:
// newlines, commas, semicolons, pipes, the ideographic comma, or a run of
// two or more spaces.
var tokenSep = regexp.MustCompile(`[\n\r,;|、]+|\s{2,}`)

// SplitTokens splits free-form list text into trimmed, non-empty tokens.
func SplitTokens(raw string) []string {
	parts := tokenSep.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UniqueFold trims every entry, drops empties and removes case-insensitive
// duplicates. The first spelling of each entry wins and order is preserved.
func UniqueFold(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ToList accepts the shapes a tag field arrives in over JSON (array, single
// string with separators, nil) and returns a cleaned list.
func ToList(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case string:
		return UniqueFold(SplitTokens(t))
	case []string:
		return UniqueFold(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return UniqueFold(items)
	default:
		return []string{}
	}
}

// JoinCSV renders a list for a single-line form input.
func JoinCSV(list []string) string {
	return strings.Join(list, ", ")
}

// ContainsFold reports whether list holds v, ignoring case and surrounding space.
func ContainsFold(list []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}
