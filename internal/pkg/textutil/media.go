package textutil

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultThumbnail is shown for items without an image.
const DefaultThumbnail = "/default-thumb.jpg"

// Today formats now as YYYY-MM-DD in its own location.
func Today(now time.Time) string {
	return now.Format(time.DateOnly)
}

// NormalizeThumbnail strips the public base URL from a thumbnail so that it is
// stored as a site-relative path. Other absolute URLs are kept as they are.
func NormalizeThumbnail(baseURL, thumbnail string) string {
	thumbnail = strings.TrimSpace(thumbnail)
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if thumbnail == "" || base == "" {
		return thumbnail
	}
	if rest, ok := strings.CutPrefix(thumbnail, base); ok {
		if rest != "" && !strings.HasPrefix(rest, "/") {
			return thumbnail
		}
		return rest
	}
	return thumbnail
}

// ResolveThumbnailURL turns a stored thumbnail into an absolute URL for display.
func ResolveThumbnailURL(baseURL, thumbnail string) string {
	thumbnail = strings.TrimSpace(thumbnail)
	if thumbnail == "" {
		thumbnail = DefaultThumbnail
	}
	if IsAbsoluteURL(thumbnail) {
		return thumbnail
	}
	if !strings.HasPrefix(thumbnail, "/") {
		thumbnail = "/" + thumbnail
	}
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + thumbnail
}

// IsAbsoluteURL reports whether s starts with http:// or https://.
func IsAbsoluteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

var youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// YouTubeID extracts the 11-character video id from an id or a
// youtube.com / youtu.be URL. It returns "" when nothing usable is found.
func YouTubeID(v string) string {
	v = strings.TrimSpace(v)
	if youtubeIDPattern.MatchString(v) {
		return v
	}
	u, err := url.Parse(v)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "youtube-nocookie.com":
		if q := u.Query().Get("v"); q != "" {
			id = q
		} else {
			segments := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(segments) == 2 && (segments[0] == "embed" || segments[0] == "shorts" || segments[0] == "live") {
				id = segments[1]
			}
		}
	}
	if youtubeIDPattern.MatchString(id) {
		return id
	}
	return ""
}

// YouTubeWatchURL returns a canonical watch URL, or the input unchanged when
// no id can be extracted from it.
func YouTubeWatchURL(v string) string {
	if id := YouTubeID(v); id != "" {
		return "https://www.youtube.com/watch?v=" + id
	}
	return strings.TrimSpace(v)
}
