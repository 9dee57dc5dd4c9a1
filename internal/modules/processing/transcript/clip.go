package transcript

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/myad-dev/site/internal/models"
)

// Clip is a chapter resolved to second offsets, the shape search engines
// expect for in-video key moments.
type Clip struct {
	Name        string `json:"name"`
	StartOffset int    `json:"startOffset"`
	EndOffset   *int   `json:"endOffset,omitempty"`
	URL         string `json:"url,omitempty"`
}

// BuildClips converts chapters into clips ordered by start offset. Chapters
// with an unparsable timecode are dropped, and when two chapters resolve to
// the same offset only the first one is kept. A clip's end is the next clip's
// start. When pageURL is set every clip links to it with a t parameter.
func BuildClips(chapters []models.Chapter, pageURL string) []Clip {
	clips := make([]Clip, 0, len(chapters))
	seen := make(map[int]struct{}, len(chapters))
	for _, ch := range chapters {
		start, ok := TimecodeToSeconds(ch.T)
		if !ok {
			continue
		}
		if _, dup := seen[start]; dup {
			continue
		}
		seen[start] = struct{}{}
		clips = append(clips, Clip{Name: ch.Label, StartOffset: start})
	}

	sort.SliceStable(clips, func(i, j int) bool { return clips[i].StartOffset < clips[j].StartOffset })

	for i := range clips {
		if i+1 < len(clips) && clips[i+1].StartOffset > clips[i].StartOffset {
			end := clips[i+1].StartOffset
			clips[i].EndOffset = &end
		}
		if pageURL != "" {
			clips[i].URL = clipURL(pageURL, clips[i].StartOffset)
		}
	}
	return clips
}

func clipURL(pageURL string, start int) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	q := u.Query()
	q.Set("t", strconv.Itoa(start))
	u.RawQuery = q.Encode()
	return u.String()
}
