package catalog

import (
	"fmt"
	"strings"
)

// Song is an immutable catalog entry. Two songs are the same song when
// title and artist match.
type Song struct {
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	DurationSeconds int    `json:"duration"`
	Genre           string `json:"genre"`
}

// Same reports whether s and other identify the same song.
func (s Song) Same(other Song) bool {
	return s.Title == other.Title && s.Artist == other.Artist
}

// String formats the song as it appears in listings.
func (s Song) String() string {
	return fmt.Sprintf("%s - %s (%s, %s)", s.Title, s.Artist, formatDuration(s.DurationSeconds), s.Genre)
}

// Matches reports whether every word of query occurs in the title or the
// artist, ignoring case.
func (s Song) Matches(query string) bool {
	title := strings.ToLower(s.Title)
	artist := strings.ToLower(s.Artist)

	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(title, w) && !strings.Contains(artist, w) {
			return false
		}
	}
	return true
}

// Entity is a catalog song with its play counter.
type Entity struct {
	Song
	PlayCount int `json:"playCount"`
}

func formatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func titleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
