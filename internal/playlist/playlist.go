package playlist

import (
	"strings"

	"github.com/famish99/songd/internal/catalog"
)

// Playlist is an owner's ordered, duplicate-free list of songs.
// Two playlists are the same playlist when owner and title match.
type Playlist struct {
	Owner string         `json:"ownerEmail"`
	Title string         `json:"title"`
	Songs []catalog.Song `json:"songs"`
}

// newPlaylist creates a new empty playlist
func newPlaylist(owner, title string) *Playlist {
	return &Playlist{
		Owner: owner,
		Title: title,
		Songs: make([]catalog.Song, 0),
	}
}

// Length returns the number of songs
func (p *Playlist) Length() int {
	return len(p.Songs)
}

// Contains reports whether song is already in the playlist
func (p *Playlist) Contains(song catalog.Song) bool {
	return p.indexOf(song) >= 0
}

// FindSong returns the position of the song titled title, ignoring case, or -1
func (p *Playlist) FindSong(title string) int {
	for i, s := range p.Songs {
		if strings.EqualFold(s.Title, title) {
			return i
		}
	}
	return -1
}

func (p *Playlist) indexOf(song catalog.Song) int {
	for i, s := range p.Songs {
		if s.Same(song) {
			return i
		}
	}
	return -1
}

// add appends song, reporting false if it was already present
func (p *Playlist) add(song catalog.Song) bool {
	if p.Contains(song) {
		return false
	}
	p.Songs = append(p.Songs, song)
	return true
}

// removeAt drops the song at index i
func (p *Playlist) removeAt(i int) catalog.Song {
	song := p.Songs[i]
	p.Songs = append(p.Songs[:i], p.Songs[i+1:]...)
	return song
}

// clone returns a copy safe to hand outside the store's lock
func (p *Playlist) clone() *Playlist {
	songs := make([]catalog.Song, len(p.Songs))
	copy(songs, p.Songs)
	return &Playlist{Owner: p.Owner, Title: p.Title, Songs: songs}
}
