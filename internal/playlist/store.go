// Package playlist implements per-owner playlists and their persistent store.
//
// Every mutation rewrites the whole collection through [storage.JSONFile]
// while holding the store lock, so concurrent writers never interleave partial
// rewrites. A mutation whose save fails is rolled back in memory.
package playlist

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/storage"
)

var (
	ErrPlaylistExists   = errors.New("playlist already exists")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrPlaylistNotEmpty = errors.New("playlist is not empty")
	ErrSongExists       = errors.New("song already in playlist")
	ErrSongNotInList    = errors.New("song not in playlist")
)

// Store maps owner email to that owner's playlists in creation order.
type Store struct {
	mu     sync.RWMutex
	file   *storage.JSONFile
	owners map[string][]*Playlist
}

// Load reads the store from file. A missing file yields an empty store.
func Load(file *storage.JSONFile) (*Store, error) {
	var records []Playlist
	if _, err := file.Load(&records); err != nil {
		return nil, fmt.Errorf("failed to load playlists: %w", err)
	}

	s := &Store{file: file, owners: make(map[string][]*Playlist)}
	for i := range records {
		p := records[i]
		if p.Songs == nil {
			p.Songs = make([]catalog.Song, 0)
		}
		if s.findLocked(p.Owner, p.Title) != nil {
			return nil, fmt.Errorf("failed to load playlists: %w: %s/%s", ErrPlaylistExists, p.Owner, p.Title)
		}
		s.owners[p.Owner] = append(s.owners[p.Owner], &p)
	}
	return s, nil
}

// Create adds an empty playlist for owner.
func (s *Store) Create(owner, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findLocked(owner, title) != nil {
		return fmt.Errorf("%w: %s", ErrPlaylistExists, title)
	}

	prev := s.owners[owner]
	s.owners[owner] = append(prev, newPlaylist(owner, title))

	if err := s.saveLocked(); err != nil {
		s.restoreOwner(owner, prev)
		return err
	}
	return nil
}

// Delete removes an empty playlist.
func (s *Store) Delete(owner, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(owner, title)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPlaylistNotFound, title)
	}
	if p.Length() > 0 {
		return fmt.Errorf("%w: %s", ErrPlaylistNotEmpty, title)
	}

	prev := s.owners[owner]
	kept := make([]*Playlist, 0, len(prev))
	for _, q := range prev {
		if q != p {
			kept = append(kept, q)
		}
	}
	s.restoreOwner(owner, kept)

	if err := s.saveLocked(); err != nil {
		s.owners[owner] = prev
		return err
	}
	return nil
}

// AddSong appends song to the owner's playlist.
func (s *Store) AddSong(owner, title string, song catalog.Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(owner, title)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrPlaylistNotFound, title)
	}
	if !p.add(song) {
		return fmt.Errorf("%w: %s", ErrSongExists, song.Title)
	}

	if err := s.saveLocked(); err != nil {
		p.removeAt(p.Length() - 1)
		return err
	}
	return nil
}

// RemoveSong drops the song titled songTitle, ignoring case, from the owner's playlist.
func (s *Store) RemoveSong(owner, title, songTitle string) (catalog.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(owner, title)
	if p == nil {
		return catalog.Song{}, fmt.Errorf("%w: %s", ErrPlaylistNotFound, title)
	}

	i := p.FindSong(songTitle)
	if i < 0 {
		return catalog.Song{}, fmt.Errorf("%w: %s", ErrSongNotInList, songTitle)
	}

	prev := p.clone().Songs
	song := p.removeAt(i)

	if err := s.saveLocked(); err != nil {
		p.Songs = prev
		return catalog.Song{}, err
	}
	return song, nil
}

// Get returns a copy of the owner's playlist.
func (s *Store) Get(owner, title string) (*Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.findLocked(owner, title)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlaylistNotFound, title)
	}
	return p.clone(), nil
}

// List returns the owner's playlist titles in creation order.
func (s *Store) List(owner string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	titles := make([]string, 0, len(s.owners[owner]))
	for _, p := range s.owners[owner] {
		titles = append(titles, p.Title)
	}
	return titles
}

// Owners returns the number of owners with at least one playlist.
func (s *Store) Owners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.owners)
}

func (s *Store) findLocked(owner, title string) *Playlist {
	for _, p := range s.owners[owner] {
		if p.Title == title {
			return p
		}
	}
	return nil
}

func (s *Store) restoreOwner(owner string, lists []*Playlist) {
	if len(lists) == 0 {
		delete(s.owners, owner)
		return
	}
	s.owners[owner] = lists
}

func (s *Store) saveLocked() error {
	owners := make([]string, 0, len(s.owners))
	for owner := range s.owners {
		owners = append(owners, owner)
	}
	sort.Strings(owners)

	records := make([]Playlist, 0)
	for _, owner := range owners {
		for _, p := range s.owners[owner] {
			records = append(records, *p.clone())
		}
	}
	if err := s.file.Save(records); err != nil {
		return fmt.Errorf("failed to save playlists: %w", err)
	}
	return nil
}
