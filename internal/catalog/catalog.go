// Package catalog holds the shared song catalog and its play counters.
//
// The catalog is loaded once at startup. The only mutation is [Catalog.RecordPlay],
// which increments a counter and rewrites the backing file before returning.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/famish99/songd/internal/storage"
)

var (
	ErrSongNotFound   = errors.New("song not found")
	ErrDuplicateTitle = errors.New("duplicate song title")
	ErrInvalidLimit   = errors.New("limit must be positive")
)

// Catalog is the in-memory song collection.
type Catalog struct {
	mu      sync.RWMutex
	file    *storage.JSONFile
	songs   []*Entity          // catalog iteration order
	byTitle map[string]*Entity // lower-cased title
}

// Load reads the catalog from file. A missing file yields an empty catalog.
func Load(file *storage.JSONFile) (*Catalog, error) {
	var records []Entity
	if _, err := file.Load(&records); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return newCatalog(file, records)
}

// New builds a catalog from songs with zero play counts and writes it to file.
func New(file *storage.JSONFile, songs []Song) (*Catalog, error) {
	records := make([]Entity, len(songs))
	for i, s := range songs {
		records[i] = Entity{Song: s}
	}

	c, err := newCatalog(file, records)
	if err != nil {
		return nil, err
	}
	if err := c.save(); err != nil {
		return nil, err
	}
	return c, nil
}

func newCatalog(file *storage.JSONFile, records []Entity) (*Catalog, error) {
	c := &Catalog{
		file:    file,
		songs:   make([]*Entity, 0, len(records)),
		byTitle: make(map[string]*Entity, len(records)),
	}

	for i := range records {
		e := records[i]
		key := titleKey(e.Title)
		if _, exists := c.byTitle[key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTitle, e.Title)
		}
		if e.PlayCount < 0 {
			e.PlayCount = 0
		}
		c.songs = append(c.songs, &e)
		c.byTitle[key] = &e
	}

	return c, nil
}

// Len returns the number of songs.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.songs)
}

// Find returns the song whose title matches, ignoring case.
func (c *Catalog) Find(title string) (Song, error) {
	e, err := c.Entity(title)
	if err != nil {
		return Song{}, err
	}
	return e.Song, nil
}

// Entity returns a copy of the catalog entry for title, ignoring case.
func (c *Catalog) Entity(title string) (Entity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.byTitle[titleKey(title)]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %s", ErrSongNotFound, title)
	}
	return *e, nil
}

// Search returns the songs matched by every word of query, in catalog order.
func (c *Catalog) Search(query string) []Song {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Song
	for _, e := range c.songs {
		if e.Matches(query) {
			out = append(out, e.Song)
		}
	}
	return out
}

// Top returns at most n entries by descending play count. Ties keep catalog order.
func (c *Catalog) Top(n int) ([]Entity, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}

	c.mu.RLock()
	out := make([]Entity, len(c.songs))
	for i, e := range c.songs {
		out[i] = *e
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayCount > out[j].PlayCount
	})

	if n < len(out) {
		out = out[:n]
	}
	return out, nil
}

// RecordPlay increments the play count of title and persists the catalog.
// If the save fails the increment is undone and the error wraps
// [storage.ErrUnavailable].
func (c *Catalog) RecordPlay(title string) (Song, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byTitle[titleKey(title)]
	if !ok {
		return Song{}, fmt.Errorf("%w: %s", ErrSongNotFound, title)
	}

	e.PlayCount++
	if err := c.saveLocked(); err != nil {
		e.PlayCount--
		return Song{}, err
	}
	return e.Song, nil
}

func (c *Catalog) save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saveLocked()
}

func (c *Catalog) saveLocked() error {
	records := make([]Entity, len(c.songs))
	for i, e := range c.songs {
		records[i] = *e
	}
	if err := c.file.Save(records); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	return nil
}
