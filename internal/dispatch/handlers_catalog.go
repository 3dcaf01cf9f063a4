package dispatch

import (
	"fmt"
	"strconv"

	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/protocol"
)

// cmdSearch handles the 'search' command
// search WORDS - every word must occur in the title or the artist
func (d *Dispatcher) cmdSearch(cmd protocol.Command) string {
	songs := d.catalog.Search(cmd.Arg(0))
	if len(songs) == 0 {
		return protocol.OK("No songs found")
	}

	items := make([]string, len(songs))
	for i, s := range songs {
		items[i] = s.String()
	}
	return protocol.OK(protocol.Numbered(items)...)
}

// cmdTop handles the 'top' command
// top N - N must be a positive integer
func (d *Dispatcher) cmdTop(cmd protocol.Command) string {
	n, err := strconv.Atoi(cmd.Arg(0))
	if err != nil {
		return d.fail(cmd.Name, catalog.ErrInvalidLimit)
	}

	top, err := d.catalog.Top(n)
	if err != nil {
		return d.fail(cmd.Name, err)
	}
	if len(top) == 0 {
		return protocol.OK("No songs found")
	}

	items := make([]string, len(top))
	for i, e := range top {
		items[i] = fmt.Sprintf("%s - %s (%d plays)", e.Title, e.Artist, e.PlayCount)
	}
	return protocol.OK(protocol.Numbered(items)...)
}
