// Package protocol defines the songd line protocol: command parsing with
// fixed arity classes, stream framing, and reply formatting.
package protocol

import "strings"

// Name identifies a command. Names are matched case-insensitively.
type Name string

const (
	Register       Name = "register"
	Login          Name = "login"
	Logout         Name = "logout"
	Disconnect     Name = "disconnect"
	Search         Name = "search"
	Top            Name = "top"
	CreatePlaylist Name = "create-playlist"
	DeletePlaylist Name = "delete-playlist"
	AddSongTo      Name = "add-song-to"
	RemoveSongFrom Name = "remove-song-from"
	ShowPlaylist   Name = "show-playlist"
	ShowPlaylists  Name = "show-playlists"
	Play           Name = "play"
	PlayPlaylist   Name = "play-playlist"
	Stop           Name = "stop"
	Help           Name = "help"

	// Unknown is the result of any line that is not a valid command.
	Unknown Name = "unknown"
)

// Arity is the number of arguments a command takes.
type Arity int

const (
	NoArgs Arity = iota
	OneArg
	TwoArgs
)

var arities = map[Name]Arity{
	Register:       TwoArgs,
	Login:          TwoArgs,
	Logout:         NoArgs,
	Disconnect:     NoArgs,
	Search:         OneArg,
	Top:            OneArg,
	CreatePlaylist: OneArg,
	DeletePlaylist: OneArg,
	AddSongTo:      TwoArgs,
	RemoveSongFrom: TwoArgs,
	ShowPlaylist:   OneArg,
	ShowPlaylists:  NoArgs,
	Play:           OneArg,
	PlayPlaylist:   OneArg,
	Stop:           NoArgs,
	Help:           NoArgs,
}

// Names returns every known command in reference order.
func Names() []Name {
	return []Name{
		Register, Login, Logout, Disconnect, Search, Top,
		CreatePlaylist, DeletePlaylist, AddSongTo, RemoveSongFrom,
		ShowPlaylist, ShowPlaylists, Play, PlayPlaylist, Stop, Help,
	}
}

// ArityOf returns the arity class of name.
func ArityOf(name Name) (Arity, bool) {
	a, ok := arities[name]
	return a, ok
}

// Command is a parsed, arity-checked request.
type Command struct {
	Name Name
	Args []string
}

// Arg returns argument i, or "" when absent.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Parse splits line on single spaces and checks it against the arity class
// of its first token. Arguments of the last position may contain spaces:
// every remaining token is rejoined with single spaces. Anything that does
// not fit yields a [Command] named [Unknown].
func Parse(line string) Command {
	tokens := strings.Split(line, " ")
	name := Name(strings.ToLower(tokens[0]))

	arity, ok := arities[name]
	if !ok {
		return Command{Name: Unknown}
	}

	rest := tokens[1:]
	switch arity {
	case NoArgs:
		if len(rest) != 0 {
			return Command{Name: Unknown}
		}
		return Command{Name: name}
	case OneArg:
		if len(rest) < 1 {
			return Command{Name: Unknown}
		}
		return Command{Name: name, Args: []string{strings.Join(rest, " ")}}
	case TwoArgs:
		if len(rest) < 2 {
			return Command{Name: Unknown}
		}
		return Command{Name: name, Args: []string{rest[0], strings.Join(rest[1:], " ")}}
	}

	return Command{Name: Unknown}
}
