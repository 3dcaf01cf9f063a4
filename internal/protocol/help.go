package protocol

var helpLines = []string{
	"register <email> <password>        create an account",
	"login <email> <password>           log in on this connection",
	"logout                             log out and stop playback",
	"disconnect                         log out and close the connection",
	"search <words>                     find songs by title or artist",
	"top <n>                            most played songs",
	"create-playlist <title>            create an empty playlist",
	"delete-playlist <title>            delete an empty playlist",
	"add-song-to <playlist> <song>      add a catalog song to a playlist",
	"remove-song-from <playlist> <song> remove a song from a playlist",
	"show-playlist <title>              list a playlist's songs",
	"show-playlists                     list your playlists",
	"play <song>                        start playing a song",
	"play-playlist <title>              play a playlist in order",
	"stop                               stop playback",
	"help                               show this text",
}

// HelpText returns the static command reference, one command per line.
func HelpText() []string {
	out := make([]string, len(helpLines))
	copy(out, helpLines)
	return out
}
