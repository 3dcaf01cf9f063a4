package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/famish99/songd/internal/auth"
	"github.com/famish99/songd/internal/backends"
	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/player"
	"github.com/famish99/songd/internal/playlist"
	"github.com/famish99/songd/internal/session"
	"github.com/famish99/songd/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// holdRenderer plays until cancelled.
type holdRenderer struct{}

func (holdRenderer) Render(ctx context.Context, _ catalog.Song) error {
	<-ctx.Done()
	return ctx.Err()
}

func (holdRenderer) Name() string { return "hold" }

// stuckRenderer ignores cancellation until release is closed.
type stuckRenderer struct{ release chan struct{} }

func (r stuckRenderer) Render(context.Context, catalog.Song) error {
	<-r.release
	return context.Canceled
}

func (stuckRenderer) Name() string { return "stuck" }

type fixture struct {
	d         *Dispatcher
	catalog   *catalog.Catalog
	playlists *playlist.Store
	sessions  *session.Registry
	player    *player.Player
	dir       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, holdRenderer{}, 2*time.Second)
}

func newFixtureWith(t *testing.T, renderer backends.Renderer, stopTimeout time.Duration) *fixture {
	t.Helper()
	dir := t.TempDir()

	cat, err := catalog.New(storage.NewJSONFile(filepath.Join(dir, "songs.json")), []catalog.Song{
		{Title: "A", Artist: "Alpha", DurationSeconds: 60, Genre: "rock"},
		{Title: "B", Artist: "Beta", DurationSeconds: 90, Genre: "jazz"},
		{Title: "Blue Monday", Artist: "New Order", DurationSeconds: 449, Genre: "synth-pop"},
	})
	require.NoError(t, err)

	store, err := playlist.Load(storage.NewJSONFile(filepath.Join(dir, "playlists.json")))
	require.NoError(t, err)

	p := player.NewPlayer(player.Options{
		Renderer:    renderer,
		Recorder:    cat,
		StopTimeout: stopTimeout,
	})
	t.Cleanup(p.Close)

	sessions := session.NewRegistry()
	d := New(Deps{
		Sessions:  sessions,
		Users:     auth.NewUsers(storage.NewLineFile(filepath.Join(dir, "users.txt")), auth.BcryptHasher{Cost: bcrypt.MinCost}),
		Catalog:   cat,
		Playlists: store,
		Player:    p,
	})

	return &fixture{d: d, catalog: cat, playlists: store, sessions: sessions, player: p, dir: dir}
}

func (f *fixture) conn() session.ConnID {
	id := session.NewConnID()
	f.d.Open(id)
	return id
}

func (f *fixture) do(id session.ConnID, line string) string {
	return f.d.Handle(id, line).Reply
}

func (f *fixture) loggedIn(t *testing.T, email string) session.ConnID {
	t.Helper()
	id := f.conn()
	require.Equal(t, "Registered "+email+"\nOK\n", f.do(id, "register "+email+" secret"))
	require.Equal(t, "Logged in as "+email+"\nOK\n", f.do(id, "login "+email+" secret"))
	return id
}

func TestArityMismatchIsUnknown(t *testing.T) {
	f := newFixture(t)
	id := f.loggedIn(t, "ann@example.com")

	lines := []string{
		"",
		"bogus",
		"logout now",
		"stop please",
		"show-playlists mine",
		"create-playlist",
		"register ann@example.com",
		"add-song-to Mix",
		"top",
		"play",
		"help me",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			assert.Equal(t, "ACK [5@0] {} command not understood\n", f.do(id, line))
		})
	}

	user, ok := f.sessions.User(id)
	assert.True(t, ok)
	assert.Equal(t, "ann@example.com", user)
	assert.Empty(t, f.playlists.List("ann@example.com"))
	assert.False(t, f.player.IsPlaying(id))
}

func TestCommandNamesIgnoreCase(t *testing.T) {
	f := newFixture(t)
	id := f.conn()

	assert.True(t, strings.HasSuffix(f.do(id, "HELP"), "OK\n"))
	assert.Equal(t, "1. Blue Monday - New Order (7:29, synth-pop)\nOK\n", f.do(id, "Search blue"))
}

func TestLoginTwice(t *testing.T) {
	f := newFixture(t)
	id := f.loggedIn(t, "ann@example.com")

	assert.Equal(t, "ACK [4@0] {login} already logged in\n", f.do(id, "login ann@example.com secret"))
	assert.Equal(t, "ACK [4@0] {login} already logged in\n", f.do(id, "login nobody@example.com wrong"))
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	id := f.conn()

	assert.Equal(t, "ACK [2@0] {register} invalid email\n", f.do(id, "register not-an-email pw"))
	assert.Equal(t, "Registered bob@example.com\nOK\n", f.do(id, "register bob@example.com hunter two"))
	assert.Equal(t, "ACK [56@0] {register} user already exists\n", f.do(id, "register bob@example.com other"))

	assert.Equal(t, "ACK [3@0] {login} user not found\n", f.do(id, "login bob@example.com hunter"))
	assert.Equal(t, "ACK [3@0] {login} user not found\n", f.do(id, "login eve@example.com hunter two"))
	assert.Equal(t, "Logged in as bob@example.com\nOK\n", f.do(id, "login bob@example.com hunter two"))

	assert.Equal(t, "Logged out\nOK\n", f.do(id, "logout"))
	assert.Equal(t, "ACK [4@0] {logout} not logged in\n", f.do(id, "logout"))
}

func TestLongPasswords(t *testing.T) {
	f := newFixture(t)
	id := f.conn()

	long := strings.Repeat("x", 80)
	assert.Equal(t, "Registered bob@example.com\nOK\n", f.do(id, "register bob@example.com "+long))
	assert.Equal(t, "ACK [3@0] {login} user not found\n", f.do(id, "login bob@example.com "+strings.Repeat("x", 72)+"yyyyyyyy"))
	assert.Equal(t, "Logged in as bob@example.com\nOK\n", f.do(id, "login bob@example.com "+long))
	assert.Equal(t, "Logged out\nOK\n", f.do(id, "logout"))

	phrase := "the quick brown fox jumps over the lazy dog while the band plays on and on"
	require.Greater(t, len(phrase), 72)
	assert.Equal(t, "Registered eve@example.com\nOK\n", f.do(id, "register eve@example.com "+phrase))
	assert.Equal(t, "Logged in as eve@example.com\nOK\n", f.do(id, "login eve@example.com "+phrase))
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)
	id := f.conn()

	for _, line := range []string{
		"create-playlist Mix",
		"delete-playlist Mix",
		"add-song-to Mix A",
		"remove-song-from Mix A",
		"show-playlist Mix",
		"show-playlists",
		"play A",
		"play-playlist Mix",
		"stop",
	} {
		name := strings.Fields(line)[0]
		assert.Equal(t, "ACK [4@0] {"+name+"} not logged in\n", f.do(id, line), line)
	}
}

func TestPlaylistsPerOwner(t *testing.T) {
	f := newFixture(t)
	ann := f.loggedIn(t, "ann@example.com")
	bob := f.loggedIn(t, "bob@example.com")

	assert.Equal(t, "Created playlist Road Trip\nOK\n", f.do(ann, "create-playlist Road Trip"))
	assert.Equal(t, "ACK [56@0] {create-playlist} playlist already exists\n", f.do(ann, "create-playlist Road Trip"))
	assert.Equal(t, "Created playlist Road Trip\nOK\n", f.do(bob, "create-playlist Road Trip"))

	assert.Equal(t, "Created playlist Mix\nOK\n", f.do(ann, "create-playlist Mix"))
	assert.Equal(t, "1. Road Trip\n2. Mix\nOK\n", f.do(ann, "show-playlists"))
	assert.Equal(t, "1. Road Trip\nOK\n", f.do(bob, "show-playlists"))

	assert.Equal(t, "ACK [50@0] {show-playlist} playlist not found\n", f.do(bob, "show-playlist Mix"))
}

func TestPlaylistSongs(t *testing.T) {
	f := newFixture(t)
	id := f.loggedIn(t, "ann@example.com")

	require.Equal(t, "Created playlist Mix\nOK\n", f.do(id, "create-playlist Mix"))
	assert.Equal(t, "Playlist Mix is empty\nOK\n", f.do(id, "show-playlist Mix"))

	assert.Equal(t, "Added Blue Monday to Mix\nOK\n", f.do(id, "add-song-to Mix blue monday"))
	assert.Equal(t, "Added A to Mix\nOK\n", f.do(id, "add-song-to Mix A"))
	assert.Equal(t, "ACK [56@0] {add-song-to} song already in playlist\n", f.do(id, "add-song-to Mix a"))
	assert.Equal(t, "ACK [50@0] {add-song-to} song not found\n", f.do(id, "add-song-to Mix Karma Police"))
	assert.Equal(t, "ACK [50@0] {add-song-to} playlist not found\n", f.do(id, "add-song-to Other A"))

	assert.Equal(t,
		"1. Blue Monday - New Order (7:29, synth-pop)\n2. A - Alpha (1:00, rock)\nOK\n",
		f.do(id, "show-playlist Mix"))

	assert.Equal(t, "ACK [55@0] {delete-playlist} playlist is not empty\n", f.do(id, "delete-playlist Mix"))
	assert.Equal(t, "ACK [50@0] {remove-song-from} song not in playlist\n", f.do(id, "remove-song-from Mix B"))
	assert.Equal(t, "ACK [50@0] {remove-song-from} playlist not found\n", f.do(id, "remove-song-from Other A"))
	assert.Equal(t, "Removed Blue Monday from Mix\nOK\n", f.do(id, "remove-song-from Mix BLUE MONDAY"))
	assert.Equal(t, "Removed A from Mix\nOK\n", f.do(id, "remove-song-from Mix a"))

	assert.Equal(t, "Deleted playlist Mix\nOK\n", f.do(id, "delete-playlist Mix"))
	assert.Equal(t, "ACK [50@0] {delete-playlist} playlist not found\n", f.do(id, "delete-playlist Mix"))
	assert.Equal(t, "No playlists\nOK\n", f.do(id, "show-playlists"))
}

func TestPlaylistsPersist(t *testing.T) {
	f := newFixture(t)
	id := f.loggedIn(t, "ann@example.com")

	f.do(id, "create-playlist Mix")
	f.do(id, "add-song-to Mix B")
	f.do(id, "create-playlist Empty")

	reloaded, err := playlist.Load(storage.NewJSONFile(filepath.Join(f.dir, "playlists.json")))
	require.NoError(t, err)
	assert.Equal(t, []string{"Mix", "Empty"}, reloaded.List("ann@example.com"))

	p, err := reloaded.Get("ann@example.com", "Mix")
	require.NoError(t, err)
	require.Len(t, p.Songs, 1)
	assert.Equal(t, "B", p.Songs[0].Title)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	id := f.conn()

	assert.Equal(t, "1. B - Beta (1:30, jazz)\nOK\n", f.do(id, "search beta"))
	assert.Equal(t, "1. Blue Monday - New Order (7:29, synth-pop)\nOK\n", f.do(id, "search order BLUE"))
	assert.Equal(t, "No songs found\nOK\n", f.do(id, "search blue alpha"))
}

func TestTop(t *testing.T) {
	f := newFixture(t)
	id := f.conn()

	for i := 0; i < 5; i++ {
		_, err := f.catalog.RecordPlay("A")
		require.NoError(t, err)
	}
	for i := 0; i < 9; i++ {
		_, err := f.catalog.RecordPlay("B")
		require.NoError(t, err)
	}

	tc := []struct {
		line string
		want string
	}{
		{"top 0", "ACK [2@0] {top} argument must be a positive integer\n"},
		{"top -3", "ACK [2@0] {top} argument must be a positive integer\n"},
		{"top many", "ACK [2@0] {top} argument must be a positive integer\n"},
		{"top 1", "1. B - Beta (9 plays)\nOK\n"},
		{"top 2", "1. B - Beta (9 plays)\n2. A - Alpha (5 plays)\nOK\n"},
		{"top 10", "1. B - Beta (9 plays)\n2. A - Alpha (5 plays)\n3. Blue Monday - New Order (0 plays)\nOK\n"},
	}
	for _, c := range tc {
		t.Run(c.line, func(t *testing.T) {
			assert.Equal(t, c.want, f.do(id, c.line))
		})
	}

	ann := f.loggedIn(t, "ann@example.com")
	require.Equal(t, "Playing A - Alpha\nOK\n", f.do(ann, "play A"))

	e, err := f.catalog.Entity("A")
	require.NoError(t, err)
	assert.Equal(t, 6, e.PlayCount)

	assert.Equal(t, "1. B - Beta (9 plays)\nOK\n", f.do(id, "top 1"))
	assert.Equal(t, "1. B - Beta (9 plays)\n2. A - Alpha (6 plays)\nOK\n", f.do(id, "top 2"))
}

func TestPlayAndStop(t *testing.T) {
	f := newFixture(t)
	id := f.loggedIn(t, "ann@example.com")

	assert.Equal(t, "ACK [55@0] {stop} no song is playing\n", f.do(id, "stop"))
	assert.Equal(t, "ACK [50@0] {play} song not found\n", f.do(id, "play Karma Police"))

	assert.Equal(t, "Playing Blue Monday - New Order\nOK\n", f.do(id, "play blue monday"))
	assert.Equal(t, "ACK [55@0] {play} song is already playing\n", f.do(id, "play A"))

	e, err := f.catalog.Entity("Blue Monday")
	require.NoError(t, err)
	assert.Equal(t, 1, e.PlayCount)

	assert.Equal(t, "Stopped Blue Monday\nOK\n", f.do(id, "stop"))
	assert.False(t, f.player.IsPlaying(id))
	assert.Equal(t, "Playing A - Alpha\nOK\n", f.do(id, "play A"))
}

func TestPlayPlaylist(t *testing.T) {
	f := newFixture(t)
	id := f.loggedIn(t, "ann@example.com")

	assert.Equal(t, "ACK [50@0] {play-playlist} playlist not found\n", f.do(id, "play-playlist Mix"))

	f.do(id, "create-playlist Mix")
	assert.Equal(t, "ACK [50@0] {play-playlist} playlist is empty\n", f.do(id, "play-playlist Mix"))

	f.do(id, "add-song-to Mix A")
	f.do(id, "add-song-to Mix B")
	assert.Equal(t, "Playing playlist Mix (2 songs)\nOK\n", f.do(id, "play-playlist Mix"))
	assert.Equal(t, "ACK [55@0] {play-playlist} song is already playing\n", f.do(id, "play-playlist Mix"))
	assert.Equal(t, "ACK [55@0] {play} song is already playing\n", f.do(id, "play B"))

	_, name, ok := f.player.NowPlaying(id)
	require.True(t, ok)
	assert.Equal(t, "Mix", name)

	assert.Equal(t, "Stopped A\nOK\n", f.do(id, "stop"))

	b, err := f.catalog.Entity("B")
	require.NoError(t, err)
	assert.Zero(t, b.PlayCount, "stopping aborts the rest of the playlist")
}

func TestLogoutStopsPlayback(t *testing.T) {
	f := newFixture(t)
	id := f.loggedIn(t, "ann@example.com")

	require.Equal(t, "Playing A - Alpha\nOK\n", f.do(id, "play A"))
	assert.Equal(t, "Logged out\nOK\n", f.do(id, "logout"))
	assert.False(t, f.player.IsPlaying(id))
}

func TestLogoutWaitsForStuckPlayback(t *testing.T) {
	r := stuckRenderer{release: make(chan struct{})}
	f := newFixtureWith(t, r, 50*time.Millisecond)
	released := false
	release := func() {
		if !released {
			released = true
			close(r.release)
		}
	}
	t.Cleanup(release)

	id := f.loggedIn(t, "ann@example.com")
	require.Equal(t, "Playing A - Alpha\nOK\n", f.do(id, "play A"))

	assert.Equal(t, "ACK [52@0] {logout} playback did not stop in time\n", f.do(id, "logout"))
	user, ok := f.sessions.User(id)
	assert.True(t, ok, "session kept while playback is still stopping")
	assert.Equal(t, "ann@example.com", user)
	assert.Equal(t, "ACK [4@0] {login} already logged in\n", f.do(id, "login ann@example.com secret"))

	release()
	assert.Eventually(t, func() bool { return !f.player.IsPlaying(id) }, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Logged out\nOK\n", f.do(id, "logout"))
	f.do(id, "register bob@example.com secret")
	assert.Equal(t, "Logged in as bob@example.com\nOK\n", f.do(id, "login bob@example.com secret"))
	assert.Equal(t, "Playing A - Alpha\nOK\n", f.do(id, "play A"))
}

func TestDisconnectWithStuckPlayback(t *testing.T) {
	r := stuckRenderer{release: make(chan struct{})}
	f := newFixtureWith(t, r, 50*time.Millisecond)
	t.Cleanup(func() { close(r.release) })

	id := f.loggedIn(t, "ann@example.com")
	require.Equal(t, "Playing A - Alpha\nOK\n", f.do(id, "play A"))

	res := f.d.Handle(id, "disconnect")
	assert.Equal(t, "Goodbye\nOK\n", res.Reply)
	assert.True(t, res.Close)

	_, ok := f.sessions.User(id)
	assert.False(t, ok)
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t)

	anon := f.conn()
	res := f.d.Handle(anon, "disconnect")
	assert.Equal(t, "Goodbye\nOK\n", res.Reply)
	assert.True(t, res.Close)

	id := f.loggedIn(t, "ann@example.com")
	require.Equal(t, "Playing A - Alpha\nOK\n", f.do(id, "play A"))

	res = f.d.Handle(id, "disconnect")
	assert.Equal(t, "Goodbye\nOK\n", res.Reply)
	assert.True(t, res.Close)
	assert.False(t, f.player.IsPlaying(id))

	_, ok := f.sessions.User(id)
	assert.False(t, ok)
}

func TestCloseCancelsPlayback(t *testing.T) {
	f := newFixture(t)
	id := f.loggedIn(t, "ann@example.com")
	require.Equal(t, "Playing A - Alpha\nOK\n", f.do(id, "play A"))

	f.d.Close(id)

	assert.Eventually(t, func() bool { return !f.player.IsPlaying(id) }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestSessionsIsolated(t *testing.T) {
	f := newFixture(t)
	ann := f.loggedIn(t, "ann@example.com")
	bob := f.loggedIn(t, "bob@example.com")

	require.Equal(t, "Playing A - Alpha\nOK\n", f.do(ann, "play A"))
	assert.Equal(t, "Playing B - Beta\nOK\n", f.do(bob, "play B"))

	assert.Equal(t, "Logged out\nOK\n", f.do(bob, "logout"))
	assert.True(t, f.player.IsPlaying(ann))

	user, ok := f.sessions.User(ann)
	require.True(t, ok)
	assert.Equal(t, "ann@example.com", user)
}

func TestStorageFailureReply(t *testing.T) {
	f := newFixture(t)
	id := f.loggedIn(t, "ann@example.com")

	// a directory where the playlist file should be makes every save fail
	path := filepath.Join(f.dir, "playlists.json")
	require.NoError(t, os.MkdirAll(path, 0o755))

	assert.Equal(t, "ACK [52@0] {create-playlist} service temporarily unavailable\n", f.do(id, "create-playlist Mix"))
	assert.Equal(t, "No playlists\nOK\n", f.do(id, "show-playlists"))
}

func TestHelp(t *testing.T) {
	f := newFixture(t)
	reply := f.do(f.conn(), "help")

	assert.True(t, strings.HasSuffix(reply, "\nOK\n"))
	for _, name := range []string{"register", "play-playlist", "remove-song-from", "show-playlists"} {
		assert.Contains(t, reply, name)
	}
}
