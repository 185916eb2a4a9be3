package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type result struct {
	stdout string
	stderr string
	err    error
}

// useTempStore points the CLI at a fresh sqlite file and returns its path.
func useTempStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kidflix.db")
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("LOG_FILE", "")
	t.Setenv("TRACING_ENABLED", "false")
	t.Setenv("FEATURE_FLAGS", "notification_sound=on,network_explorer=on")
	return path
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	res := run(t, "", args...)
	require.NoError(t, res.err, "kidflix %s\nstderr: %s", strings.Join(args, " "), res.stderr)
	return res.stdout
}

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	res := run(t, "")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Usage:")
	assert.Contains(t, res.stdout, "kidflix")
}

func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	res := run(t, "", "--unknown-flag", "value")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "unknown flag")
}

func TestSignupLoginLogout(t *testing.T) {
	useTempStore(t)

	out := mustRun(t, "signup", "alice", "alice@example.com", "-p", "secret123")
	assert.Contains(t, out, "Welcome, alice")

	out = mustRun(t, "whoami")
	assert.Contains(t, out, "alice <alice@example.com>")
	assert.Contains(t, out, "flag network_explorer: on")

	mustRun(t, "logout")
	assert.Contains(t, mustRun(t, "whoami"), "Not logged in")

	res := run(t, "", "login", "alice", "-p", "wrong-password")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "wrong password")

	out = mustRun(t, "login", "alice@example.com", "-p", "secret123")
	assert.Contains(t, out, "Logged in as alice")
}

func TestSignup_DuplicateUsername(t *testing.T) {
	useTempStore(t)
	mustRun(t, "signup", "alice", "alice@example.com", "-p", "secret123")

	res := run(t, "", "signup", "alice", "other@example.com", "-p", "secret123")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "username taken")
}

func TestSignup_PromptsForPassword(t *testing.T) {
	useTempStore(t)

	res := run(t, "secret123\n", "signup", "alice", "alice@example.com")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Password: ")
	assert.Contains(t, mustRun(t, "login", "alice", "-p", "secret123"), "Logged in as alice")
}

func TestSignup_WrongChallengeAnswer(t *testing.T) {
	useTempStore(t)

	res := run(t, "secret123\nnot-a-number\n", "signup", "alice", "alice@example.com", "--challenge")
	require.Error(t, res.err)
	assert.Contains(t, res.stdout, "What is ")
	assert.Contains(t, res.stderr, "invalid input")
}

func TestPasswd_ReadsEveryPromptFromStdin(t *testing.T) {
	useTempStore(t)
	mustRun(t, "signup", "alice", "alice@example.com", "-p", "secret123")

	res := run(t, "secret123\nnewpass1\nnewpass1\n", "passwd")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Password updated")

	mustRun(t, "logout")
	require.Error(t, run(t, "", "login", "alice", "-p", "secret123").err)
	mustRun(t, "login", "alice", "-p", "newpass1")
}

func TestCommands_RequireLogin(t *testing.T) {
	useTempStore(t)

	res := run(t, "", "post", "-c", "hello")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "not logged in")
}

func TestPostFollowAndNotify(t *testing.T) {
	useTempStore(t)
	mustRun(t, "signup", "bob", "bob@example.com", "-p", "secret123")
	mustRun(t, "signup", "alice", "alice@example.com", "-p", "secret123")

	assert.Contains(t, mustRun(t, "follow", "bob"), "Following bob")

	mustRun(t, "login", "bob", "-p", "secret123")
	out := mustRun(t, "post", "-c", "hello <b>world</b>")
	assert.Contains(t, out, "Posted")

	mustRun(t, "login", "alice", "-p", "secret123")
	assert.Contains(t, mustRun(t, "whoami"), "notifications: 1 unread")

	out = mustRun(t, "notifications", "--mark-read")
	assert.Contains(t, out, "bob shared a new post")
	assert.Contains(t, mustRun(t, "whoami"), "notifications: 0 unread")

	out = mustRun(t, "feed", "--search", "HELLO")
	assert.Contains(t, out, "hello world")
	assert.NotContains(t, out, "<b>")

	assert.Contains(t, mustRun(t, "feed", "--search", "nothing-matches"), "No posts yet.")
	assert.Contains(t, mustRun(t, "follow", "bob"), "Unfollowed bob")
}

func TestPost_WithAttachment(t *testing.T) {
	useTempStore(t)
	mustRun(t, "signup", "alice", "alice@example.com", "-p", "secret123")

	file := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("plain text attachment"), 0o600))

	mustRun(t, "post", "-f", file)
	out := mustRun(t, "feed")
	assert.Contains(t, out, "notes.txt")
}

func TestLikeCommentFavorite(t *testing.T) {
	useTempStore(t)
	mustRun(t, "signup", "alice", "alice@example.com", "-p", "secret123")
	mustRun(t, "post", "-c", "first")

	id := onlyPostID(t)
	assert.Contains(t, mustRun(t, "like", id), "Liked")
	assert.Contains(t, mustRun(t, "like", id), "Unliked")
	assert.Contains(t, mustRun(t, "comment", id, "nice", "one"), "Commented")
	res := run(t, "", "comment", id, "<i></i>")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Nothing was added")
	assert.Contains(t, mustRun(t, "favorite", id), "Saved")

	out := mustRun(t, "profile")
	assert.Contains(t, out, "alice: nice one")
	assert.Contains(t, out, "Favorites")
}

// onlyPostID reads the id of the single post from the feed.
func onlyPostID(t *testing.T) string {
	t.Helper()
	out := mustRun(t, "feed")
	start := strings.Index(out, "[")
	end := strings.Index(out, "]")
	require.True(t, start >= 0 && end > start, "no post id in %q", out)
	return out[start+1 : end]
}

func TestMessages(t *testing.T) {
	useTempStore(t)
	mustRun(t, "signup", "bob", "bob@example.com", "-p", "secret123")
	mustRun(t, "signup", "alice", "alice@example.com", "-p", "secret123")

	assert.Contains(t, mustRun(t, "send", "bob", "hi", "there"), "Sent to bob")

	mustRun(t, "login", "bob", "-p", "secret123")
	assert.Contains(t, mustRun(t, "whoami"), "messages:      1 unread")
	assert.Contains(t, mustRun(t, "messages"), "alice (1 unread)")
	assert.Contains(t, mustRun(t, "messages", "alice"), "alice: hi there")
	assert.Contains(t, mustRun(t, "whoami"), "messages:      0 unread")

	res := run(t, "", "send", "nobody", "hello")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "not found")
}

func TestAdminCommands(t *testing.T) {
	useTempStore(t)
	mustRun(t, "signup", "bob", "bob@example.com", "-p", "secret123")
	mustRun(t, "post", "-c", "spam")
	mustRun(t, "signup", "alice", "alice@example.com", "-p", "secret123")
	id := onlyPostID(t)

	res := run(t, "", "delete-post", id)
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "permission denied")

	assert.Contains(t, mustRun(t, "admin", "promote", "alice"), "alice is now admin")
	assert.Contains(t, mustRun(t, "admin", "list"), "alice <alice@example.com>")

	res = run(t, "", "delete-user", "alice")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "permission denied")

	mustRun(t, "delete-post", id)
	assert.Contains(t, mustRun(t, "feed"), "No posts yet.")

	mustRun(t, "delete-user", "bob")
	assert.NotContains(t, mustRun(t, "users"), "bob")

	assert.Contains(t, mustRun(t, "admin", "demote", "alice"), "alice is now user")
	assert.Contains(t, mustRun(t, "admin", "list"), "No admins.")
}

func TestExportImport(t *testing.T) {
	useTempStore(t)
	mustRun(t, "signup", "alice", "alice@example.com", "-p", "secret123")
	mustRun(t, "post", "-c", "backed up")

	backup := filepath.Join(t.TempDir(), "backup.txt")
	assert.Contains(t, mustRun(t, "export", "-o", backup), "Exported")

	useTempStore(t)
	out := mustRun(t, "import", "-i", backup)
	assert.Contains(t, out, "Imported 1 users, 1 posts, 0 messages, 0 notifications")
	assert.Contains(t, mustRun(t, "import", "-i", backup), "Nothing new to import.")
	assert.Contains(t, mustRun(t, "feed"), "backed up")

	blob := strings.TrimSpace(mustRun(t, "export"))
	res := run(t, blob, "import")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Nothing new to import.")
}

func TestImport_RejectsGarbage(t *testing.T) {
	useTempStore(t)

	res := run(t, "definitely not a backup", "import")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "import failed")
}

func TestSeedAndInspect(t *testing.T) {
	useTempStore(t)

	out := mustRun(t, "seed", "--users", "5", "--posts", "2", "--follows", "2", "--comments", "1", "--messages", "4", "--seed", "42")
	assert.Contains(t, out, "Seeded 5 users, 10 posts, 10 follows")

	out = mustRun(t, "inspect", "--tables")
	assert.Contains(t, out, "Storage: sqlite")
	assert.Regexp(t, `users\s+5`, out)
	assert.Regexp(t, `posts\s+10`, out)
	assert.Regexp(t, `relations\s+10`, out)
	assert.Contains(t, out, "USERNAME")
}

func TestSeedFixture(t *testing.T) {
	useTempStore(t)
	fixture := filepath.Join(t.TempDir(), "fixture.yml")
	require.NoError(t, os.WriteFile(fixture, []byte(`
users:
  - username: alice
    email: alice@example.com
    role: admin
    follows: [bob]
  - username: bob
    email: bob@example.com
posts:
  - author: bob
    caption: fixture post
    likes: [alice]
`), 0o600))

	out := mustRun(t, "seed", "--fixture", fixture)
	assert.Contains(t, out, "Seeded 2 users, 1 posts, 1 follows, 1 likes")
	assert.Contains(t, mustRun(t, "admin", "list"), "alice")
}

func TestGraph(t *testing.T) {
	useTempStore(t)
	mustRun(t, "seed", "--users", "6", "--posts", "0", "--follows", "2", "--messages", "0", "--seed", "7")

	out := mustRun(t, "graph", "--seed", "3")
	assert.Contains(t, out, "6 users · 12 follow edges")
	assert.Contains(t, out, "USER")

	out = mustRun(t, "graph", "--seed", "3", "-n", "5", "--plot=false")
	assert.Contains(t, out, "5 ticks")
	assert.NotContains(t, out, "+---")
}

func TestGraph_Live(t *testing.T) {
	useTempStore(t)
	t.Setenv("GRAPH_FPS", "200")
	mustRun(t, "seed", "--users", "3", "--posts", "0", "--follows", "1", "--messages", "0", "--seed", "7")

	out := mustRun(t, "graph", "--live", "100ms", "--plot=false")
	assert.Contains(t, out, "3 users · 3 follow edges")
}

func TestGraph_FeatureFlagOff(t *testing.T) {
	useTempStore(t)
	t.Setenv("FEATURE_FLAGS", "network_explorer=off")

	res := run(t, "", "graph")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "network explorer is turned off")
}
