package quiz

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"tcpquiz-backend/api"
	"tcpquiz-backend/internal/questions"

	"github.com/google/go-cmp/cmp"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeConn records every message written to it.
type fakeConn struct {
	mu     sync.Mutex
	msgs   []any
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) messages() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.msgs...)
}

func assertEqual(t *testing.T, want, got any) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	if opts.Questions == nil {
		opts.Questions = questions.Default()
	}
	game, err := NewGame(opts)
	assertNoError(t, err)
	return game
}

func TestPoints(t *testing.T) {
	cases := []struct {
		name    string
		correct bool
		elapsed float64
		want    int
	}{
		{"instant answer", true, 0, 100},
		{"five seconds", true, 5.0, 85},
		{"ten seconds", true, 10, 70},
		{"clamped to zero", true, 40, 0},
		{"incorrect earns nothing", false, 0, 0},
		{"incorrect late earns nothing", false, 120, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertEqual(t, tc.want, Points(tc.correct, tc.elapsed))
		})
	}
}

func TestJoinRejectsDuplicate(t *testing.T) {
	game := newTestGame(t, Options{})

	assertNoError(t, game.Join("alice", &fakeConn{}))

	err := game.Join("alice", &fakeConn{})
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("want ErrNameTaken, got %v", err)
	}
	assertEqual(t, 1, game.Count())
}

func TestJoinRejectsEmptyName(t *testing.T) {
	game := newTestGame(t, Options{})

	if err := game.Join("", &fakeConn{}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("want ErrEmptyName, got %v", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	game := newTestGame(t, Options{})

	assertNoError(t, game.Join("alice", &fakeConn{}))
	game.Remove("alice")
	game.Remove("alice")
	game.Remove("never-joined")

	assertEqual(t, 0, game.Count())
}

func TestLeaderboardOrderingAndTiebreak(t *testing.T) {
	game := newTestGame(t, Options{})

	for _, name := range []string{"carol", "alice", "bob", "dave"} {
		assertNoError(t, game.Join(name, &fakeConn{}))
	}
	game.RecordScore("alice", 70)
	game.RecordScore("bob", 100)
	game.RecordScore("carol", 70)

	want := []api.LeaderboardEntry{
		{Username: "bob", Score: 100},
		{Username: "alice", Score: 70},
		{Username: "carol", Score: 70},
	}
	assertEqual(t, want, game.Leaderboard(3))

	// The tiebreak is deterministic across repeated calls.
	assertEqual(t, game.Leaderboard(3), game.Leaderboard(3))

	full := game.Leaderboard(0)
	assertEqual(t, 4, len(full))
	assertEqual(t, api.LeaderboardEntry{Username: "dave", Score: 0}, full[3])
}

func TestRankOf(t *testing.T) {
	game := newTestGame(t, Options{})

	assertNoError(t, game.Join("alice", &fakeConn{}))
	assertNoError(t, game.Join("bob", &fakeConn{}))
	game.RecordScore("bob", 50)

	assertEqual(t, 1, game.RankOf("bob"))
	assertEqual(t, 2, game.RankOf("alice"))
	assertEqual(t, 0, game.RankOf("nobody"))
}

func TestRecordAnswerOutsideCollectionIgnored(t *testing.T) {
	game := newTestGame(t, Options{})
	assertNoError(t, game.Join("alice", &fakeConn{}))

	// No round is collecting yet.
	assertEqual(t, false, game.RecordAnswer("alice", 1, "B", 1.0))
}

func TestRecordAnswerFirstSubmissionWins(t *testing.T) {
	game := newTestGame(t, Options{})
	assertNoError(t, game.Join("alice", &fakeConn{}))

	game.mu.Lock()
	game.state = StateCollecting
	game.currentID = 1
	game.mu.Unlock()

	assertEqual(t, true, game.RecordAnswer("alice", 1, "A", 1.0))
	assertEqual(t, false, game.RecordAnswer("alice", 1, "B", 2.0))

	game.mu.Lock()
	defer game.mu.Unlock()
	if got := game.answers["alice"]; got != (pendingAnswer{answer: "A", elapsed: 1.0}) {
		t.Fatalf("first submission was not kept: %+v", got)
	}
}

func TestRecordAnswerChecksQuestionAndRegistration(t *testing.T) {
	game := newTestGame(t, Options{})
	assertNoError(t, game.Join("alice", &fakeConn{}))

	game.mu.Lock()
	game.state = StateCollecting
	game.currentID = 2
	game.mu.Unlock()

	assertEqual(t, false, game.RecordAnswer("alice", 1, "B", 1.0))
	assertEqual(t, false, game.RecordAnswer("ghost", 2, "B", 1.0))
	assertEqual(t, true, game.RecordAnswer("alice", 2, "B", 1.0))
}

func TestStartRequiresPlayers(t *testing.T) {
	game := newTestGame(t, Options{})

	if err := game.Start(); !errors.Is(err, ErrNoPlayers) {
		t.Fatalf("want ErrNoPlayers, got %v", err)
	}

	assertNoError(t, game.Join("alice", &fakeConn{}))
	assertNoError(t, game.Start())

	if err := game.Start(); !errors.Is(err, ErrGameStarted) {
		t.Fatalf("want ErrGameStarted, got %v", err)
	}
}

func TestAdvanceOnlyWhileWaiting(t *testing.T) {
	game := newTestGame(t, Options{})

	if err := game.Advance(); !errors.Is(err, ErrNotWaiting) {
		t.Fatalf("want ErrNotWaiting, got %v", err)
	}
}

func TestBroadcastExcludesAndSurvivesFailures(t *testing.T) {
	game := newTestGame(t, Options{})

	alice, bob := &fakeConn{}, &failingConn{}
	assertNoError(t, game.Join("alice", alice))
	assertNoError(t, game.Join("bob", bob))

	game.Broadcast(api.GameStartResponse{Type: api.TypeGameStart}, "")
	game.Broadcast(api.GameStartResponse{Type: api.TypeGameStart}, "alice")

	// bob's failing socket must not have kept alice from the first
	// broadcast, and the exclusion must have kept her from the second.
	assertEqual(t, 1, len(alice.messages()))
}

type failingConn struct{}

func (c *failingConn) WriteJSON(any) error { return errors.New("broken pipe") }
func (c *failingConn) Close() error        { return nil }

func TestSendTo(t *testing.T) {
	game := newTestGame(t, Options{})

	alice := &fakeConn{}
	assertNoError(t, game.Join("alice", alice))

	assertEqual(t, true, game.SendTo("alice", api.JoinedResponse{Type: api.TypeJoined}))
	assertEqual(t, false, game.SendTo("nobody", api.JoinedResponse{Type: api.TypeJoined}))
	assertEqual(t, 1, len(alice.messages()))
}

func TestOperatorToken(t *testing.T) {
	game := newTestGame(t, Options{OperatorSecret: []byte("secret")})

	token, err := game.NewOperatorToken()
	assertNoError(t, err)
	assertNoError(t, game.CheckOperatorToken(token))

	if err := game.CheckOperatorToken("not-a-token"); err == nil {
		t.Fatal("want token validation error")
	}

	other := newTestGame(t, Options{OperatorSecret: []byte("secret")})
	if err := other.CheckOperatorToken(token); err == nil {
		t.Fatal("token from another game must be rejected")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
