// Package quiz implements the trivia game session: the participant
// registry, the scoreboard and the round state machine that drives a
// question sequence over live connections.
package quiz

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"tcpquiz-backend/api"
	"tcpquiz-backend/internal/questions"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// State tracks where a game is in its round lifecycle.
type State int

const (
	StateLobby State = iota
	StateAnnouncing
	StateCollecting
	StateScoring
	StateReporting
	StateWaiting
	StateFinished
)

var stateToString = map[State]string{
	StateLobby:      "lobby",
	StateAnnouncing: "announcing",
	StateCollecting: "collecting",
	StateScoring:    "scoring",
	StateReporting:  "reporting",
	StateWaiting:    "waiting",
	StateFinished:   "finished",
}

func (s State) String() string {
	if str, ok := stateToString[s]; ok {
		return str
	}
	return "unknown"
}

var (
	ErrNameTaken   = errors.New("username already taken")
	ErrEmptyName   = errors.New("username is empty")
	ErrGameStarted = errors.New("game already started")
	ErrNoPlayers   = errors.New("no players registered")
	ErrNotWaiting  = errors.New("no round waiting to advance")
)

// Conn is the write side of a participant connection. The registry
// entry owns it exclusively; no other component writes to the socket.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type player struct {
	score    int
	answered bool
}

type pendingAnswer struct {
	answer  string
	elapsed float64
}

// Options configures a new Game.
type Options struct {
	// Questions is the ordered question sequence. Required.
	Questions []questions.Question

	// AnswerTimeout is the collection window per question.
	// Default is 30 seconds.
	AnswerTimeout time.Duration

	// StartDelay separates the game_start broadcast from the first
	// question. Default is 2 seconds.
	StartDelay time.Duration

	// TopN is the leaderboard size broadcast after each round.
	// Default is 3.
	TopN int

	// OperatorSecret salts the key operator tokens are signed with.
	OperatorSecret []byte
}

// Game holds all mutable state shared between connection handlers and
// the round loop: the connection registry, the scoreboard and the
// current round's answer set. A single mutex guards all of it; no
// network I/O ever happens while it is held.
//
// Multiple goroutines may invoke methods on a Game simultaneously.
type Game struct {
	id         string
	questions  []questions.Question
	timeout    time.Duration
	startDelay time.Duration
	topN       int
	jwtKey     []byte
	created    time.Time

	mu        sync.Mutex
	cond      *sync.Cond // signaled on answers and disconnects
	conns     map[string]Conn
	players   map[string]*player
	answers   map[string]pendingAnswer
	state     State
	currentID int
	started   bool

	startCh   chan struct{}
	advanceCh chan struct{}
	doneCh    chan struct{}
}

// NewGame creates a game over the given question sequence.
func NewGame(opts Options) (*Game, error) {
	if len(opts.Questions) == 0 {
		return nil, errors.New("game has no questions")
	}
	if opts.AnswerTimeout == 0 {
		opts.AnswerTimeout = 30 * time.Second
	}
	if opts.StartDelay == 0 {
		opts.StartDelay = 2 * time.Second
	}
	if opts.TopN == 0 {
		opts.TopN = 3
	}

	id := uuid.NewString()
	created := time.Now()

	g := &Game{
		id:         id,
		questions:  opts.Questions,
		timeout:    opts.AnswerTimeout,
		startDelay: opts.StartDelay,
		topN:       opts.TopN,
		jwtKey:     newGameTokenKey(opts.OperatorSecret, id, created),
		created:    created,
		conns:      map[string]Conn{},
		players:    map[string]*player{},
		answers:    map[string]pendingAnswer{},
		state:      StateLobby,
		startCh:    make(chan struct{}, 1),
		advanceCh:  make(chan struct{}, 1),
		doneCh:     make(chan struct{}),
	}
	g.cond = sync.NewCond(&g.mu)

	return g, nil
}

// ID returns the game's unique id.
func (g *Game) ID() string {
	return g.id
}

// State returns the current round state.
func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Done returns a channel closed once the game has finished.
func (g *Game) Done() <-chan struct{} {
	return g.doneCh
}

// Join registers a participant and its connection. A name already in
// use is rejected; the prior connection keeps its registration.
func (g *Game) Join(username string, conn Conn) error {
	if username == "" {
		return ErrEmptyName
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.conns[username]; exists {
		return ErrNameTaken
	}

	g.conns[username] = conn
	g.players[username] = &player{}

	return nil
}

// Remove unregisters a participant, dropping its connection entry,
// scoreboard record and any pending answer. Removing an absent name
// is a no-op.
func (g *Game) Remove(username string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.conns, username)
	delete(g.players, username)
	delete(g.answers, username)

	// A shrinking registry can complete the "everyone answered"
	// condition, so the collection wait has to re-check.
	g.cond.Broadcast()
}

// Count returns the number of registered participants.
func (g *Game) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conns)
}

// Players returns the registered usernames in lexical order.
func (g *Game) Players() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	names := make([]string, 0, len(g.players))
	for name := range g.players {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Broadcast sends a message to every registered participant except
// exclude. Recipients are snapshotted under the lock and writes
// happen after it is released, so one stuck socket cannot stall
// unrelated joins or answers. Per-connection failures are logged and
// never abort the remaining sends.
func (g *Game) Broadcast(v any, exclude string) {
	g.mu.Lock()
	conns := make(map[string]Conn, len(g.conns))
	for name, conn := range g.conns {
		if name == exclude {
			continue
		}
		conns[name] = conn
	}
	g.mu.Unlock()

	errs := errgroup.Group{}
	for name, conn := range conns {
		name, conn := name, conn
		errs.Go(func() error {
			if err := conn.WriteJSON(v); err != nil {
				slog.Error("broadcast write",
					slog.String("username", name),
					slog.Any("error", err))
			}
			return nil
		})
	}
	_ = errs.Wait()
}

// SendTo sends a message to a single participant. It reports false
// when the name is not registered.
func (g *Game) SendTo(username string, v any) bool {
	g.mu.Lock()
	conn, ok := g.conns[username]
	g.mu.Unlock()

	if !ok {
		return false
	}
	if err := conn.WriteJSON(v); err != nil {
		slog.Error("send",
			slog.String("username", username),
			slog.Any("error", err))
	}
	return true
}

// RecordAnswer stores a participant's answer for the current round.
// It reports whether the answer was accepted: only the first
// submission per round counts, only while the round is collecting and
// only for the question currently on the wire.
func (g *Game) RecordAnswer(username string, questionID int, answer string, elapsed float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateCollecting || questionID != g.currentID {
		return false
	}
	p, registered := g.players[username]
	if !registered {
		return false
	}
	if _, submitted := g.answers[username]; submitted {
		return false
	}

	g.answers[username] = pendingAnswer{answer: answer, elapsed: elapsed}
	p.answered = true
	g.cond.Broadcast()

	return true
}

// RecordScore adds delta to a participant's cumulative score.
func (g *Game) RecordScore(username string, delta int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.players[username]; ok {
		p.score += delta
	}
}

// Leaderboard returns the topN highest-scoring participants, ordered
// by score descending with ties broken by name ascending. A topN of
// zero or less returns the full board.
func (g *Game) Leaderboard(topN int) []api.LeaderboardEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leaderboardLocked(topN)
}

func (g *Game) leaderboardLocked(topN int) []api.LeaderboardEntry {
	board := make([]api.LeaderboardEntry, 0, len(g.players))
	for name, p := range g.players {
		board = append(board, api.LeaderboardEntry{Username: name, Score: p.score})
	}

	sort.Slice(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		return board[i].Username < board[j].Username
	})

	if topN > 0 && len(board) > topN {
		board = board[:topN]
	}

	return board
}

// RankOf returns a participant's 1-based position in the full
// descending-score ordering, or 0 when the name is not registered.
func (g *Game) RankOf(username string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ranksLocked()[username]
}

func (g *Game) ranksLocked() map[string]int {
	board := g.leaderboardLocked(0)
	ranks := make(map[string]int, len(board))
	for i, entry := range board {
		ranks[entry.Username] = i + 1
	}
	return ranks
}

// Start triggers the begin-game signal. It is only valid while no
// round has started and at least one participant is registered.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return ErrGameStarted
	}
	if len(g.conns) == 0 {
		return ErrNoPlayers
	}

	g.started = true
	g.startCh <- struct{}{}

	return nil
}

// Advance signals the round loop to proceed past the Waiting state.
func (g *Game) Advance() error {
	g.mu.Lock()
	if g.state != StateWaiting {
		g.mu.Unlock()
		return ErrNotWaiting
	}
	g.mu.Unlock()

	select {
	case g.advanceCh <- struct{}{}:
		return nil
	default:
		return ErrNotWaiting
	}
}

// Close tears down every live connection. The round loop itself exits
// through its context.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, conn := range g.conns {
		_ = conn.Close()
	}
	g.conns = map[string]Conn{}
	g.players = map[string]*player{}
	g.answers = map[string]pendingAnswer{}
	g.cond.Broadcast()
}
