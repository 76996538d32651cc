package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tcpquiz-backend/api"
	"tcpquiz-backend/internal/questions"
)

// Run drives the whole session: it blocks until the operator's begin
// signal, plays every question as one round and finishes with the
// end-of-game broadcast. It returns when the session completes or ctx
// is canceled.
func (g *Game) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.startCh:
	}

	slog.Info("game starting",
		slog.String("game", g.id),
		slog.Int("players", g.Count()))

	g.Broadcast(api.GameStartResponse{
		Type:    api.TypeGameStart,
		Message: "Game is starting!",
	}, "")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(g.startDelay):
	}

	for i, q := range g.questions {
		if err := g.runRound(ctx, i+1, q); err != nil {
			return err
		}
	}

	g.finish()

	return nil
}

// runRound plays a single question: announce, collect under the
// deadline, score from one atomic snapshot, report, then hold until
// the operator advances.
func (g *Game) runRound(ctx context.Context, number int, q questions.Question) error {
	g.mu.Lock()
	g.state = StateAnnouncing
	g.answers = map[string]pendingAnswer{}
	for _, p := range g.players {
		p.answered = false
	}
	g.currentID = q.ID
	// Drop a stale advance signal left over from a racing operator.
	select {
	case <-g.advanceCh:
	default:
	}
	// The collection window opens in the same critical section that
	// clears the round: no answer is accepted before the reset
	// completes, and none can be lost after the announcement.
	g.state = StateCollecting
	g.mu.Unlock()

	slog.Info("question announced",
		slog.String("game", g.id),
		slog.Int("number", number),
		slog.Int("id", q.ID))

	g.Broadcast(api.QuestionResponse{
		Type:    api.TypeQuestion,
		ID:      q.ID,
		Number:  number,
		Text:    q.Text,
		Options: q.Options,
		Timeout: int(g.timeout.Seconds()),
	}, "")

	g.collectAnswers(ctx)

	lastPoints := g.scoreRound(q)

	g.Broadcast(api.LeaderboardResponse{
		Type: api.TypeLeaderboard,
		Top3: g.Leaderboard(g.topN),
	}, "")

	g.sendWaitMessages(lastPoints)

	g.mu.Lock()
	g.state = StateWaiting
	g.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.advanceCh:
	}

	return nil
}

// collectAnswers blocks until every registered participant has
// answered or the collection deadline passes, whichever comes first.
// The wait is event-driven: RecordAnswer and Remove signal the
// condition, the deadline timer and ctx cancellation wake it too.
func (g *Game) collectAnswers(ctx context.Context) {
	deadline := time.Now().Add(g.timeout)
	timer := time.AfterFunc(g.timeout, g.cond.Broadcast)
	defer timer.Stop()
	stop := context.AfterFunc(ctx, g.cond.Broadcast)
	defer stop()

	g.mu.Lock()
	defer g.mu.Unlock()

	for ctx.Err() == nil && time.Now().Before(deadline) {
		if len(g.answers) >= len(g.conns) {
			break
		}
		g.cond.Wait()
	}
	g.state = StateScoring
}

type outbound struct {
	conn Conn
	msg  any
}

// scoreRound scores every registered participant from one atomic
// snapshot and sends each its individual result. No result leaves
// before the whole pass has completed and the lock is released, so a
// participant can never observe its own result ahead of a last-instant
// answer being accounted. It returns the points earned this round per
// participant.
func (g *Game) scoreRound(q questions.Question) map[string]int {
	g.mu.Lock()

	lastPoints := make(map[string]int, len(g.players))
	sends := make([]outbound, 0, len(g.players))

	for username, p := range g.players {
		var (
			yourAnswer *string
			correct    bool
			points     int
		)
		if pa, ok := g.answers[username]; ok {
			answer := pa.answer
			yourAnswer = &answer
			correct = pa.answer == q.Correct
			points = Points(correct, pa.elapsed)
		}

		p.score += points
		lastPoints[username] = points

		sends = append(sends, outbound{
			conn: g.conns[username],
			msg: api.ResultResponse{
				Type:       api.TypeResult,
				Correct:    q.Correct,
				YourAnswer: yourAnswer,
				IsCorrect:  correct,
				Points:     points,
				TotalScore: p.score,
			},
		})
	}

	answered := len(g.answers)
	g.state = StateReporting
	g.mu.Unlock()

	slog.Info("round scored",
		slog.String("game", g.id),
		slog.Int("id", q.ID),
		slog.Int("answered", answered),
		slog.Int("players", len(sends)))

	for _, s := range sends {
		if err := s.conn.WriteJSON(s.msg); err != nil {
			slog.Error("result write", slog.Any("error", err))
		}
	}

	return lastPoints
}

// sendWaitMessages tells each participant its rank, the points it
// just earned and its running total.
func (g *Game) sendWaitMessages(lastPoints map[string]int) {
	g.mu.Lock()

	ranks := g.ranksLocked()
	sends := make([]outbound, 0, len(g.players))
	for username, p := range g.players {
		sends = append(sends, outbound{
			conn: g.conns[username],
			msg: api.WaitResponse{
				Type:       api.TypeWait,
				Rank:       ranks[username],
				LastPoints: lastPoints[username],
				TotalScore: p.score,
			},
		})
	}

	g.mu.Unlock()

	for _, s := range sends {
		if err := s.conn.WriteJSON(s.msg); err != nil {
			slog.Error("wait write", slog.Any("error", err))
		}
	}
}

// finish broadcasts the final ranking and closes the game.
func (g *Game) finish() {
	g.mu.Lock()
	g.state = StateFinished
	board := g.leaderboardLocked(0)
	g.mu.Unlock()

	var winner *string
	if len(board) > 0 {
		winner = &board[0].Username
	}

	g.Broadcast(api.EndResponse{
		Type:        api.TypeEnd,
		Leaderboard: board,
		Winner:      winner,
	}, "")

	if winner != nil {
		slog.Info("game over",
			slog.String("game", g.id),
			slog.String("winner", fmt.Sprintf("%s (%d pts)", board[0].Username, board[0].Score)))
	} else {
		slog.Info("game over with no participants left", slog.String("game", g.id))
	}

	close(g.doneCh)
}
