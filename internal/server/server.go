// Package server accepts TCP connections and runs the per-connection
// read loop feeding inbound protocol messages into the game.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"tcpquiz-backend/api"
	"tcpquiz-backend/internal/protocol"
	"tcpquiz-backend/internal/quiz"

	"github.com/lithammer/shortuuid/v3"
)

type Server struct {
	game      *quiz.Game
	readLimit int
}

// New returns a server pushing inbound messages into game. readLimit
// caps a single protocol line; zero uses the protocol default.
func New(game *quiz.Game, readLimit int) *Server {
	return &Server{
		game:      game,
		readLimit: readLimit,
	}
}

// Serve accepts connections on lis until ctx is canceled. Every
// connection gets its own handler goroutine.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		_ = lis.Close()
	})
	defer stop()

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

// handleConn is the single reader for one connection. It dispatches a
// join before anything else, then answers for the rest of the
// connection's lifetime. On stream close or read error the
// participant is unregistered and the handler exits.
func (s *Server) handleConn(nc net.Conn) {
	conn := protocol.NewConn(nc)
	log := slog.With(
		slog.String("conn", shortuuid.New()[:5]),
		slog.String("remote", nc.RemoteAddr().String()))
	log.Info("connection accepted")

	var username string
	defer func() {
		if username != "" {
			s.game.Remove(username)
			log.Info("player disconnected",
				slog.String("username", username),
				slog.Int("players", s.game.Count()))
		}
		_ = conn.Close()
	}()

	dec := protocol.Decoder{MaxLineBytes: s.readLimit}
	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Debug("read error", slog.Any("error", err))
			}
			return
		}

		for _, msg := range dec.Feed(buf[:n]) {
			switch msg.Type {
			case api.TypeJoin:
				if username != "" {
					continue
				}
				username = s.handleJoin(log, conn, msg.Raw)
			case api.TypeAnswer:
				if username == "" {
					continue
				}
				s.handleAnswer(log, username, msg.Raw)
			default:
				// Unknown message types are dropped; the
				// connection lives on.
			}
		}
	}
}

// handleJoin registers the participant and sends the welcome message.
// It returns the accepted username, or "" when the join was dropped:
// the connection then stays unregistered and may try again.
func (s *Server) handleJoin(log *slog.Logger, conn *protocol.Conn, raw json.RawMessage) string {
	var req api.JoinRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Debug("malformed join dropped", slog.Any("error", err))
		return ""
	}

	if err := s.game.Join(req.Username, conn); err != nil {
		log.Warn("join rejected",
			slog.String("username", req.Username),
			slog.Any("error", err))
		return ""
	}

	res := api.JoinedResponse{
		Type:    api.TypeJoined,
		Message: fmt.Sprintf("Welcome %s! Waiting for game to start...", req.Username),
	}
	if err := conn.WriteJSON(res); err != nil {
		log.Error("joined response write", slog.Any("error", err))
	}

	log.Info("player joined",
		slog.String("username", req.Username),
		slog.Int("players", s.game.Count()))

	return req.Username
}

func (s *Server) handleAnswer(log *slog.Logger, username string, raw json.RawMessage) {
	var req api.AnswerRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Debug("malformed answer dropped", slog.Any("error", err))
		return
	}

	if s.game.RecordAnswer(username, req.QuestionID, req.Answer, req.Time) {
		log.Debug("answer recorded",
			slog.String("username", username),
			slog.Int("question", req.QuestionID),
			slog.String("answer", req.Answer))
	}
}
