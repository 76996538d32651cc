package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tcpquiz-backend/internal/config"
	"tcpquiz-backend/internal/handlers"
	"tcpquiz-backend/internal/logging"
	"tcpquiz-backend/internal/middleware"
	"tcpquiz-backend/internal/questions"
	"tcpquiz-backend/internal/quiz"
	"tcpquiz-backend/internal/server"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		envPath       = pflag.String("env", "", "path to a .env config file")
		listenAddr    = pflag.String("addr", "", "TCP listen address override")
		adminAddr     = pflag.String("admin-addr", "", "admin HTTP listen address override")
		questionsPath = pflag.String("questions", "", "path to a JSON question bank override")
		debug         = pflag.Bool("debug", false, "enable debug logging")
	)
	pflag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(logging.NewHandler(os.Stdout, level)))

	cfg, err := config.LoadConfig(*envPath)
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *adminAddr != "" {
		cfg.AdminAddr = *adminAddr
	}
	if *questionsPath != "" {
		cfg.QuestionsPath = *questionsPath
	}

	game, err := quiz.NewGame(quiz.Options{
		Questions:      questions.Load(cfg.QuestionsPath),
		AnswerTimeout:  cfg.Game.AnswerTimeout,
		StartDelay:     cfg.Game.StartDelay,
		TopN:           cfg.Game.LeaderboardSize,
		OperatorSecret: cfg.OperatorSecret,
	})
	if err != nil {
		slog.Error("new game", slog.Any("error", err))
		os.Exit(1)
	}

	token, err := game.NewOperatorToken()
	if err != nil {
		slog.Error("operator token", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("operator token issued", slog.String("token", token))

	// Failing to bind a listener is the only fatal startup error.
	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		slog.Error("listen", slog.String("addr", cfg.ListenAddr), slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("listening for players", slog.String("addr", lis.Addr().String()))

	mux := http.NewServeMux()
	mux.Handle("POST /game/start", middleware.ApplyDefaults(handlers.StartHandler(game)))
	mux.Handle("POST /game/next", middleware.ApplyDefaults(handlers.NextHandler(game)))
	mux.Handle("GET /game/leaderboard", middleware.ApplyDefaults(handlers.LeaderboardHandler(game)))

	admin := &http.Server{
		Addr:         cfg.AdminAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.New(game, cfg.Game.ReadLimit).Serve(ctx, lis)
	})
	g.Go(func() error {
		return game.Run(ctx)
	})
	g.Go(func() error {
		slog.Info("admin endpoint up", slog.String("addr", admin.Addr))
		if err := admin.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		game.Close()
		return admin.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("server stopped")
}
