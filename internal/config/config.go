// Package config loads the server configuration from the environment,
// optionally seeded by a .env file.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type GameConf struct {
	// AnswerTimeout is the collection window for each question.
	AnswerTimeout time.Duration `env:"ANSWER_TIMEOUT" envDefault:"30s"`

	// StartDelay separates the game_start broadcast from the first
	// question.
	StartDelay time.Duration `env:"START_DELAY" envDefault:"2s"`

	// LeaderboardSize is the number of entries broadcast after each
	// round.
	LeaderboardSize int `env:"LEADERBOARD_SIZE" envDefault:"3"`

	// ReadLimit caps a single inbound protocol line.
	ReadLimit int `env:"READ_LIMIT" envDefault:"8192"`
}

type Config struct {
	ListenAddr     string   `env:"LISTEN_ADDR" envDefault:":8888"`
	AdminAddr      string   `env:"ADMIN_ADDR" envDefault:":8080"`
	OperatorSecret []byte   `env:"-"`
	QuestionsPath  string   `env:"QUESTIONS_PATH"`
	Game           GameConf `envPrefix:"GAME_"`
}

// LoadConfig reads an optional .env file and parses the QUIZ_*
// environment into a Config. A missing .env file is not an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "QUIZ_"}); err != nil {
		return Config{}, err
	}
	cfg.OperatorSecret = []byte(os.Getenv("QUIZ_OPERATOR_SECRET"))

	return cfg, nil
}
