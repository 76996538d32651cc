// Package questions provides the ordered question bank consumed by a
// game session.
package questions

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Question is one immutable quiz question. Correct holds the option
// token ("A".."D") answers are compared against.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Correct string   `json:"correct"`
}

// LoadFile reads an ordered question list from a JSON file.
func LoadFile(path string) ([]Question, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var qs []Question
	if err := json.Unmarshal(b, &qs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("%s holds no questions", path)
	}

	return qs, nil
}

// Load returns the question bank at path, or the built-in default set
// when path is empty or unreadable. A bad question file is never
// fatal to startup.
func Load(path string) []Question {
	if path == "" {
		return Default()
	}

	qs, err := LoadFile(path)
	if err != nil {
		slog.Warn("falling back to default questions",
			slog.String("path", path),
			slog.Any("error", err))
		return Default()
	}

	slog.Info("loaded questions",
		slog.String("path", path),
		slog.Int("count", len(qs)))

	return qs
}

// Default returns the built-in TCP trivia set.
func Default() []Question {
	return []Question{
		{
			ID:   1,
			Text: "What does TCP stand for?",
			Options: []string{
				"A) Transfer Control Protocol", "B) Transmission Control Protocol",
				"C) Transport Communication Protocol", "D) Technical Computer Protocol",
			},
			Correct: "B",
		},
		{
			ID:      2,
			Text:    "Which layer of OSI model does TCP operate?",
			Options: []string{"A) Physical", "B) Network", "C) Transport", "D) Application"},
			Correct: "C",
		},
		{
			ID:      3,
			Text:    "What is the maximum size of TCP header?",
			Options: []string{"A) 20 bytes", "B) 40 bytes", "C) 60 bytes", "D) 80 bytes"},
			Correct: "C",
		},
		{
			ID:      4,
			Text:    "TCP is a _____ protocol",
			Options: []string{"A) Connectionless", "B) Connection-oriented", "C) Stateless", "D) Unreliable"},
			Correct: "B",
		},
		{
			ID:      5,
			Text:    "Which algorithm does TCP use for congestion control?",
			Options: []string{"A) Dijkstra", "B) Bellman-Ford", "C) Slow Start", "D) Quick Sort"},
			Correct: "C",
		},
		{
			ID:      6,
			Text:    "What is the default TCP window size?",
			Options: []string{"A) 32 KB", "B) 64 KB", "C) 128 KB", "D) 256 KB"},
			Correct: "B",
		},
		{
			ID:      7,
			Text:    "TCP uses _____ to ensure reliable delivery",
			Options: []string{"A) Acknowledgments", "B) Broadcasts", "C) Multicasts", "D) Floods"},
			Correct: "A",
		},
		{
			ID:      8,
			Text:    "What is the three-way handshake?",
			Options: []string{"A) SYN, ACK, FIN", "B) SYN, SYN-ACK, ACK", "C) ACK, SYN, FIN", "D) FIN, ACK, SYN"},
			Correct: "B",
		},
		{
			ID:      9,
			Text:    "Which port number range is for well-known services?",
			Options: []string{"A) 0-1023", "B) 1024-49151", "C) 49152-65535", "D) All of above"},
			Correct: "A",
		},
		{
			ID:      10,
			Text:    "TCP provides _____ delivery of data",
			Options: []string{"A) Ordered", "B) Unordered", "C) Random", "D) Partial"},
			Correct: "A",
		},
	}
}
