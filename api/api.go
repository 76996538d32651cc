// Package api declares the wire messages exchanged between the quiz
// server and its clients. Every message travels as one JSON document
// followed by a newline; the "type" field selects the concrete shape.
package api

// Message types sent by clients.
const (
	TypeJoin   = "join"
	TypeAnswer = "answer"
)

// Message types sent by the server.
const (
	TypeJoined      = "joined"
	TypeGameStart   = "game_start"
	TypeQuestion    = "question"
	TypeResult      = "result"
	TypeLeaderboard = "leaderboard"
	TypeWait        = "wait"
	TypeEnd         = "end"
)

type JoinRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

type AnswerRequest struct {
	Type       string  `json:"type"`
	QuestionID int     `json:"question_id"`
	Answer     string  `json:"answer"`
	Time       float64 `json:"time"`
}

type JoinedResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type GameStartResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type QuestionResponse struct {
	Type    string   `json:"type"`
	ID      int      `json:"id"`
	Number  int      `json:"number"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Timeout int      `json:"timeout"`
}

// ResultResponse reports a participant's own outcome for one round.
// YourAnswer is null when no answer arrived before the deadline.
type ResultResponse struct {
	Type       string  `json:"type"`
	Correct    string  `json:"correct"`
	YourAnswer *string `json:"your_answer"`
	IsCorrect  bool    `json:"is_correct"`
	Points     int     `json:"points"`
	TotalScore int     `json:"total_score"`
}

type LeaderboardEntry struct {
	Username string `json:"u"`
	Score    int    `json:"s"`
}

type LeaderboardResponse struct {
	Type string             `json:"type"`
	Top3 []LeaderboardEntry `json:"top3"`
}

type WaitResponse struct {
	Type       string `json:"type"`
	Rank       int    `json:"rank"`
	LastPoints int    `json:"last_points"`
	TotalScore int    `json:"total_score"`
}

// EndResponse closes a game with the complete ranking. Winner is null
// when no participants remain.
type EndResponse struct {
	Type        string             `json:"type"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Winner      *string            `json:"winner"`
}
