package domain

import "time"

// EventType names the discrete events the engine emits to the UI layer.
type EventType string

const (
	EventChallengeCreated  EventType = "challenge_created"
	EventChallengeAccepted EventType = "challenge_accepted"
	EventChallengeDeclined EventType = "challenge_declined"
	EventChallengeExpired  EventType = "challenge_expired"
	EventBattleCountdown   EventType = "battle_countdown"
	EventQuestionStarted   EventType = "question_started"
	EventQuestionResults   EventType = "question_results"
	EventBattleComplete    EventType = "battle_complete"
	EventBattleCancelled   EventType = "battle_cancelled"
)

// Event is a timestamped notification published to subscribers. The engine
// never depends on how or whether events are rendered.
type Event struct {
	Type      EventType `json:"type"`
	BattleID  string    `json:"battleId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// ChallengePayload accompanies the challenge lifecycle events.
type ChallengePayload struct {
	Challenge Challenge `json:"challenge"`
	BattleID  string    `json:"battleId,omitempty"`
}

// CountdownPayload carries one pre-battle countdown tick.
type CountdownPayload struct {
	Tick int `json:"tick"`
}

// QuestionStartedPayload announces an open question without its correct index.
type QuestionStartedPayload struct {
	Question  QuestionView `json:"question"`
	Number    int          `json:"number"`
	Total     int          `json:"total"`
	TimeLimit int64        `json:"timeLimitMs"`
}

// AnswerOutcome is one player's result for a just-closed question.
type AnswerOutcome struct {
	PlayerID      string `json:"playerId"`
	SelectedIndex int    `json:"selectedIndex"`
	Correct       bool   `json:"correct"`
	Points        int    `json:"points"`
	TimeTakenMs   int64  `json:"timeTakenMs"`
}

// QuestionResultsPayload exposes per-question results and the running leaderboard.
type QuestionResultsPayload struct {
	QuestionIndex int                `json:"questionIndex"`
	CorrectIndex  int                `json:"correctIndex"`
	Explanation   string             `json:"explanation,omitempty"`
	Results       []AnswerOutcome    `json:"results"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
}

// BattleCompletePayload carries the final result of a battle.
type BattleCompletePayload struct {
	Result BattleResult `json:"result"`
}

// BattleCancelledPayload is emitted when a battle is force-ended or goes stale.
type BattleCancelledPayload struct {
	Status BattleStatus `json:"status"`
	Reason string       `json:"reason,omitempty"`
}
