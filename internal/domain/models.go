package domain

import "time"

// BattleType distinguishes two-player duels from battle-royale arenas.
type BattleType string

const (
	BattleDuel  BattleType = "duel"
	BattleArena BattleType = "arena"
)

// BattleStatus is the lifecycle state of a battle.
type BattleStatus string

const (
	StatusWaitingForPlayers BattleStatus = "waiting_for_players"
	StatusCountdown         BattleStatus = "countdown"
	StatusActive            BattleStatus = "active"
	StatusBetweenQuestions  BattleStatus = "between_questions"
	StatusCompleted         BattleStatus = "completed"
	StatusCancelled         BattleStatus = "cancelled"
	StatusExpired           BattleStatus = "expired"
)

// Terminal reports whether a battle in this status can no longer advance.
func (s BattleStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusExpired
}

// ChallengeStatus is the lifecycle state of a duel invitation.
type ChallengeStatus string

const (
	ChallengePending  ChallengeStatus = "pending"
	ChallengeAccepted ChallengeStatus = "accepted"
	ChallengeDeclined ChallengeStatus = "declined"
	ChallengeExpired  ChallengeStatus = "expired"
)

// Difficulty selects the question band for generated content.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a single multiple-choice question. CorrectIndex points into
// Options and is never sent to clients while the question is open.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// QuestionView is the client-safe rendering of an open question.
type QuestionView struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// View strips the correct index from a question.
func (q Question) View() QuestionView {
	return QuestionView{Text: q.Text, Options: q.Options}
}

// BattleSettings is the fully-specified configuration of one battle,
// constructed once at creation and never mutated mid-battle.
type BattleSettings struct {
	Topic         string        `json:"topic"`
	Difficulty    Difficulty    `json:"difficulty"`
	QuestionCount int           `json:"questionCount"`
	TimeLimit     time.Duration `json:"timeLimit"`
	SpeedBonus    bool          `json:"speedBonus"`
	StreakBonus   bool          `json:"streakBonus"`
}

// Challenge is a proposed duel awaiting a response from the opponent.
type Challenge struct {
	ID             string          `json:"id"`
	ChallengerID   string          `json:"challengerId"`
	ChallengerName string          `json:"challengerName,omitempty"`
	OpponentID     string          `json:"opponentId"`
	Settings       BattleSettings  `json:"settings"`
	Status         ChallengeStatus `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	ExpiresAt      time.Time       `json:"expiresAt"`
}

// Answer is one player's response to one question. SelectedIndex of -1
// denotes a timeout; TimeTaken is clamped to the question time limit.
type Answer struct {
	QuestionIndex int           `json:"questionIndex"`
	SelectedIndex int           `json:"selectedIndex"`
	Correct       bool          `json:"correct"`
	TimeTaken     time.Duration `json:"timeTaken"`
	Points        int           `json:"points"`
}

// BattlePlayer is per-battle participant state, owned by the battle.
type BattlePlayer struct {
	ID          string
	DisplayName string
	Score       int
	Streak      int
	Answers     map[int]Answer
	Connected   bool
	Ready       bool
}

// Participant identifies a player joining a battle at creation time.
type Participant struct {
	ID          string
	DisplayName string
	SkillLevel  int
}

// MatchmakingEntry is a queued player awaiting an arena match.
type MatchmakingEntry struct {
	PlayerID    string    `json:"playerId"`
	DisplayName string    `json:"displayName"`
	SkillLevel  int       `json:"skillLevel"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// PlayerResult is one player's final standing in a completed battle.
type PlayerResult struct {
	PlayerID    string        `json:"playerId"`
	DisplayName string        `json:"displayName"`
	Rank        int           `json:"rank"`
	Score       int           `json:"score"`
	Correct     int           `json:"correct"`
	Total       int           `json:"total"`
	Accuracy    float64       `json:"accuracy"`
	AvgTime     time.Duration `json:"avgTime"`
}

// BattleResult is the final outcome of a completed battle.
type BattleResult struct {
	BattleID    string         `json:"battleId"`
	Type        BattleType     `json:"type"`
	WinnerID    string         `json:"winnerId,omitempty"`
	IsDraw      bool           `json:"isDraw"`
	Podium      []string       `json:"podium"`
	Standings   []PlayerResult `json:"standings"`
	CompletedAt time.Time      `json:"completedAt"`
}

// RewardInput is the per-player record handed to the XP collaborator.
type RewardInput struct {
	Participated bool    `json:"participated"`
	Won          bool    `json:"won"`
	IsDraw       bool    `json:"isDraw"`
	Accuracy     float64 `json:"accuracy"`
	PerfectScore bool    `json:"perfectScore"`
}

// BattleSnapshot is the durable record emitted on creation and completion.
// Persistence failures never roll back in-memory state.
type BattleSnapshot struct {
	BattleID    string         `json:"battleId"`
	Type        BattleType     `json:"type"`
	Status      BattleStatus   `json:"status"`
	PlayerIDs   []string       `json:"playerIds"`
	Scores      map[string]int `json:"scores"`
	WinnerID    string         `json:"winnerId,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt time.Time      `json:"completedAt,omitempty"`
}

// LeaderboardEntry is a snapshot-friendly view of a player mid-battle.
type LeaderboardEntry struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Streak      int    `json:"streak"`
}
