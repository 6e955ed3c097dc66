package app

import (
	"sort"
	"sync"
	"time"

	"quiz-battle-service/internal/domain"
)

// BattleConfig fully specifies a battle at creation time. Timings and bonus
// switches are fixed here and never mutated mid-battle.
type BattleConfig struct {
	ID               string
	Type             domain.BattleType
	Settings         domain.BattleSettings
	Questions        []domain.Question
	Participants     []domain.Participant
	CountdownTicks   int
	BetweenQuestions time.Duration

	// Publish receives every event the battle emits. Must not block.
	Publish func(domain.Event)
	// OnFinish runs once after the battle reaches completed, off the battle lock.
	OnFinish func(*Battle, domain.BattleResult)

	// clock and tickInterval are test seams; zero values mean real time.
	clock        func() time.Time
	tickInterval time.Duration
}

// Battle drives one match through countdown, the question loop, and
// completion. All mutable state is guarded by a per-battle mutex; timers are
// cancellable and their callbacks re-check state so a timer racing cleanup
// degrades to a no-op.
type Battle struct {
	id           string
	btype        domain.BattleType
	settings     domain.BattleSettings
	questions    []domain.Question
	countdown    int
	betweenDelay time.Duration
	tick         time.Duration
	now          func() time.Time
	publish      func(domain.Event)
	onFinish     func(*Battle, domain.BattleResult)

	mu               sync.Mutex
	status           domain.BattleStatus
	players          map[string]*domain.BattlePlayer
	order            []string
	current          int
	questionOpenedAt time.Time
	questionClosed   bool
	questionTimer    *time.Timer
	advanceTimer     *time.Timer
	createdAt        time.Time
	startedAt        time.Time
	completedAt      time.Time
	lastProgress     time.Time
	result           *domain.BattleResult
}

// NewBattle builds a battle in waiting_for_players with the question index
// before the first question.
func NewBattle(cfg BattleConfig) *Battle {
	clock := cfg.clock
	if clock == nil {
		clock = time.Now
	}
	tick := cfg.tickInterval
	if tick == 0 {
		tick = time.Second
	}
	publish := cfg.Publish
	if publish == nil {
		publish = func(domain.Event) {}
	}

	b := &Battle{
		id:           cfg.ID,
		btype:        cfg.Type,
		settings:     cfg.Settings,
		questions:    cfg.Questions,
		countdown:    cfg.CountdownTicks,
		betweenDelay: cfg.BetweenQuestions,
		tick:         tick,
		now:          clock,
		publish:      publish,
		onFinish:     cfg.OnFinish,
		status:       domain.StatusWaitingForPlayers,
		players:      make(map[string]*domain.BattlePlayer, len(cfg.Participants)),
		current:      -1,
	}
	b.createdAt = clock()
	b.lastProgress = b.createdAt
	for _, p := range cfg.Participants {
		b.players[p.ID] = &domain.BattlePlayer{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Answers:     make(map[int]domain.Answer),
			Connected:   true,
		}
		b.order = append(b.order, p.ID)
	}
	return b
}

func (b *Battle) ID() string                      { return b.id }
func (b *Battle) Type() domain.BattleType         { return b.btype }
func (b *Battle) Settings() domain.BattleSettings { return b.settings }

// PlayerIDs returns the participants in join order.
func (b *Battle) PlayerIDs() []string {
	ids := make([]string, len(b.order))
	copy(ids, b.order)
	return ids
}

// HasPlayer reports membership without exposing player state.
func (b *Battle) HasPlayer(playerID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.players[playerID]
	return ok
}

func (b *Battle) Status() domain.BattleStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *Battle) CurrentQuestion() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Result returns the final result once the battle has completed.
func (b *Battle) Result() (domain.BattleResult, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result == nil {
		return domain.BattleResult{}, false
	}
	return *b.result, true
}

// SetConnected flips a participant's connection flag. Disconnected players
// keep their seat; their unanswered questions simply time out.
func (b *Battle) SetConnected(playerID string, connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p, ok := b.players[playerID]; ok {
		p.Connected = connected
	}
}

// StaleSince reports whether the battle has made no progress since the
// given threshold and is not yet terminal.
func (b *Battle) StaleSince(threshold time.Duration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.status.Terminal() && b.now().Sub(b.lastProgress) > threshold
}

// Snapshot produces the durable record for the persistence collaborator.
func (b *Battle) Snapshot() domain.BattleSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := domain.BattleSnapshot{
		BattleID:    b.id,
		Type:        b.btype,
		Status:      b.status,
		PlayerIDs:   append([]string(nil), b.order...),
		Scores:      make(map[string]int, len(b.players)),
		CreatedAt:   b.createdAt,
		CompletedAt: b.completedAt,
	}
	for id, p := range b.players {
		snap.Scores[id] = p.Score
	}
	if b.result != nil {
		snap.WinnerID = b.result.WinnerID
	}
	return snap
}

// Start moves the battle from waiting_for_players into the countdown. Both
// duels and arenas proceed automatically; matchmaking and challenge accept
// already selected willing participants.
func (b *Battle) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != domain.StatusWaitingForPlayers {
		return
	}
	b.status = domain.StatusCountdown
	b.startedAt = b.now()
	b.lastProgress = b.startedAt
	b.countdownLocked(b.countdown)
}

func (b *Battle) countdownLocked(remaining int) {
	b.emitLocked(domain.EventBattleCountdown, domain.CountdownPayload{Tick: remaining})
	if remaining <= 0 {
		b.openQuestionLocked(0)
		return
	}
	b.advanceTimer = time.AfterFunc(b.tick, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.status != domain.StatusCountdown {
			return
		}
		b.countdownLocked(remaining - 1)
	})
}

func (b *Battle) openQuestionLocked(index int) {
	b.status = domain.StatusActive
	b.current = index
	b.questionClosed = false
	b.questionOpenedAt = b.now()
	b.lastProgress = b.questionOpenedAt

	// A skipped previous question breaks the streak.
	if index > 0 {
		for _, p := range b.players {
			if _, answered := p.Answers[index-1]; !answered {
				p.Streak = 0
			}
		}
	}

	b.questionTimer = time.AfterFunc(b.settings.TimeLimit, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.status != domain.StatusActive || b.current != index || b.questionClosed {
			return
		}
		b.closeQuestionLocked(index)
	})

	b.emitLocked(domain.EventQuestionStarted, domain.QuestionStartedPayload{
		Question:  b.questions[index].View(),
		Number:    index + 1,
		Total:     len(b.questions),
		TimeLimit: b.settings.TimeLimit.Milliseconds(),
	})
}

// Submit records one player's answer to the question at questionIndex.
// The duplicate check and the record happen inside the same critical
// section; late submissions are rejected, never silently dropped.
func (b *Battle) Submit(playerID string, questionIndex, selectedIndex int) (domain.Answer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status != domain.StatusActive || b.questionClosed {
		return domain.Answer{}, domain.ErrInvalidState
	}
	if questionIndex != b.current {
		return domain.Answer{}, domain.ErrInvalidState
	}
	player, ok := b.players[playerID]
	if !ok {
		return domain.Answer{}, domain.ErrPlayerNotFound
	}
	if _, dup := player.Answers[questionIndex]; dup {
		return domain.Answer{}, domain.ErrAlreadyAnswered
	}
	if selectedIndex < 0 || selectedIndex >= len(b.questions[questionIndex].Options) {
		selectedIndex = TimeoutAnswer
	}

	elapsed := clampTimeTaken(b.now().Sub(b.questionOpenedAt), b.settings.TimeLimit)
	correct, points := Score(b.questions[questionIndex], selectedIndex, elapsed, b.settings.TimeLimit, player.Streak, b.settings)

	answer := domain.Answer{
		QuestionIndex: questionIndex,
		SelectedIndex: selectedIndex,
		Correct:       correct,
		TimeTaken:     elapsed,
		Points:        points,
	}
	player.Answers[questionIndex] = answer
	player.Score += points
	if correct {
		player.Streak++
	} else {
		player.Streak = 0
	}

	if b.allAnsweredLocked(questionIndex) {
		b.closeQuestionLocked(questionIndex)
	}
	return answer, nil
}

func (b *Battle) allAnsweredLocked(index int) bool {
	for _, id := range b.order {
		if _, ok := b.players[id].Answers[index]; !ok {
			return false
		}
	}
	return true
}

// closeQuestionLocked is the single authoritative "close exactly once"
// point. Both the timeout callback and the all-answered path funnel here
// after checking questionClosed under the battle lock.
func (b *Battle) closeQuestionLocked(index int) {
	b.questionClosed = true
	if b.questionTimer != nil {
		b.questionTimer.Stop()
		b.questionTimer = nil
	}

	// Players who never submitted get a timeout answer and lose their streak.
	for _, id := range b.order {
		p := b.players[id]
		if _, ok := p.Answers[index]; ok {
			continue
		}
		p.Answers[index] = domain.Answer{
			QuestionIndex: index,
			SelectedIndex: TimeoutAnswer,
			TimeTaken:     b.settings.TimeLimit,
		}
		p.Streak = 0
	}

	b.status = domain.StatusBetweenQuestions
	b.lastProgress = b.now()

	results := make([]domain.AnswerOutcome, 0, len(b.order))
	for _, id := range b.order {
		a := b.players[id].Answers[index]
		results = append(results, domain.AnswerOutcome{
			PlayerID:      id,
			SelectedIndex: a.SelectedIndex,
			Correct:       a.Correct,
			Points:        a.Points,
			TimeTakenMs:   a.TimeTaken.Milliseconds(),
		})
	}
	b.emitLocked(domain.EventQuestionResults, domain.QuestionResultsPayload{
		QuestionIndex: index,
		CorrectIndex:  b.questions[index].CorrectIndex,
		Explanation:   b.questions[index].Explanation,
		Results:       results,
		Leaderboard:   b.leaderboardLocked(),
	})

	b.advanceTimer = time.AfterFunc(b.betweenDelay, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.status != domain.StatusBetweenQuestions || b.current != index {
			return
		}
		if index == len(b.questions)-1 {
			b.completeLocked()
			return
		}
		b.openQuestionLocked(index + 1)
	})
}

func (b *Battle) completeLocked() {
	if b.status.Terminal() {
		return
	}
	b.status = domain.StatusCompleted
	b.completedAt = b.now()
	b.lastProgress = b.completedAt

	players := make([]*domain.BattlePlayer, 0, len(b.order))
	for _, id := range b.order {
		players = append(players, b.players[id])
	}
	result := computeStandings(b.id, b.btype, players, len(b.questions), b.settings.TimeLimit, b.completedAt)
	b.result = &result

	b.emitLocked(domain.EventBattleComplete, domain.BattleCompletePayload{Result: result})
	if b.onFinish != nil {
		go b.onFinish(b, result)
	}
}

// ForceEnd terminates a non-terminal battle (administrative action or stale
// sweep), cancelling any armed timers. Reports whether it transitioned.
func (b *Battle) ForceEnd(status domain.BattleStatus, reason string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status.Terminal() {
		return false
	}
	if b.questionTimer != nil {
		b.questionTimer.Stop()
		b.questionTimer = nil
	}
	if b.advanceTimer != nil {
		b.advanceTimer.Stop()
		b.advanceTimer = nil
	}
	b.status = status
	b.completedAt = b.now()
	b.lastProgress = b.completedAt
	b.emitLocked(domain.EventBattleCancelled, domain.BattleCancelledPayload{Status: status, Reason: reason})
	return true
}

// PlayerAnswers returns a player's recorded answers ordered by question index.
func (b *Battle) PlayerAnswers(playerID string) ([]domain.Answer, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.players[playerID]
	if !ok {
		return nil, false
	}
	answers := make([]domain.Answer, 0, len(p.Answers))
	for _, a := range p.Answers {
		answers = append(answers, a)
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].QuestionIndex < answers[j].QuestionIndex })
	return answers, true
}

// Question exposes one question for post-battle recomputation.
func (b *Battle) Question(index int) (domain.Question, bool) {
	if index < 0 || index >= len(b.questions) {
		return domain.Question{}, false
	}
	return b.questions[index], true
}

// Leaderboard returns the current scoreboard ordered by score.
func (b *Battle) Leaderboard() []domain.LeaderboardEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.leaderboardLocked()
}

func (b *Battle) leaderboardLocked() []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(b.order))
	for _, id := range b.order {
		p := b.players[id]
		entries = append(entries, domain.LeaderboardEntry{
			PlayerID:    p.ID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
			Streak:      p.Streak,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	return entries
}

func (b *Battle) emitLocked(eventType domain.EventType, payload any) {
	b.publish(domain.Event{
		Type:      eventType,
		BattleID:  b.id,
		Timestamp: b.now(),
		Payload:   payload,
	})
}
