package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"quiz-battle-service/internal/domain"
)

// BattleRegistry is the process-wide index from battle ID to battle and
// player ID to battle. Register must be atomic with respect to the
// "already in a battle" check to keep at most one battle per player.
type BattleRegistry interface {
	Register(b *Battle) error
	Get(battleID string) (*Battle, bool)
	ForPlayer(playerID string) (*Battle, bool)
	Release(battleID string)
	All() []*Battle
}

// BattleArchiver durably records battle snapshots on creation and
// completion. Failures must not affect in-memory battle state.
type BattleArchiver interface {
	Save(ctx context.Context, snap domain.BattleSnapshot) error
}

// ServiceConfig fixes the engine's timings and sizes. Zero values are
// replaced by defaults.
type ServiceConfig struct {
	ChallengeTTL     time.Duration
	CountdownTicks   int
	CountdownTick    time.Duration
	BetweenQuestions time.Duration
	DefaultTimeLimit time.Duration
	StaleAfter       time.Duration
	ArenaMinPlayers  int
	ArenaMaxPlayers  int
	ArenaTopic       string
	ArenaQuestions   int
}

func (c *ServiceConfig) applyDefaults() {
	if c.ChallengeTTL == 0 {
		c.ChallengeTTL = 5 * time.Minute
	}
	if c.CountdownTicks == 0 {
		c.CountdownTicks = 5
	}
	if c.CountdownTick == 0 {
		c.CountdownTick = time.Second
	}
	if c.BetweenQuestions == 0 {
		c.BetweenQuestions = 3 * time.Second
	}
	if c.DefaultTimeLimit == 0 {
		c.DefaultTimeLimit = 15 * time.Second
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = 15 * time.Minute
	}
	if c.ArenaMinPlayers == 0 {
		c.ArenaMinPlayers = 4
	}
	if c.ArenaMaxPlayers == 0 {
		c.ArenaMaxPlayers = 8
	}
	if c.ArenaTopic == "" {
		c.ArenaTopic = "general knowledge"
	}
	if c.ArenaQuestions == 0 {
		c.ArenaQuestions = 5
	}
}

// BattleService wires negotiation, matchmaking, the battle state machine,
// the session registry and the downstream collaborators together.
type BattleService struct {
	registry   BattleRegistry
	questions  QuestionProvider
	negotiator *ChallengeNegotiator
	queue      *MatchmakingQueue
	hub        *eventHub
	archiver   BattleArchiver
	rewards    RewardSink
	cfg        ServiceConfig
}

func NewBattleService(registry BattleRegistry, questions QuestionProvider, archiver BattleArchiver, rewards RewardSink, cfg ServiceConfig) *BattleService {
	cfg.applyDefaults()
	if rewards == nil {
		rewards = LogRewardSink{}
	}
	return &BattleService{
		registry:   registry,
		questions:  questions,
		negotiator: NewChallengeNegotiator(cfg.ChallengeTTL),
		queue:      NewMatchmakingQueue(cfg.ArenaMinPlayers, cfg.ArenaMaxPlayers),
		hub:        newEventHub(),
		archiver:   archiver,
		rewards:    rewards,
		cfg:        cfg,
	}
}

// Subscribe returns the event stream addressed to one player. The caller
// must invoke the cancel function to avoid leaks.
func (s *BattleService) Subscribe(playerID string) (<-chan domain.Event, func()) {
	return s.hub.Subscribe(playerID)
}

// ProposeChallenge creates a pending duel invitation. Either party already
// being in an active battle makes the target invalid.
func (s *BattleService) ProposeChallenge(challenger domain.Participant, opponentID string, settings domain.BattleSettings) (domain.Challenge, error) {
	if _, busy := s.registry.ForPlayer(challenger.ID); busy {
		return domain.Challenge{}, domain.ErrInvalidTarget
	}
	if _, busy := s.registry.ForPlayer(opponentID); busy {
		return domain.Challenge{}, domain.ErrInvalidTarget
	}
	if settings.TimeLimit == 0 {
		settings.TimeLimit = s.cfg.DefaultTimeLimit
	}

	challenge, err := s.negotiator.Propose(challenger, opponentID, settings)
	if err != nil {
		return domain.Challenge{}, err
	}
	s.publishChallenge(domain.EventChallengeCreated, challenge, "")
	return challenge, nil
}

// AcceptChallenge resolves a pending challenge and creates the duel. On
// success both players are registered and the countdown begins.
func (s *BattleService) AcceptChallenge(ctx context.Context, challengeID string, accepter domain.Participant) (*Battle, error) {
	challenge, err := s.negotiator.Accept(challengeID, accepter.ID)
	if err != nil {
		return nil, err
	}

	participants := []domain.Participant{
		{ID: challenge.ChallengerID, DisplayName: challenge.ChallengerName},
		accepter,
	}
	battle, err := s.createBattle(ctx, domain.BattleDuel, participants, challenge.Settings)
	if err != nil {
		return nil, err
	}
	s.publishChallenge(domain.EventChallengeAccepted, challenge, battle.ID())
	battle.Start()
	return battle, nil
}

// DeclineChallenge resolves a pending challenge as rejected.
func (s *BattleService) DeclineChallenge(challengeID, declinerID string) error {
	challenge, err := s.negotiator.Decline(challengeID, declinerID)
	if err != nil {
		return err
	}
	s.publishChallenge(domain.EventChallengeDeclined, challenge, "")
	return nil
}

// SweepChallenges expires stale invitations. Idempotent; meant for a fixed
// interval ticker.
func (s *BattleService) SweepChallenges() int {
	expired := s.negotiator.Sweep()
	for _, challenge := range expired {
		s.publishChallenge(domain.EventChallengeExpired, challenge, "")
	}
	return len(expired)
}

// JoinQueue enqueues a player for an arena match and returns their position.
func (s *BattleService) JoinQueue(player domain.Participant) (int, error) {
	if _, busy := s.registry.ForPlayer(player.ID); busy {
		return 0, domain.ErrAlreadyInBattle
	}
	return s.queue.Enqueue(player.ID, player.DisplayName, player.SkillLevel)
}

// LeaveQueue removes a player from the queue if present.
func (s *BattleService) LeaveQueue(playerID string) bool {
	return s.queue.Dequeue(playerID)
}

// QueueLen reports the current queue depth.
func (s *BattleService) QueueLen() int {
	return s.queue.Len()
}

// RunMatchmaking drains the queue into arena battles. Groups whose battle
// cannot be created are logged and dropped; their players may re-queue.
func (s *BattleService) RunMatchmaking(ctx context.Context) []*Battle {
	var battles []*Battle
	for _, group := range s.queue.Match() {
		participants := make([]domain.Participant, 0, len(group))
		for _, e := range group {
			participants = append(participants, domain.Participant{
				ID:          e.PlayerID,
				DisplayName: e.DisplayName,
				SkillLevel:  e.SkillLevel,
			})
		}
		settings := domain.BattleSettings{
			Topic:         s.cfg.ArenaTopic,
			Difficulty:    DifficultyForGroup(group),
			QuestionCount: s.cfg.ArenaQuestions,
			TimeLimit:     s.cfg.DefaultTimeLimit,
			SpeedBonus:    true,
			StreakBonus:   true,
		}
		battle, err := s.createBattle(ctx, domain.BattleArena, participants, settings)
		if err != nil {
			log.Printf("matchmaking: failed to create arena battle for %d players: %v", len(group), err)
			continue
		}
		battle.Start()
		battles = append(battles, battle)
	}
	return battles
}

// Battle looks up a live battle by ID.
func (s *BattleService) Battle(battleID string) (*Battle, bool) {
	return s.registry.Get(battleID)
}

// BattleForPlayer looks up the battle a player is currently registered in.
func (s *BattleService) BattleForPlayer(playerID string) (*Battle, bool) {
	return s.registry.ForPlayer(playerID)
}

// SubmitAnswer records a player's answer in their battle.
func (s *BattleService) SubmitAnswer(battleID, playerID string, questionIndex, selectedIndex int) (domain.Answer, error) {
	battle, ok := s.registry.Get(battleID)
	if !ok {
		return domain.Answer{}, domain.ErrBattleNotFound
	}
	return battle.Submit(playerID, questionIndex, selectedIndex)
}

// ForceEndBattle terminates a battle administratively and releases its
// players immediately.
func (s *BattleService) ForceEndBattle(battleID string, status domain.BattleStatus, reason string) error {
	battle, ok := s.registry.Get(battleID)
	if !ok {
		return domain.ErrBattleNotFound
	}
	if !battle.ForceEnd(status, reason) {
		return domain.ErrInvalidState
	}
	s.finalizeEnded(battle)
	return nil
}

// SweepStaleBattles expires battles that sat without progress past the
// stale threshold. Timer callbacks racing this sweep are no-ops.
func (s *BattleService) SweepStaleBattles() int {
	ended := 0
	for _, battle := range s.registry.All() {
		if !battle.StaleSince(s.cfg.StaleAfter) {
			continue
		}
		if battle.ForceEnd(domain.StatusExpired, "stale session") {
			s.finalizeEnded(battle)
			ended++
		}
	}
	return ended
}

func (s *BattleService) createBattle(ctx context.Context, btype domain.BattleType, participants []domain.Participant, settings domain.BattleSettings) (*Battle, error) {
	if btype == domain.BattleArena && len(participants) > s.cfg.ArenaMaxPlayers {
		return nil, domain.ErrBattleFull
	}

	questions, err := s.questions.Generate(ctx, settings.Topic, settings.Difficulty, settings.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrQuestionGeneration, err)
	}
	if len(questions) != settings.QuestionCount {
		return nil, fmt.Errorf("%w: got %d questions, want %d", domain.ErrQuestionGeneration, len(questions), settings.QuestionCount)
	}

	playerIDs := make([]string, 0, len(participants))
	for _, p := range participants {
		playerIDs = append(playerIDs, p.ID)
	}
	battle := NewBattle(BattleConfig{
		ID:               uuid.NewString(),
		Type:             btype,
		Settings:         settings,
		Questions:        questions,
		Participants:     participants,
		CountdownTicks:   s.cfg.CountdownTicks,
		BetweenQuestions: s.cfg.BetweenQuestions,
		Publish: func(ev domain.Event) {
			s.hub.Publish(ev, playerIDs...)
		},
		OnFinish:     s.finishBattle,
		tickInterval: s.cfg.CountdownTick,
	})

	if err := s.registry.Register(battle); err != nil {
		return nil, err
	}
	s.archiveAsync(battle.Snapshot())
	return battle, nil
}

// finishBattle runs once per completed battle: release the registry
// entries, archive the final snapshot and hand reward inputs downstream.
func (s *BattleService) finishBattle(battle *Battle, result domain.BattleResult) {
	s.registry.Release(battle.ID())
	s.archiveAsync(battle.Snapshot())

	ctx := context.Background()
	for playerID, input := range RewardInputs(result) {
		s.rewards.Award(ctx, playerID, input, BaseXP(input))
	}
}

// finalizeEnded releases and archives a cancelled or expired battle.
func (s *BattleService) finalizeEnded(battle *Battle) {
	s.registry.Release(battle.ID())
	s.archiveAsync(battle.Snapshot())
}

// archiveAsync dispatches a snapshot write after the in-memory transition
// has completed. A persistence failure is logged, never propagated.
func (s *BattleService) archiveAsync(snap domain.BattleSnapshot) {
	if s.archiver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.archiver.Save(ctx, snap); err != nil {
			log.Printf("failed to archive battle %s: %v", snap.BattleID, err)
		}
	}()
}

func (s *BattleService) publishChallenge(eventType domain.EventType, challenge domain.Challenge, battleID string) {
	s.hub.Publish(domain.Event{
		Type:      eventType,
		BattleID:  battleID,
		Timestamp: time.Now(),
		Payload:   domain.ChallengePayload{Challenge: challenge, BattleID: battleID},
	}, challenge.ChallengerID, challenge.OpponentID)
}
