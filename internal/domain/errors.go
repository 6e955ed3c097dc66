package domain

import "errors"

var (
	// ErrChallengeNotFound is returned when the referenced challenge is absent.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrBattleNotFound is returned when the referenced battle is absent.
	ErrBattleNotFound = errors.New("battle not found")
	// ErrPlayerNotFound is returned when a player acts in a battle they are not part of.
	ErrPlayerNotFound = errors.New("player not found in battle")
	// ErrUnauthorized is returned when acting on someone else's challenge or battle.
	ErrUnauthorized = errors.New("not authorized for this action")
	// ErrInvalidState is returned when an action does not fit the current battle state.
	ErrInvalidState = errors.New("invalid battle state for this action")
	// ErrInvalidTarget is returned for self-challenges or unavailable opponents.
	ErrInvalidTarget = errors.New("invalid challenge target")
	// ErrAlreadyAnswered is returned on a second submission for the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrExpired is returned when acting on a challenge past its expiry.
	ErrExpired = errors.New("challenge expired")
	// ErrQuestionGeneration indicates the question provider could not supply a full set.
	ErrQuestionGeneration = errors.New("question generation failed")
	// ErrBattleFull is returned when a battle cannot take another player.
	ErrBattleFull = errors.New("battle is full")
	// ErrAlreadyQueued is returned when a queued player enqueues again.
	ErrAlreadyQueued = errors.New("player already in matchmaking queue")
	// ErrAlreadyInBattle is returned when a player in an active battle tries to start another.
	ErrAlreadyInBattle = errors.New("player already in an active battle")
)
