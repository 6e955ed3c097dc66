package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-battle-service/internal/domain"
)

// BattleArchive writes battle snapshots for recovery and audit. The live
// battle state never depends on these writes succeeding.
type BattleArchive struct {
	pool *pgxpool.Pool
}

func NewBattleArchive(pool *pgxpool.Pool) *BattleArchive {
	return &BattleArchive{pool: pool}
}

func (a *BattleArchive) Save(ctx context.Context, snap domain.BattleSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal battle snapshot: %w", err)
	}
	_, err = a.pool.Exec(ctx,
		`INSERT INTO battle_archive (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`,
		snap.BattleID, string(data),
	)
	if err != nil {
		return fmt.Errorf("archive battle: %w", err)
	}
	return nil
}
