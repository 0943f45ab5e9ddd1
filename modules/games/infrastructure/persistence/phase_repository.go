package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/infrastructure/persistence/models"
	"github.com/lekbanken/lekbanken/pkg/composables"
)

const (
	insertPhaseQuery = `
		INSERT INTO game_phases (
			id, game_id, phase_order, name, phase_type, duration_seconds,
			timer_visible, timer_style, description, board_message, auto_advance
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	selectPhasesByGameQuery = `
		SELECT id, game_id, phase_order, name, phase_type, duration_seconds,
		       timer_visible, timer_style, description, board_message, auto_advance
		FROM game_phases
		WHERE game_id = $1
		ORDER BY phase_order`

	deletePhasesByGameQuery = `DELETE FROM game_phases WHERE game_id = $1`
)

type PhaseRepository struct{}

func NewPhaseRepository() game.PhaseRepository {
	return &PhaseRepository{}
}

func (r *PhaseRepository) InsertBatch(ctx context.Context, phases []game.Phase) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, phase := range phases {
		dbRow := toDBPhase(phase)
		if _, err := tx.Exec(ctx, insertPhaseQuery,
			dbRow.ID, dbRow.GameID, dbRow.PhaseOrder, dbRow.Name, dbRow.PhaseType,
			dbRow.DurationSeconds, dbRow.TimerVisible, dbRow.TimerStyle,
			dbRow.Description, dbRow.BoardMessage, dbRow.AutoAdvance,
		); err != nil {
			return errors.Wrapf(err, "failed to insert phase %d", phase.PhaseOrder)
		}
	}
	return nil
}

func (r *PhaseRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]game.Phase, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectPhasesByGameQuery, gameID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query phases")
	}
	defer rows.Close()

	phases := make([]game.Phase, 0)
	for rows.Next() {
		var dbRow models.GamePhase
		if err := rows.Scan(
			&dbRow.ID, &dbRow.GameID, &dbRow.PhaseOrder, &dbRow.Name, &dbRow.PhaseType,
			&dbRow.DurationSeconds, &dbRow.TimerVisible, &dbRow.TimerStyle,
			&dbRow.Description, &dbRow.BoardMessage, &dbRow.AutoAdvance,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan phase row")
		}

		phase, err := toDomainPhase(&dbRow)
		if err != nil {
			return nil, err
		}
		phases = append(phases, phase)
	}
	return phases, rows.Err()
}

func (r *PhaseRepository) DeleteByGame(ctx context.Context, gameID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deletePhasesByGameQuery, gameID.String()); err != nil {
		return errors.Wrap(err, "failed to delete phases")
	}
	return nil
}
