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
	insertTriggerQuery = `
		INSERT INTO game_triggers (
			id, game_id, name, description, enabled, condition, actions,
			execute_once, delay_seconds, sort_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	selectTriggersByGameQuery = `
		SELECT id, game_id, name, description, enabled, condition, actions,
		       execute_once, delay_seconds, sort_order
		FROM game_triggers
		WHERE game_id = $1
		ORDER BY sort_order`

	deleteTriggersByGameQuery = `DELETE FROM game_triggers WHERE game_id = $1`
)

type TriggerRepository struct{}

func NewTriggerRepository() game.TriggerRepository {
	return &TriggerRepository{}
}

func (r *TriggerRepository) InsertBatch(ctx context.Context, triggers []game.Trigger) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, trigger := range triggers {
		dbRow, err := toDBTrigger(trigger)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertTriggerQuery,
			dbRow.ID, dbRow.GameID, dbRow.Name, dbRow.Description, dbRow.Enabled,
			dbRow.Condition, dbRow.Actions, dbRow.ExecuteOnce, dbRow.DelaySeconds,
			dbRow.SortOrder,
		); err != nil {
			return errors.Wrapf(err, "failed to insert trigger %q", trigger.Name)
		}
	}
	return nil
}

func (r *TriggerRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]game.Trigger, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectTriggersByGameQuery, gameID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query triggers")
	}
	defer rows.Close()

	triggers := make([]game.Trigger, 0)
	for rows.Next() {
		var dbRow models.GameTrigger
		if err := rows.Scan(
			&dbRow.ID, &dbRow.GameID, &dbRow.Name, &dbRow.Description, &dbRow.Enabled,
			&dbRow.Condition, &dbRow.Actions, &dbRow.ExecuteOnce, &dbRow.DelaySeconds,
			&dbRow.SortOrder,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan trigger row")
		}

		trigger, err := toDomainTrigger(&dbRow)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, trigger)
	}
	return triggers, rows.Err()
}

func (r *TriggerRepository) DeleteByGame(ctx context.Context, gameID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteTriggersByGameQuery, gameID.String()); err != nil {
		return errors.Wrap(err, "failed to delete triggers")
	}
	return nil
}
