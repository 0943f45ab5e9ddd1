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
	insertStepQuery = `
		INSERT INTO game_steps (
			id, game_id, step_order, title, body, duration_seconds,
			leader_script, participant_prompt, board_text, optional
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	selectStepsByGameQuery = `
		SELECT id, game_id, step_order, title, body, duration_seconds,
		       leader_script, participant_prompt, board_text, optional
		FROM game_steps
		WHERE game_id = $1
		ORDER BY step_order`

	deleteStepsByGameQuery = `DELETE FROM game_steps WHERE game_id = $1`
)

type StepRepository struct{}

func NewStepRepository() game.StepRepository {
	return &StepRepository{}
}

func (r *StepRepository) InsertBatch(ctx context.Context, steps []game.Step) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, step := range steps {
		dbRow := toDBStep(step)
		if _, err := tx.Exec(ctx, insertStepQuery,
			dbRow.ID, dbRow.GameID, dbRow.StepOrder, dbRow.Title, dbRow.Body,
			dbRow.DurationSeconds, dbRow.LeaderScript, dbRow.ParticipantPrompt,
			dbRow.BoardText, dbRow.Optional,
		); err != nil {
			return errors.Wrapf(err, "failed to insert step %d", step.StepOrder)
		}
	}
	return nil
}

func (r *StepRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]game.Step, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectStepsByGameQuery, gameID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query steps")
	}
	defer rows.Close()

	steps := make([]game.Step, 0)
	for rows.Next() {
		var dbRow models.GameStep
		if err := rows.Scan(
			&dbRow.ID, &dbRow.GameID, &dbRow.StepOrder, &dbRow.Title, &dbRow.Body,
			&dbRow.DurationSeconds, &dbRow.LeaderScript, &dbRow.ParticipantPrompt,
			&dbRow.BoardText, &dbRow.Optional,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan step row")
		}

		step, err := toDomainStep(&dbRow)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

func (r *StepRepository) DeleteByGame(ctx context.Context, gameID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteStepsByGameQuery, gameID.String()); err != nil {
		return errors.Wrap(err, "failed to delete steps")
	}
	return nil
}
