package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/infrastructure/persistence/models"
	"github.com/lekbanken/lekbanken/pkg/composables"
)

const (
	selectGameQuery = `
		SELECT id, game_key, name, short_description, description, play_mode, status, locale,
		       energy_level, location_type, time_estimate_min, duration_max, min_players,
		       max_players, players_recommended, age_min, age_max, difficulty,
		       accessibility_notes, space_requirements, leader_tips,
		       main_purpose_id, product_id, owner_tenant_id, created_at, updated_at
		FROM games`

	findGameIDByKeyQuery = `SELECT id FROM games WHERE game_key = $1`

	insertGameQuery = `
		INSERT INTO games (
			id, game_key, name, short_description, description, play_mode, status, locale,
			energy_level, location_type, time_estimate_min, duration_max, min_players,
			max_players, players_recommended, age_min, age_max, difficulty,
			accessibility_notes, space_requirements, leader_tips,
			main_purpose_id, product_id, owner_tenant_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26
		)`

	updateGameQuery = `
		UPDATE games SET
			game_key = $2, name = $3, short_description = $4, description = $5,
			play_mode = $6, status = $7, locale = $8, energy_level = $9,
			location_type = $10, time_estimate_min = $11, duration_max = $12,
			min_players = $13, max_players = $14, players_recommended = $15,
			age_min = $16, age_max = $17, difficulty = $18, accessibility_notes = $19,
			space_requirements = $20, leader_tips = $21, main_purpose_id = $22,
			product_id = $23, owner_tenant_id = $24, updated_at = $25
		WHERE id = $1`

	deleteGameQuery = `DELETE FROM games WHERE id = $1`
)

type GameRepository struct{}

func NewGameRepository() game.Repository {
	return &GameRepository{}
}

func (r *GameRepository) GetByID(ctx context.Context, id uuid.UUID) (*game.Game, error) {
	games, err := r.queryGames(ctx, selectGameQuery+` WHERE id = $1`, id.String())
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, game.ErrGameNotFound
	}
	return games[0], nil
}

func (r *GameRepository) FindIDByKey(ctx context.Context, gameKey string) (uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	var rawID string
	if err := tx.QueryRow(ctx, findGameIDByKeyQuery, gameKey).Scan(&rawID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, game.ErrGameNotFound
		}
		return uuid.Nil, errors.Wrap(err, "failed to look up game by key")
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "invalid game id")
	}
	return id, nil
}

func (r *GameRepository) List(ctx context.Context) ([]*game.Game, error) {
	return r.queryGames(ctx, selectGameQuery+` ORDER BY name`)
}

func (r *GameRepository) Create(ctx context.Context, entity *game.Game) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	dbRow := toDBGame(entity)
	_, err = tx.Exec(ctx, insertGameQuery,
		dbRow.ID, dbRow.GameKey, dbRow.Name, dbRow.ShortDescription, dbRow.Description,
		dbRow.PlayMode, dbRow.Status, dbRow.Locale, dbRow.EnergyLevel, dbRow.LocationType,
		dbRow.TimeEstimateMin, dbRow.DurationMax, dbRow.MinPlayers, dbRow.MaxPlayers,
		dbRow.PlayersRecommended, dbRow.AgeMin, dbRow.AgeMax, dbRow.Difficulty,
		dbRow.AccessibilityNotes, dbRow.SpaceRequirements, dbRow.LeaderTips,
		dbRow.MainPurposeID, dbRow.ProductID, dbRow.OwnerTenantID,
		dbRow.CreatedAt, dbRow.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert game")
	}
	return nil
}

func (r *GameRepository) Update(ctx context.Context, entity *game.Game) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	dbRow := toDBGame(entity)
	_, err = tx.Exec(ctx, updateGameQuery,
		dbRow.ID, dbRow.GameKey, dbRow.Name, dbRow.ShortDescription, dbRow.Description,
		dbRow.PlayMode, dbRow.Status, dbRow.Locale, dbRow.EnergyLevel, dbRow.LocationType,
		dbRow.TimeEstimateMin, dbRow.DurationMax, dbRow.MinPlayers, dbRow.MaxPlayers,
		dbRow.PlayersRecommended, dbRow.AgeMin, dbRow.AgeMax, dbRow.Difficulty,
		dbRow.AccessibilityNotes, dbRow.SpaceRequirements, dbRow.LeaderTips,
		dbRow.MainPurposeID, dbRow.ProductID, dbRow.OwnerTenantID, dbRow.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update game")
	}
	return nil
}

func (r *GameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteGameQuery, id.String()); err != nil {
		return errors.Wrap(err, "failed to delete game")
	}
	return nil
}

func (r *GameRepository) queryGames(ctx context.Context, query string, args ...any) ([]*game.Game, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query games")
	}
	defer rows.Close()

	games := make([]*game.Game, 0)
	for rows.Next() {
		var dbRow models.Game
		if err := rows.Scan(
			&dbRow.ID, &dbRow.GameKey, &dbRow.Name, &dbRow.ShortDescription, &dbRow.Description,
			&dbRow.PlayMode, &dbRow.Status, &dbRow.Locale, &dbRow.EnergyLevel, &dbRow.LocationType,
			&dbRow.TimeEstimateMin, &dbRow.DurationMax, &dbRow.MinPlayers, &dbRow.MaxPlayers,
			&dbRow.PlayersRecommended, &dbRow.AgeMin, &dbRow.AgeMax, &dbRow.Difficulty,
			&dbRow.AccessibilityNotes, &dbRow.SpaceRequirements, &dbRow.LeaderTips,
			&dbRow.MainPurposeID, &dbRow.ProductID, &dbRow.OwnerTenantID,
			&dbRow.CreatedAt, &dbRow.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan game row")
		}

		entity, err := toDomainGame(&dbRow)
		if err != nil {
			return nil, err
		}
		games = append(games, entity)
	}
	return games, rows.Err()
}
