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
	insertMaterialsQuery = `
		INSERT INTO game_materials (id, game_id, items, safety_notes, preparation)
		VALUES ($1, $2, $3, $4, $5)`

	selectMaterialsByGameQuery = `
		SELECT id, game_id, items, safety_notes, preparation
		FROM game_materials
		WHERE game_id = $1`

	deleteMaterialsByGameQuery = `DELETE FROM game_materials WHERE game_id = $1`

	insertBoardConfigQuery = `
		INSERT INTO game_board_config (
			id, game_id, show_game_name, show_current_phase, show_timer,
			show_participants, show_public_roles, show_leaderboard, show_qr_code,
			welcome_message, theme, background_color, layout_variant
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	selectBoardConfigByGameQuery = `
		SELECT id, game_id, show_game_name, show_current_phase, show_timer,
		       show_participants, show_public_roles, show_leaderboard, show_qr_code,
		       welcome_message, theme, background_color, layout_variant
		FROM game_board_config
		WHERE game_id = $1`

	deleteBoardConfigByGameQuery = `DELETE FROM game_board_config WHERE game_id = $1`

	insertSecondaryPurposeQuery = `
		INSERT INTO game_secondary_purposes (game_id, purpose_id) VALUES ($1, $2)`

	selectSecondaryPurposesByGameQuery = `
		SELECT purpose_id FROM game_secondary_purposes WHERE game_id = $1`

	deleteSecondaryPurposesByGameQuery = `DELETE FROM game_secondary_purposes WHERE game_id = $1`
)

type MaterialsRepository struct{}

func NewMaterialsRepository() game.MaterialsRepository {
	return &MaterialsRepository{}
}

func (r *MaterialsRepository) Insert(ctx context.Context, entity *game.Materials) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	dbRow := toDBMaterials(entity)
	if _, err := tx.Exec(ctx, insertMaterialsQuery,
		dbRow.ID, dbRow.GameID, dbRow.Items, dbRow.SafetyNotes, dbRow.Preparation,
	); err != nil {
		return errors.Wrap(err, "failed to insert materials")
	}
	return nil
}

func (r *MaterialsRepository) GetByGame(ctx context.Context, gameID uuid.UUID) (*game.Materials, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var dbRow models.GameMaterials
	err = tx.QueryRow(ctx, selectMaterialsByGameQuery, gameID.String()).Scan(
		&dbRow.ID, &dbRow.GameID, &dbRow.Items, &dbRow.SafetyNotes, &dbRow.Preparation,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query materials")
	}
	return toDomainMaterials(&dbRow)
}

func (r *MaterialsRepository) DeleteByGame(ctx context.Context, gameID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteMaterialsByGameQuery, gameID.String()); err != nil {
		return errors.Wrap(err, "failed to delete materials")
	}
	return nil
}

type BoardConfigRepository struct{}

func NewBoardConfigRepository() game.BoardConfigRepository {
	return &BoardConfigRepository{}
}

func (r *BoardConfigRepository) Insert(ctx context.Context, entity *game.BoardConfig) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	dbRow := toDBBoardConfig(entity)
	if _, err := tx.Exec(ctx, insertBoardConfigQuery,
		dbRow.ID, dbRow.GameID, dbRow.ShowGameName, dbRow.ShowCurrentPhase, dbRow.ShowTimer,
		dbRow.ShowParticipants, dbRow.ShowPublicRoles, dbRow.ShowLeaderboard, dbRow.ShowQRCode,
		dbRow.WelcomeMessage, dbRow.Theme, dbRow.BackgroundColor, dbRow.LayoutVariant,
	); err != nil {
		return errors.Wrap(err, "failed to insert board config")
	}
	return nil
}

func (r *BoardConfigRepository) GetByGame(ctx context.Context, gameID uuid.UUID) (*game.BoardConfig, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var dbRow models.GameBoardConfig
	err = tx.QueryRow(ctx, selectBoardConfigByGameQuery, gameID.String()).Scan(
		&dbRow.ID, &dbRow.GameID, &dbRow.ShowGameName, &dbRow.ShowCurrentPhase, &dbRow.ShowTimer,
		&dbRow.ShowParticipants, &dbRow.ShowPublicRoles, &dbRow.ShowLeaderboard, &dbRow.ShowQRCode,
		&dbRow.WelcomeMessage, &dbRow.Theme, &dbRow.BackgroundColor, &dbRow.LayoutVariant,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to query board config")
	}
	return toDomainBoardConfig(&dbRow)
}

func (r *BoardConfigRepository) DeleteByGame(ctx context.Context, gameID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteBoardConfigByGameQuery, gameID.String()); err != nil {
		return errors.Wrap(err, "failed to delete board config")
	}
	return nil
}

type SecondaryPurposeRepository struct{}

func NewSecondaryPurposeRepository() game.SecondaryPurposeRepository {
	return &SecondaryPurposeRepository{}
}

func (r *SecondaryPurposeRepository) InsertBatch(ctx context.Context, gameID uuid.UUID, purposeIDs []uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, purposeID := range purposeIDs {
		if _, err := tx.Exec(ctx, insertSecondaryPurposeQuery, gameID.String(), purposeID.String()); err != nil {
			return errors.Wrap(err, "failed to insert secondary purpose link")
		}
	}
	return nil
}

func (r *SecondaryPurposeRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]uuid.UUID, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectSecondaryPurposesByGameQuery, gameID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query secondary purposes")
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "failed to scan purpose id")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.Wrap(err, "invalid purpose id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SecondaryPurposeRepository) DeleteByGame(ctx context.Context, gameID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteSecondaryPurposesByGameQuery, gameID.String()); err != nil {
		return errors.Wrap(err, "failed to delete secondary purposes")
	}
	return nil
}
