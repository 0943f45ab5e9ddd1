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
	insertRoleQuery = `
		INSERT INTO game_roles (
			id, game_id, role_order, name, icon, color, public_description,
			private_instructions, private_hints, min_count, max_count,
			assignment_strategy, scaling_rules, conflicts_with
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	selectRolesByGameQuery = `
		SELECT id, game_id, role_order, name, icon, color, public_description,
		       private_instructions, private_hints, min_count, max_count,
		       assignment_strategy, scaling_rules, conflicts_with
		FROM game_roles
		WHERE game_id = $1
		ORDER BY role_order`

	deleteRolesByGameQuery = `DELETE FROM game_roles WHERE game_id = $1`
)

type RoleRepository struct{}

func NewRoleRepository() game.RoleRepository {
	return &RoleRepository{}
}

func (r *RoleRepository) InsertBatch(ctx context.Context, roles []game.Role) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, role := range roles {
		dbRow, err := toDBRole(role)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertRoleQuery,
			dbRow.ID, dbRow.GameID, dbRow.RoleOrder, dbRow.Name, dbRow.Icon, dbRow.Color,
			dbRow.PublicDescription, dbRow.PrivateInstructions, dbRow.PrivateHints,
			dbRow.MinCount, dbRow.MaxCount, dbRow.AssignmentStrategy,
			dbRow.ScalingRules, dbRow.ConflictsWith,
		); err != nil {
			return errors.Wrapf(err, "failed to insert role %q", role.Name)
		}
	}
	return nil
}

func (r *RoleRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]game.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectRolesByGameQuery, gameID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query roles")
	}
	defer rows.Close()

	roles := make([]game.Role, 0)
	for rows.Next() {
		var dbRow models.GameRole
		if err := rows.Scan(
			&dbRow.ID, &dbRow.GameID, &dbRow.RoleOrder, &dbRow.Name, &dbRow.Icon, &dbRow.Color,
			&dbRow.PublicDescription, &dbRow.PrivateInstructions, &dbRow.PrivateHints,
			&dbRow.MinCount, &dbRow.MaxCount, &dbRow.AssignmentStrategy,
			&dbRow.ScalingRules, &dbRow.ConflictsWith,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan role row")
		}

		role, err := toDomainRole(&dbRow)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) DeleteByGame(ctx context.Context, gameID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteRolesByGameQuery, gameID.String()); err != nil {
		return errors.Wrap(err, "failed to delete roles")
	}
	return nil
}
