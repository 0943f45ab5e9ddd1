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
	insertArtifactQuery = `
		INSERT INTO game_artifacts (
			id, game_id, artifact_order, locale, title, description,
			artifact_type, tags, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	selectArtifactsByGameQuery = `
		SELECT id, game_id, artifact_order, locale, title, description,
		       artifact_type, tags, metadata
		FROM game_artifacts
		WHERE game_id = $1
		ORDER BY artifact_order`

	deleteArtifactsByGameQuery = `DELETE FROM game_artifacts WHERE game_id = $1`

	insertVariantQuery = `
		INSERT INTO game_artifact_variants (
			id, artifact_id, variant_order, visibility, visible_to_role_id,
			title, body, media_ref, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	selectVariantsByArtifactQuery = `
		SELECT id, artifact_id, variant_order, visibility, visible_to_role_id,
		       title, body, media_ref, metadata
		FROM game_artifact_variants
		WHERE artifact_id = $1
		ORDER BY variant_order`

	deleteVariantsByGameQuery = `
		DELETE FROM game_artifact_variants
		WHERE artifact_id IN (SELECT id FROM game_artifacts WHERE game_id = $1)`
)

type ArtifactRepository struct{}

func NewArtifactRepository() game.ArtifactRepository {
	return &ArtifactRepository{}
}

func (r *ArtifactRepository) InsertBatch(ctx context.Context, artifacts []game.Artifact) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, artifact := range artifacts {
		dbRow, err := toDBArtifact(artifact)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertArtifactQuery,
			dbRow.ID, dbRow.GameID, dbRow.ArtifactOrder, dbRow.Locale, dbRow.Title,
			dbRow.Description, dbRow.ArtifactType, dbRow.Tags, dbRow.Metadata,
		); err != nil {
			return errors.Wrapf(err, "failed to insert artifact %q", artifact.Title)
		}
	}
	return nil
}

func (r *ArtifactRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]game.Artifact, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectArtifactsByGameQuery, gameID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query artifacts")
	}
	defer rows.Close()

	artifacts := make([]game.Artifact, 0)
	for rows.Next() {
		var dbRow models.GameArtifact
		if err := rows.Scan(
			&dbRow.ID, &dbRow.GameID, &dbRow.ArtifactOrder, &dbRow.Locale, &dbRow.Title,
			&dbRow.Description, &dbRow.ArtifactType, &dbRow.Tags, &dbRow.Metadata,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan artifact row")
		}

		artifact, err := toDomainArtifact(&dbRow)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

func (r *ArtifactRepository) DeleteByGame(ctx context.Context, gameID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteArtifactsByGameQuery, gameID.String()); err != nil {
		return errors.Wrap(err, "failed to delete artifacts")
	}
	return nil
}

type ArtifactVariantRepository struct{}

func NewArtifactVariantRepository() game.ArtifactVariantRepository {
	return &ArtifactVariantRepository{}
}

func (r *ArtifactVariantRepository) InsertBatch(ctx context.Context, variants []game.ArtifactVariant) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	for _, variant := range variants {
		dbRow, err := toDBArtifactVariant(variant)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertVariantQuery,
			dbRow.ID, dbRow.ArtifactID, dbRow.VariantOrder, dbRow.Visibility,
			dbRow.VisibleToRoleID, dbRow.Title, dbRow.Body, dbRow.MediaRef, dbRow.Metadata,
		); err != nil {
			return errors.Wrapf(err, "failed to insert variant %d", variant.VariantOrder)
		}
	}
	return nil
}

func (r *ArtifactVariantRepository) ListByArtifact(ctx context.Context, artifactID uuid.UUID) ([]game.ArtifactVariant, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, selectVariantsByArtifactQuery, artifactID.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to query variants")
	}
	defer rows.Close()

	variants := make([]game.ArtifactVariant, 0)
	for rows.Next() {
		var dbRow models.GameArtifactVariant
		if err := rows.Scan(
			&dbRow.ID, &dbRow.ArtifactID, &dbRow.VariantOrder, &dbRow.Visibility,
			&dbRow.VisibleToRoleID, &dbRow.Title, &dbRow.Body, &dbRow.MediaRef, &dbRow.Metadata,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan variant row")
		}

		variant, err := toDomainArtifactVariant(&dbRow)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}
	return variants, rows.Err()
}

func (r *ArtifactVariantRepository) DeleteByGame(ctx context.Context, gameID uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, deleteVariantsByGameQuery, gameID.String()); err != nil {
		return errors.Wrap(err, "failed to delete variants")
	}
	return nil
}
