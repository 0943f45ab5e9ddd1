package game

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

var ErrGameNotFound = fmt.Errorf("game not found")

// Repository covers the games root table.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Game, error)
	// FindIDByKey returns ErrGameNotFound when no game carries the key.
	FindIDByKey(ctx context.Context, gameKey string) (uuid.UUID, error)
	List(ctx context.Context) ([]*Game, error)
	Create(ctx context.Context, g *Game) error
	Update(ctx context.Context, g *Game) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// The child repositories below are one-per-owned-table. InsertBatch
// persists rows with caller-assigned IDs; ListByGame re-reads what is
// stored for one game, ordered by the table's order column; DeleteByGame
// removes every row owned by the game.

type StepRepository interface {
	InsertBatch(ctx context.Context, steps []Step) error
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]Step, error)
	DeleteByGame(ctx context.Context, gameID uuid.UUID) error
}

type MaterialsRepository interface {
	Insert(ctx context.Context, m *Materials) error
	GetByGame(ctx context.Context, gameID uuid.UUID) (*Materials, error)
	DeleteByGame(ctx context.Context, gameID uuid.UUID) error
}

type PhaseRepository interface {
	InsertBatch(ctx context.Context, phases []Phase) error
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]Phase, error)
	DeleteByGame(ctx context.Context, gameID uuid.UUID) error
}

type RoleRepository interface {
	InsertBatch(ctx context.Context, roles []Role) error
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]Role, error)
	DeleteByGame(ctx context.Context, gameID uuid.UUID) error
}

type BoardConfigRepository interface {
	Insert(ctx context.Context, cfg *BoardConfig) error
	GetByGame(ctx context.Context, gameID uuid.UUID) (*BoardConfig, error)
	DeleteByGame(ctx context.Context, gameID uuid.UUID) error
}

type SecondaryPurposeRepository interface {
	InsertBatch(ctx context.Context, gameID uuid.UUID, purposeIDs []uuid.UUID) error
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]uuid.UUID, error)
	DeleteByGame(ctx context.Context, gameID uuid.UUID) error
}

type ArtifactRepository interface {
	InsertBatch(ctx context.Context, artifacts []Artifact) error
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]Artifact, error)
	DeleteByGame(ctx context.Context, gameID uuid.UUID) error
}

type ArtifactVariantRepository interface {
	InsertBatch(ctx context.Context, variants []ArtifactVariant) error
	ListByArtifact(ctx context.Context, artifactID uuid.UUID) ([]ArtifactVariant, error)
	// DeleteByGame removes variants of every artifact owned by the game.
	DeleteByGame(ctx context.Context, gameID uuid.UUID) error
}

type TriggerRepository interface {
	InsertBatch(ctx context.Context, triggers []Trigger) error
	ListByGame(ctx context.Context, gameID uuid.UUID) ([]Trigger, error)
	DeleteByGame(ctx context.Context, gameID uuid.UUID) error
}
