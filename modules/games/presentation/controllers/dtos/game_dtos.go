package dtos

import (
	"time"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/gameimport"
)

// ImportRequest is the body of POST /api/games/csv-import. Data holds
// the raw CSV or JSON document as a string.
type ImportRequest struct {
	Data   string `json:"data"`
	Format string `json:"format"`
	DryRun bool   `json:"dry_run"`
	Upsert bool   `json:"upsert"`
}

// ImportRejection is returned when a batch is refused before commit:
// nothing parsed, or nothing survived validation.
type ImportRejection struct {
	Success  bool               `json:"success"`
	Message  string             `json:"message"`
	Errors   []gameimport.Error `json:"errors,omitempty"`
	Warnings []gameimport.Error `json:"warnings,omitempty"`
	Stats    *gameimport.Stats  `json:"stats,omitempty"`
}

type GameListItem struct {
	ID               string    `json:"id"`
	GameKey          string    `json:"game_key"`
	Name             string    `json:"name"`
	ShortDescription string    `json:"short_description"`
	PlayMode         string    `json:"play_mode"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewGameListItem(g *game.Game) GameListItem {
	return GameListItem{
		ID:               g.ID.String(),
		GameKey:          g.GameKey,
		Name:             g.Name,
		ShortDescription: g.ShortDescription,
		PlayMode:         string(g.PlayMode),
		Status:           string(g.Status),
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

type GameListResponse struct {
	Games []GameListItem `json:"games"`
	Total int            `json:"total"`
}
