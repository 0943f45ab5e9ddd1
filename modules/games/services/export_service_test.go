package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/gameimport"
)

func exportFixture(t *testing.T) (*fakeStore, *ExportService) {
	t.Helper()
	store := newFakeStore()
	importSvc := newTestImportService(store)

	record := validRecord("skattjakten")
	record.PlayMode = "participants"
	record.Roles = []gameimport.Role{
		{RoleOrder: 1, Name: "Detektiv", PrivateInstructions: "Leta efter spår.", MinCount: 1, AssignmentStrategy: "random"},
	}
	record.Artifacts = []gameimport.Artifact{
		{
			ArtifactOrder: 1,
			Title:         "Hemligt kort",
			ArtifactType:  "card",
			Metadata:      map[string]any{},
			Variants: []gameimport.ArtifactVariant{
				{VariantOrder: 1, Visibility: "role_private", VisibleToRoleOrder: intRef(1)},
			},
		},
	}
	record.Triggers = []gameimport.Trigger{
		{
			Name:      "Visa kortet",
			Enabled:   true,
			Condition: game.StepCompletedCondition{StepOrder: intRef(1)},
			Actions:   []game.TriggerAction{game.RevealArtifactAction{ArtifactOrder: intRef(1)}},
		},
	}

	result := importSvc.Import(context.Background(), []gameimport.Game{record}, upsertOptions())
	require.True(t, result.Success, "errors: %v", result.Errors)

	return store, NewExportService(store.repositories())
}

func TestExportService_JSONRestoresAliases(t *testing.T) {
	_, svc := exportFixture(t)

	data, err := svc.ExportJSON(context.Background(), nil)
	require.NoError(t, err)

	var payload struct {
		Games []gameimport.Game `json:"games"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Len(t, payload.Games, 1)

	exported := payload.Games[0]
	assert.Equal(t, "skattjakten", exported.GameKey)
	require.Len(t, exported.Triggers, 1)

	cond, ok := exported.Triggers[0].Condition.(game.StepCompletedCondition)
	require.True(t, ok)
	assert.Nil(t, cond.StepID)
	require.NotNil(t, cond.StepOrder)
	assert.Equal(t, 1, *cond.StepOrder)

	require.Len(t, exported.Triggers[0].Actions, 1)
	action, ok := exported.Triggers[0].Actions[0].(game.RevealArtifactAction)
	require.True(t, ok)
	assert.Nil(t, action.ArtifactID)
	require.NotNil(t, action.ArtifactOrder)
	assert.Equal(t, 1, *action.ArtifactOrder)

	require.Len(t, exported.Artifacts, 1)
	require.Len(t, exported.Artifacts[0].Variants, 1)
	variant := exported.Artifacts[0].Variants[0]
	assert.Nil(t, variant.VisibleToRoleID)
	require.NotNil(t, variant.VisibleToRoleOrder)
	assert.Equal(t, 1, *variant.VisibleToRoleOrder)
}

func TestExportService_ExportedJSONReimports(t *testing.T) {
	_, svc := exportFixture(t)

	data, err := svc.ExportJSON(context.Background(), nil)
	require.NoError(t, err)

	parsed := gameimport.ParseJSON(data)
	require.True(t, parsed.Success, "errors: %v", parsed.Errors)
	require.Len(t, parsed.Games, 1)

	target := newFakeStore()
	result := newTestImportService(target).Import(context.Background(), parsed.Games, upsertOptions())
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.Stats.Created)
	assert.NotNil(t, target.gameByKey("skattjakten"))
}

func TestExportService_CSV(t *testing.T) {
	_, svc := exportFixture(t)

	data, err := svc.ExportCSV(context.Background(), nil)
	require.NoError(t, err)

	body := string(data)
	assert.True(t, strings.HasPrefix(body, "\xef\xbb\xbf"))
	assert.Contains(t, body, "game_key")
	assert.Contains(t, body, "step_1_title")
	assert.Contains(t, body, "roles_json")
	assert.Contains(t, body, "skattjakten")
	assert.Contains(t, body, "Skattjakten")
}

func TestExportService_CSVAbsentCollectionsStayEmpty(t *testing.T) {
	_, svc := exportFixture(t)

	data, err := svc.ExportCSV(context.Background(), nil)
	require.NoError(t, err)

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\xef\xbb\xbf")))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header, row := rows[0], rows[1]
	cell := func(name string) string {
		for i, h := range header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("missing column %q", name)
		return ""
	}

	// The fixture has no materials or board config; those cells must be
	// empty, not the JSON literal null.
	assert.Empty(t, cell("materials_json"))
	assert.Empty(t, cell("board_config_json"))
	assert.NotEmpty(t, cell("roles_json"))
}

func TestExportService_XLSX(t *testing.T) {
	_, svc := exportFixture(t)

	data, err := svc.ExportXLSX(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestExportService_FiltersByID(t *testing.T) {
	store, svc := exportFixture(t)

	importSvc := newTestImportService(store)
	result := importSvc.Import(context.Background(), []gameimport.Game{validRecord("andra-leken")}, upsertOptions())
	require.True(t, result.Success)

	data, err := svc.ExportJSON(context.Background(), nil)
	require.NoError(t, err)
	var all struct {
		Games []gameimport.Game `json:"games"`
	}
	require.NoError(t, json.Unmarshal(data, &all))
	assert.Len(t, all.Games, 2)

	wantedID := store.gameIDByKey["andra-leken"]
	data, err = svc.ExportJSON(context.Background(), []uuid.UUID{wantedID})
	require.NoError(t, err)
	var filtered struct {
		Games []gameimport.Game `json:"games"`
	}
	require.NoError(t, json.Unmarshal(data, &filtered))
	require.Len(t, filtered.Games, 1)
	assert.Equal(t, "andra-leken", filtered.Games[0].GameKey)
}
