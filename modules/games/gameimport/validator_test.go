package gameimport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/gameimport"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func validGameRecord() gameimport.Game {
	return gameimport.Game{
		GameKey:          "kims-lek",
		Name:             "Kims lek",
		ShortDescription: "Minneslek med brickor",
		PlayMode:         "basic",
		Status:           "draft",
		MainPurposeID:    strPtr("0b0e8656-6894-4626-b62b-4e7c65eb6d2a"),
		Steps: []gameimport.Step{
			{StepOrder: 1, Title: "Samla föremål", Body: "Lägg tio föremål på en bricka"},
		},
	}
}

func TestValidateGameAccepted(t *testing.T) {
	result := gameimport.ValidateGame(validGameRecord(), 2, gameimport.Options{})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateGameMissingName(t *testing.T) {
	g := validGameRecord()
	g.Name = ""

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "name", result.Errors[0].Column)
	assert.Equal(t, 2, result.Errors[0].Row)
}

func TestValidateGamePlayerAndAgeBounds(t *testing.T) {
	g := validGameRecord()
	g.MinPlayers = intPtr(8)
	g.MaxPlayers = intPtr(4)
	g.AgeMin = intPtr(12)
	g.AgeMax = intPtr(6)

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	require.False(t, result.IsValid)
	columns := []string{result.Errors[0].Column, result.Errors[1].Column}
	assert.Contains(t, columns, "min_players")
	assert.Contains(t, columns, "age_min")
}

func TestValidateGameInvalidUUIDs(t *testing.T) {
	g := validGameRecord()
	g.MainPurposeID = strPtr("not-a-uuid")
	g.ProductID = strPtr("also-bad")
	g.SubPurposeIDs = []string{"0b0e8656-6894-4626-b62b-4e7c65eb6d2a", "nope"}

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	require.False(t, result.IsValid)
	columns := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		columns = append(columns, e.Column)
	}
	assert.Contains(t, columns, "main_purpose_id")
	assert.Contains(t, columns, "product_id")
	assert.Contains(t, columns, "sub_purpose_ids")
}

func TestValidateGameMissingMainPurposeWarns(t *testing.T) {
	g := validGameRecord()
	g.MainPurposeID = nil

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "main_purpose_id", result.Warnings[0].Column)
}

func TestValidateGameNegativeStepDuration(t *testing.T) {
	g := validGameRecord()
	g.Steps[0].DurationSeconds = intPtr(-30)

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	require.False(t, result.IsValid)
	assert.Equal(t, "step_1_duration", result.Errors[0].Column)
}

func TestValidateGameSecretInBoardText(t *testing.T) {
	g := validGameRecord()
	g.Steps[0].BoardText = strPtr("Koden till skåpet är 4711")

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "step_1_board_text", result.Warnings[0].Column)
	assert.Contains(t, result.Warnings[0].Message, "4711")
}

func TestValidateGameRoleRules(t *testing.T) {
	g := validGameRecord()
	g.PlayMode = "participants"
	g.Roles = []gameimport.Role{
		{RoleOrder: 1, Name: "", PrivateInstructions: "Instruktion", MinCount: 1},
		{RoleOrder: 2, Name: "Agent", PrivateInstructions: "", MinCount: 3, MaxCount: intPtr(2)},
	}

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Message, "Roll 1 saknar namn")
	assert.Contains(t, result.Errors[1].Message, "min_count > max_count")

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "saknar privata instruktioner")
}

func TestValidateGameKeypadMetadata(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]any
		message  string
	}{
		{"missing metadata", nil, "saknar metadata"},
		{"missing code", map[string]any{"hint": "x"}, "saknar correctCode"},
		{"numeric code", map[string]any{"correctCode": float64(711)}, "leading zeros"},
		{"wrong type", map[string]any{"correctCode": true}, "måste vara en sträng"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGameRecord()
			g.Artifacts = []gameimport.Artifact{
				{ArtifactOrder: 1, Title: "Kassaskåp", ArtifactType: "keypad", Metadata: tt.metadata},
			}

			result := gameimport.ValidateGame(g, 2, gameimport.Options{})

			require.False(t, result.IsValid)
			assert.Contains(t, result.Errors[0].Message, tt.message)
		})
	}
}

func TestValidateGameKeypadStringCodeAccepted(t *testing.T) {
	g := validGameRecord()
	g.Artifacts = []gameimport.Artifact{
		{ArtifactOrder: 1, Title: "Kassaskåp", ArtifactType: "keypad", Metadata: map[string]any{"correctCode": "0711"}},
	}

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	assert.True(t, result.IsValid)
}

func TestValidateGameUnknownArtifactTypeWarns(t *testing.T) {
	g := validGameRecord()
	g.Artifacts = []gameimport.Artifact{
		{ArtifactOrder: 1, Title: "Hologram", ArtifactType: "hologram"},
	}

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "okänd artifact_type")
}

func TestValidateGameRolePrivateVariantNeedsRoleRef(t *testing.T) {
	g := validGameRecord()
	g.Artifacts = []gameimport.Artifact{
		{
			ArtifactOrder: 1,
			Title:         "Hemligt brev",
			ArtifactType:  "document",
			Variants: []gameimport.ArtifactVariant{
				{VariantOrder: 1, Visibility: "role_private"},
			},
		},
	}

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	require.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0].Message, "saknar rollreferens")
}

func TestValidateGamePublicVariantSecretWarns(t *testing.T) {
	g := validGameRecord()
	g.Artifacts = []gameimport.Artifact{
		{
			ArtifactOrder: 1,
			Title:         "Anslag",
			ArtifactType:  "document",
			Variants: []gameimport.ArtifactVariant{
				{VariantOrder: 1, Visibility: "public", Body: strPtr("Koden är 123456")},
			},
		},
	}

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	assert.True(t, result.IsValid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0].Message, "123456")
}

func TestValidateGameUnknownTriggerTypes(t *testing.T) {
	g := validGameRecord()
	g.Triggers = []gameimport.Trigger{
		{
			Name:      "Trasig",
			Enabled:   true,
			Condition: game.RawCondition{Kind: "moon_phase", Raw: []byte(`{"type":"moon_phase"}`)},
			Actions: []game.TriggerAction{
				game.RawAction{Kind: "summon", Raw: []byte(`{"type":"summon"}`)},
			},
		},
	}

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Message, `okänd condition.type "moon_phase"`)
	assert.Contains(t, result.Errors[1].Message, `okänd action type "summon"`)
}

func TestValidateGameKnownButUnmodeledConditionAccepted(t *testing.T) {
	g := validGameRecord()
	g.Triggers = []gameimport.Trigger{
		{
			Name:      "Räknare",
			Enabled:   true,
			Condition: game.RawCondition{Kind: "counter_reached", Raw: []byte(`{"type":"counter_reached"}`)},
		},
	}

	result := gameimport.ValidateGame(g, 2, gameimport.Options{})

	assert.True(t, result.IsValid)
}

func TestValidateGamesPartitionsBatch(t *testing.T) {
	valid := validGameRecord()
	invalid := validGameRecord()
	invalid.Name = ""

	batch := gameimport.ValidateGames([]gameimport.Game{valid, invalid}, gameimport.Options{})

	require.Len(t, batch.ValidGames, 1)
	require.Len(t, batch.InvalidGames, 1)
	require.Len(t, batch.AllErrors, 1)
	assert.Equal(t, 3, batch.AllErrors[0].Row)
}

func TestBuildDryRun(t *testing.T) {
	games := []gameimport.Game{validGameRecord()}
	games[0].Artifacts = []gameimport.Artifact{
		{ArtifactOrder: 1, Title: "Karta", ArtifactType: "document"},
		{ArtifactOrder: 2, Title: "Kassaskåp", ArtifactType: "keypad", Metadata: map[string]any{"correctCode": "0711"}},
	}

	batch := gameimport.ValidateGames(games, gameimport.Options{})
	result := gameimport.BuildDryRun(games, nil, nil, batch)

	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.TotalRows)
	assert.Equal(t, 1, result.ValidCount)
	require.Len(t, result.Games, 1)

	preview := result.Games[0]
	assert.Equal(t, 1, preview.RowNumber)
	assert.Equal(t, "kims-lek", preview.GameKey)
	assert.Equal(t, 2, preview.ArtifactsCount)
	assert.Equal(t, []string{"document", "keypad"}, preview.ArtifactTypes)
}
