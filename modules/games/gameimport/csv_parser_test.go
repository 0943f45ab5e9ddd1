package gameimport_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/lekbanken/modules/games/gameimport"
)

func TestParseCSVMinimalRow(t *testing.T) {
	csv := strings.Join([]string{
		"game_key,name,short_description,main_purpose_id,step_1_title,step_1_body",
		"kims-lek,Kims lek,Minneslek med brickor,0b0e8656-6894-4626-b62b-4e7c65eb6d2a,Samla föremål,Lägg tio föremål på en bricka",
	}, "\n")

	result := gameimport.ParseCSV([]byte(csv))

	require.True(t, result.Success)
	require.Len(t, result.Games, 1)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)

	g := result.Games[0]
	assert.Equal(t, "kims-lek", g.GameKey)
	assert.Equal(t, "Kims lek", g.Name)
	assert.Equal(t, "basic", g.PlayMode)
	assert.Equal(t, "draft", g.Status)
	require.Len(t, g.Steps, 1)
	assert.Equal(t, 1, g.Steps[0].StepOrder)
	assert.Equal(t, "Samla föremål", g.Steps[0].Title)
}

func TestParseCSVMissingRequiredFields(t *testing.T) {
	csv := strings.Join([]string{
		"game_key,name,short_description,step_1_title,step_1_body",
		"broken,,,,",
	}, "\n")

	result := gameimport.ParseCSV([]byte(csv))

	require.False(t, result.Success)
	assert.Empty(t, result.Games)

	columns := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		assert.Equal(t, 2, e.Row)
		columns = append(columns, e.Column)
	}
	assert.Contains(t, columns, "name")
	assert.Contains(t, columns, "short_description")
	assert.Contains(t, columns, "step_1_title")
}

func TestParseCSVGeneratesGameKey(t *testing.T) {
	csv := strings.Join([]string{
		"name,short_description,main_purpose_id,step_1_title,step_1_body",
		"Tre i rad,Klassiskt strategispel,0b0e8656-6894-4626-b62b-4e7c65eb6d2a,Rita rutnät,Rita ett rutnät med nio rutor",
	}, "\n")

	result := gameimport.ParseCSV([]byte(csv))

	require.True(t, result.Success)
	require.Len(t, result.Games, 1)
	assert.True(t, strings.HasPrefix(result.Games[0].GameKey, "tre-i-rad-"))

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "game_key", result.Warnings[0].Column)
}

func TestParseCSVInvalidPlayModeFallsBack(t *testing.T) {
	csv := strings.Join([]string{
		"game_key,name,short_description,play_mode,main_purpose_id,step_1_title,step_1_body",
		"g1,Leken,Beskrivning,turbo,0b0e8656-6894-4626-b62b-4e7c65eb6d2a,Start,Gör så här",
	}, "\n")

	result := gameimport.ParseCSV([]byte(csv))

	require.True(t, result.Success)
	require.Len(t, result.Games, 1)
	assert.Equal(t, "basic", result.Games[0].PlayMode)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "play_mode", result.Warnings[0].Column)
}

func TestParseCSVInvalidJSONCell(t *testing.T) {
	csv := strings.Join([]string{
		"game_key,name,short_description,main_purpose_id,step_1_title,step_1_body,phases_json",
		`g1,Leken,Beskrivning,0b0e8656-6894-4626-b62b-4e7c65eb6d2a,Start,Gör så här,"{not json"`,
	}, "\n")

	result := gameimport.ParseCSV([]byte(csv))

	require.False(t, result.Success)
	assert.Empty(t, result.Games)

	found := false
	for _, e := range result.Errors {
		if e.Column == "phases_json" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseCSVPhasesNormalized(t *testing.T) {
	csv := strings.Join([]string{
		"game_key,name,short_description,play_mode,main_purpose_id,step_1_title,step_1_body,phases_json",
		`g1,Leken,Beskrivning,facilitated,0b0e8656-6894-4626-b62b-4e7c65eb6d2a,Start,Gör så här,"[{""name"":""Uppvärmning"",""phase_type"":""warmup""},{""phase_order"":5}]"`,
	}, "\n")

	result := gameimport.ParseCSV([]byte(csv))

	require.True(t, result.Success)
	require.Len(t, result.Games, 1)
	phases := result.Games[0].Phases
	require.Len(t, phases, 2)

	assert.Equal(t, 1, phases[0].PhaseOrder)
	assert.Equal(t, "Uppvärmning", phases[0].Name)
	assert.Equal(t, "round", phases[0].PhaseType)
	assert.Equal(t, "countdown", phases[0].TimerStyle)
	assert.True(t, phases[0].TimerVisible)

	assert.Equal(t, 5, phases[1].PhaseOrder)
	assert.Equal(t, "Fas 2", phases[1].Name)
}

func TestParseCSVFacilitatedWithoutPhasesWarns(t *testing.T) {
	csv := strings.Join([]string{
		"game_key,name,short_description,play_mode,main_purpose_id,step_1_title,step_1_body",
		"g1,Leken,Beskrivning,facilitated,0b0e8656-6894-4626-b62b-4e7c65eb6d2a,Start,Gör så här",
	}, "\n")

	result := gameimport.ParseCSV([]byte(csv))

	require.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "phases_json", result.Warnings[0].Column)
}

func TestParseCSVStepWithoutBodyWarns(t *testing.T) {
	csv := strings.Join([]string{
		"game_key,name,short_description,main_purpose_id,step_1_title,step_1_body,step_2_title",
		"g1,Leken,Beskrivning,0b0e8656-6894-4626-b62b-4e7c65eb6d2a,Start,Gör så här,Avslut",
	}, "\n")

	result := gameimport.ParseCSV([]byte(csv))

	require.True(t, result.Success)
	require.Len(t, result.Games, 1)
	require.Len(t, result.Games[0].Steps, 2)
	assert.Equal(t, 2, result.Games[0].Steps[1].StepOrder)
	assert.Equal(t, "", result.Games[0].Steps[1].Body)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "step_2_body", result.Warnings[0].Column)
}

func TestParseCSVEmptyDocument(t *testing.T) {
	result := gameimport.ParseCSV([]byte(""))

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Row)
	assert.Equal(t, "Ingen data hittades i CSV-filen", result.Errors[0].Message)
}

func TestParseCSVHeaderOnly(t *testing.T) {
	result := gameimport.ParseCSV([]byte("game_key,name,short_description\n"))

	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Ingen data hittades i CSV-filen", result.Errors[0].Message)
}

func TestParseCSVStripsHTML(t *testing.T) {
	csv := strings.Join([]string{
		"game_key,name,short_description,description,main_purpose_id,step_1_title,step_1_body",
		"g1,Leken,Beskrivning,<b>Fet</b> text,0b0e8656-6894-4626-b62b-4e7c65eb6d2a,Start,Gör så här",
	}, "\n")

	result := gameimport.ParseCSV([]byte(csv))

	require.True(t, result.Success)
	require.Len(t, result.Games, 1)
	require.NotNil(t, result.Games[0].Description)
	assert.Equal(t, "Fet text", *result.Games[0].Description)
}
