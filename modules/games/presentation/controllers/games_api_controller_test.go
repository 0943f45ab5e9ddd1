package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/gameimport"
	"github.com/lekbanken/lekbanken/modules/games/presentation/controllers/dtos"
	"github.com/lekbanken/lekbanken/modules/games/services"
	"github.com/lekbanken/lekbanken/pkg/configuration"
)

func testImportDefaults() configuration.ImportOptions {
	return configuration.ImportOptions{DefaultStatus: "draft", DefaultLocale: "sv-SE"}
}

func newImportRouter(t *testing.T) *mux.Router {
	t.Helper()
	importSvc := services.NewImportService(services.ImportRepositories{}, nil)
	controller := NewGamesAPIController(nil, importSvc, nil, nil, testImportDefaults())
	r := mux.NewRouter()
	controller.Register(r)
	return r
}

func postImport(t *testing.T, router *mux.Router, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, "/api/games/csv-import", &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestImportEndpoint_RejectsMalformedBody(t *testing.T) {
	rec := postImport(t, newImportRouter(t), "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_body")
}

func TestImportEndpoint_RejectsEmptyData(t *testing.T) {
	rec := postImport(t, newImportRouter(t), dtos.ImportRequest{Data: "   "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ingen data skickades")
}

func TestImportEndpoint_RejectsUnknownFormat(t *testing.T) {
	rec := postImport(t, newImportRouter(t), dtos.ImportRequest{Data: "x", Format: "xml"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Okänt format")
}

func TestImportEndpoint_RejectsUnparsableDocument(t *testing.T) {
	rec := postImport(t, newImportRouter(t), dtos.ImportRequest{
		Data:   "name,short_description\n",
		Format: "csv",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var rejection dtos.ImportRejection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejection))
	assert.False(t, rejection.Success)
	assert.Equal(t, "Inga spel kunde läsas från filen", rejection.Message)
	assert.NotEmpty(t, rejection.Errors)
}

func TestImportEndpoint_DryRunCSV(t *testing.T) {
	csvData := "name,short_description,play_mode,game_key,step_1_title,step_1_body\n" +
		"Skattjakten,En samarbetslek,basic,skattjakten,Samling,Samla alla deltagare."
	rec := postImport(t, newImportRouter(t), dtos.ImportRequest{
		Data:   csvData,
		Format: "csv",
		DryRun: true,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result gameimport.DryRunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.ValidCount)
	require.Len(t, result.Games, 1)
	assert.Equal(t, "skattjakten", result.Games[0].GameKey)
}

func TestImportEndpoint_DryRunReportsInvalidRecords(t *testing.T) {
	payload := `{"games":[{"game_key":"utan-namn","short_description":"En lek","play_mode":"basic","steps":[{"step_order":1,"title":"Ett","body":"Text"}]}]}`
	rec := postImport(t, newImportRouter(t), dtos.ImportRequest{
		Data:   payload,
		Format: "json",
		DryRun: true,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result gameimport.DryRunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
	assert.Equal(t, 0, result.ValidCount)
	assert.Positive(t, result.ErrorCount)
}

func TestImportEndpoint_AllInvalidRecordsRejected(t *testing.T) {
	payload := `{"games":[{"game_key":"utan-namn","short_description":"En lek","play_mode":"basic","steps":[{"step_order":1,"title":"Ett","body":"Text"}]}]}`
	rec := postImport(t, newImportRouter(t), dtos.ImportRequest{
		Data:   payload,
		Format: "json",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var rejection dtos.ImportRejection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejection))
	assert.False(t, rejection.Success)
	assert.Equal(t, "Inga giltiga spel att importera", rejection.Message)
	assert.NotEmpty(t, rejection.Errors)
}

func TestImportEndpoint_CommitFailureStillReturnsResult(t *testing.T) {
	// No pool in the request context, so every record's transaction
	// fails to open. Valid records that fail at commit must come back
	// as a 200 result with per-row errors, not a rejection.
	csvData := "name,short_description,play_mode,game_key,step_1_title,step_1_body\n" +
		"Skattjakten,En samarbetslek,basic,skattjakten,Samling,Samla alla deltagare."
	rec := postImport(t, newImportRouter(t), dtos.ImportRequest{
		Data:   csvData,
		Format: "csv",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result gameimport.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, gameimport.Stats{Total: 1, Skipped: 1}, result.Stats)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "general", result.Errors[0].Column)
}

func TestImportOptions_UseConfiguredDefaults(t *testing.T) {
	controller := NewGamesAPIController(nil, nil, nil, nil, configuration.ImportOptions{
		DefaultStatus: "published",
		DefaultLocale: "en-GB",
	})

	opts := controller.importOptions(dtos.ImportRequest{Upsert: true})

	assert.Equal(t, gameimport.ModeUpsert, opts.Mode)
	assert.Equal(t, game.StatusPublished, opts.DefaultStatus)
	assert.Equal(t, "en-GB", opts.DefaultLocale)
}

func TestImportEndpoint_InvalidGameID(t *testing.T) {
	controller := NewGamesAPIController(nil, nil, nil, nil, testImportDefaults())
	r := mux.NewRouter()
	controller.Register(r)

	req := httptest.NewRequest(http.MethodGet, "/api/games/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ogiltigt spel-id")
}
