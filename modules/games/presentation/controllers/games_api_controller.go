package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/gameimport"
	"github.com/lekbanken/lekbanken/modules/games/presentation/controllers/dtos"
	"github.com/lekbanken/lekbanken/modules/games/services"
	"github.com/lekbanken/lekbanken/pkg/application"
	"github.com/lekbanken/lekbanken/pkg/composables"
	"github.com/lekbanken/lekbanken/pkg/configuration"
	"github.com/lekbanken/lekbanken/pkg/serrors"
)

// GamesAPIController serves the games JSON API: batch import with
// dry-run support, export in three formats, and basic game queries.
type GamesAPIController struct {
	app            application.Application
	importSvc      *services.ImportService
	exportSvc      *services.ExportService
	gameSvc        *services.GameService
	importDefaults configuration.ImportOptions
	basePath       string
}

func NewGamesAPIController(
	app application.Application,
	importSvc *services.ImportService,
	exportSvc *services.ExportService,
	gameSvc *services.GameService,
	importDefaults configuration.ImportOptions,
) *GamesAPIController {
	return &GamesAPIController{
		app:            app,
		importSvc:      importSvc,
		exportSvc:      exportSvc,
		gameSvc:        gameSvc,
		importDefaults: importDefaults,
		basePath:       "/api/games",
	}
}

func (c *GamesAPIController) Key() string {
	return c.basePath
}

func (c *GamesAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/csv-import", c.Import).Methods(http.MethodPost)
	router.HandleFunc("/export", c.Export).Methods(http.MethodGet)
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
}

func (c *GamesAPIController) Import(w http.ResponseWriter, r *http.Request) {
	var req dtos.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, serrors.NewError("invalid_body", "Ogiltig JSON i förfrågan", err.Error()))
		return
	}
	if strings.TrimSpace(req.Data) == "" {
		writeJSONError(w, http.StatusBadRequest, serrors.NewError("empty_data", "Ingen data skickades", ""))
		return
	}

	format := gameimport.Format(req.Format)
	if format == "" {
		format = gameimport.FormatCSV
	}

	var parsed gameimport.ParseResult
	switch format {
	case gameimport.FormatCSV:
		parsed = gameimport.ParseCSV([]byte(req.Data))
	case gameimport.FormatJSON:
		parsed = gameimport.ParseJSON([]byte(req.Data))
	default:
		writeJSONError(w, http.StatusBadRequest, serrors.NewError("invalid_format", fmt.Sprintf("Okänt format: %s", req.Format), ""))
		return
	}

	if len(parsed.Games) == 0 {
		writeJSON(w, http.StatusBadRequest, dtos.ImportRejection{
			Message:  "Inga spel kunde läsas från filen",
			Errors:   parsed.Errors,
			Warnings: parsed.Warnings,
		})
		return
	}

	opts := c.importOptions(req)

	if req.DryRun {
		result := c.importSvc.DryRun(r.Context(), parsed.Games, parsed.Errors, parsed.Warnings, opts)
		writeJSON(w, http.StatusOK, result)
		return
	}

	// 400 is reserved for batches where validation leaves nothing to
	// commit; commit failures are reported in the 200 result body.
	validation := gameimport.ValidateGames(parsed.Games, opts)
	if len(validation.ValidGames) == 0 {
		writeJSON(w, http.StatusBadRequest, dtos.ImportRejection{
			Message:  "Inga giltiga spel att importera",
			Errors:   append(parsed.Errors, validation.AllErrors...),
			Warnings: append(parsed.Warnings, validation.AllWarnings...),
		})
		return
	}

	result := c.importSvc.Import(r.Context(), parsed.Games, opts)

	// Parser warnings ride along so the caller sees the full picture.
	result.Warnings = append(parsed.Warnings, result.Warnings...)
	writeJSON(w, http.StatusOK, result)
}

func (c *GamesAPIController) importOptions(req dtos.ImportRequest) gameimport.Options {
	opts := gameimport.Options{
		Mode:          gameimport.ModeCreate,
		ValidateOnly:  req.DryRun,
		DefaultStatus: game.Status(c.importDefaults.DefaultStatus),
		DefaultLocale: c.importDefaults.DefaultLocale,
	}
	if req.Upsert {
		opts.Mode = gameimport.ModeUpsert
	}
	return opts
}

func (c *GamesAPIController) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	ids, err := parseIDsParam(query.Get("ids"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, serrors.NewError("invalid_ids", "Ogiltigt id i ids-parametern", err.Error()))
		return
	}

	format := query.Get("format")
	if format == "" {
		format = "csv"
	}

	switch format {
	case "json":
		data, err := c.exportSvc.ExportJSON(ctx, ids)
		if err != nil {
			c.writeInternalError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="games-export.json"`)
		_, _ = w.Write(data)
	case "csv":
		data, err := c.exportSvc.ExportCSV(ctx, ids)
		if err != nil {
			c.writeInternalError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="games-export.csv"`)
		_, _ = w.Write(data)
	case "xlsx":
		data, err := c.exportSvc.ExportXLSX(ctx, ids)
		if err != nil {
			c.writeInternalError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="games-export.xlsx"`)
		_, _ = w.Write(data)
	default:
		writeJSONError(w, http.StatusBadRequest, serrors.NewError("invalid_format", fmt.Sprintf("Okänt format: %s", format), ""))
	}
}

func (c *GamesAPIController) List(w http.ResponseWriter, r *http.Request) {
	games, err := c.gameSvc.List(r.Context())
	if err != nil {
		c.writeInternalError(w, r, err)
		return
	}

	items := make([]dtos.GameListItem, 0, len(games))
	for _, g := range games {
		items = append(items, dtos.NewGameListItem(g))
	}
	writeJSON(w, http.StatusOK, dtos.GameListResponse{Games: items, Total: len(items)})
}

func (c *GamesAPIController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, serrors.NewError("invalid_id", "Ogiltigt spel-id", err.Error()))
		return
	}

	g, err := c.gameSvc.GetByID(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeJSONError(w, http.StatusNotFound, serrors.NewError("not_found", "Spelet hittades inte", ""))
			return
		}
		c.writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dtos.NewGameListItem(g))
}

func (c *GamesAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, serrors.NewError("invalid_id", "Ogiltigt spel-id", err.Error()))
		return
	}

	if err := c.gameSvc.Delete(r.Context(), id); err != nil {
		if isNotFound(err) {
			writeJSONError(w, http.StatusNotFound, serrors.NewError("not_found", "Spelet hittades inte", ""))
			return
		}
		c.writeInternalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *GamesAPIController) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	composables.UseLogger(r.Context()).WithError(err).Error("games api request failed")
	writeJSONError(w, http.StatusInternalServerError, serrors.NewError("internal", "Ett internt fel inträffade", ""))
}

func isNotFound(err error) bool {
	return errors.Is(err, game.ErrGameNotFound)
}

func parseIDsParam(raw string) ([]uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
