package gameimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON parses a JSON document into canonical import records. The
// payload is either a bare array of games or an object with a "games"
// key. Issue rows use the same numbering as the CSV path, so the first
// record is row 2.
func ParseJSON(content []byte) ParseResult {
	var (
		errs     []Error
		warnings []Error
	)

	content = bytes.TrimSpace(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf")))

	var games []Game
	if bytes.HasPrefix(content, []byte("[")) {
		if err := json.Unmarshal(content, &games); err != nil {
			errs = append(errs, Error{Row: 0, Message: fmt.Sprintf("Kunde inte tolka JSON-data: %v", err), Severity: SeverityError})
			return ParseResult{Success: false, Errors: errs}
		}
	} else {
		var payload struct {
			Games []Game `json:"games"`
		}
		if err := json.Unmarshal(content, &payload); err != nil {
			errs = append(errs, Error{Row: 0, Message: fmt.Sprintf("Kunde inte tolka JSON-data: %v", err), Severity: SeverityError})
			return ParseResult{Success: false, Errors: errs}
		}
		games = payload.Games
	}

	if len(games) == 0 {
		errs = append(errs, Error{Row: 0, Message: "Inga spel hittades i JSON-datan", Severity: SeverityError})
		return ParseResult{Success: false, Errors: errs}
	}

	for i := range games {
		rowNumber := i + 2
		normalizeJSONGame(&games[i], rowNumber, &warnings)
	}

	return ParseResult{
		Success:  !hasErrorSeverity(errs),
		Games:    games,
		Errors:   errs,
		Warnings: warnings,
	}
}

// normalizeJSONGame fills the same defaults the CSV row parser applies,
// so downstream validation and commit see one canonical shape.
func normalizeJSONGame(g *Game, rowNumber int, warnings *[]Error) {
	playMode := strings.ToLower(strings.TrimSpace(g.PlayMode))
	if playMode == "" {
		playMode = "basic"
	} else if !validPlayModes[playMode] {
		*warnings = append(*warnings, Error{
			Row:      rowNumber,
			Column:   "play_mode",
			Message:  fmt.Sprintf("Ogiltigt play_mode %q, använder 'basic'", g.PlayMode),
			Severity: SeverityWarning,
		})
		playMode = "basic"
	}
	g.PlayMode = playMode

	status := strings.ToLower(strings.TrimSpace(g.Status))
	if !validStatuses[status] {
		status = "draft"
	}
	g.Status = status

	if strings.TrimSpace(g.GameKey) == "" {
		fallback := g.Name
		if fallback == "" {
			fallback = "unnamed"
		}
		g.GameKey = GenerateGameKey(fallback)
		*warnings = append(*warnings, Error{
			Row:      rowNumber,
			Column:   "game_key",
			Message:  fmt.Sprintf("game_key saknas, genererade: %s", g.GameKey),
			Severity: SeverityWarning,
		})
	}

	for i := range g.Steps {
		g.Steps[i].StepOrder = OrderOrIndex(g.Steps[i].StepOrder, i)
		if g.Steps[i].Title == "" {
			g.Steps[i].Title = fmt.Sprintf("Steg %d", i+1)
		}
	}

	phases, phaseWarnings := normalizePhases(g.Phases, rowNumber, playMode, "phases")
	g.Phases = phases
	*warnings = append(*warnings, phaseWarnings...)

	roles, roleWarnings := normalizeRoles(g.Roles, rowNumber, playMode, "roles")
	g.Roles = roles
	*warnings = append(*warnings, roleWarnings...)

	for i := range g.Artifacts {
		artifact := &g.Artifacts[i]
		artifact.ArtifactOrder = OrderOrIndex(artifact.ArtifactOrder, i)
		if artifact.Metadata == nil {
			artifact.Metadata = map[string]any{}
		}
		for j := range artifact.Variants {
			variant := &artifact.Variants[j]
			variant.VariantOrder = OrderOrIndex(variant.VariantOrder, j)
			if variant.Visibility == "" {
				variant.Visibility = "public"
			}
		}
	}

	for i := range g.Triggers {
		g.Triggers[i].SortOrder = g.Triggers[i].SortOrderOrDefault(i)
	}
}
