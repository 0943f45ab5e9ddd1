package gameimport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxInlineSteps bounds the step_N_* column family. Games with more
	// steps must use the JSON format.
	MaxInlineSteps = 20

	maxTextLength = 10000
)

var (
	validPlayModes            = map[string]bool{"basic": true, "facilitated": true, "participants": true}
	validEnergyLevels         = map[string]bool{"low": true, "medium": true, "high": true}
	validLocationTypes        = map[string]bool{"indoor": true, "outdoor": true, "both": true}
	validStatuses             = map[string]bool{"draft": true, "published": true}
	validPhaseTypes           = map[string]bool{"intro": true, "round": true, "finale": true, "break": true}
	validTimerStyles          = map[string]bool{"countdown": true, "elapsed": true, "trafficlight": true}
	validAssignmentStrategies = map[string]bool{"random": true, "leader_picks": true, "player_picks": true}
)

// ParseResult carries the normalized records of one input document.
// Success is false when at least one error-severity issue was found;
// Games still contains every row that parsed cleanly.
type ParseResult struct {
	Success  bool
	Games    []Game
	Errors   []Error
	Warnings []Error
}

// ParseCSV parses a CSV document into canonical import records. Row
// numbers in reported issues are 1-based file lines, so the first data
// row is row 2.
func ParseCSV(content []byte) ParseResult {
	var (
		errs     []Error
		warnings []Error
		games    []Game
	)

	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		errs = append(errs, Error{
			Row:      0,
			Message:  fmt.Sprintf("CSV-filen kunde inte tolkas: %v", err),
			Severity: SeverityError,
		})
		return ParseResult{Success: false, Errors: errs, Warnings: warnings}
	}

	records = dropEmptyRows(records)
	if len(records) < 2 {
		errs = append(errs, Error{
			Row:      0,
			Message:  "Ingen data hittades i CSV-filen",
			Severity: SeverityError,
		})
		return ParseResult{Success: false, Errors: errs, Warnings: warnings}
	}

	headers := records[0]
	for i, record := range records[1:] {
		rowNumber := i + 2

		if len(record) > len(headers) {
			errs = append(errs, Error{
				Row:      rowNumber,
				Message:  fmt.Sprintf("Raden har %d kolumner men rubrikraden har %d. Kontrollera att värden med kommatecken är citerade.", len(record), len(headers)),
				Severity: SeverityError,
			})
			continue
		}

		row := make(map[string]string, len(headers))
		for col, header := range headers {
			if col < len(record) {
				row[strings.TrimSpace(header)] = strings.TrimSpace(record[col])
			} else {
				row[strings.TrimSpace(header)] = ""
			}
		}

		g, rowErrs, rowWarnings := parseGameRow(row, rowNumber)
		errs = append(errs, rowErrs...)
		warnings = append(warnings, rowWarnings...)
		if g != nil {
			games = append(games, *g)
		}
	}

	return ParseResult{
		Success:  !hasErrorSeverity(errs),
		Games:    games,
		Errors:   errs,
		Warnings: warnings,
	}
}

func dropEmptyRows(records [][]string) [][]string {
	kept := records[:0]
	for _, record := range records {
		empty := true
		for _, field := range record {
			if strings.TrimSpace(field) != "" {
				empty = false
				break
			}
		}
		if !empty {
			kept = append(kept, record)
		}
	}
	return kept
}

func hasErrorSeverity(issues []Error) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func parseGameRow(row map[string]string, rowNumber int) (*Game, []Error, []Error) {
	var errs, warnings []Error

	name := sanitizeText(row["name"])
	if name == nil {
		errs = append(errs, Error{Row: rowNumber, Column: "name", Message: "Namn saknas (obligatoriskt)", Severity: SeverityError})
	}

	shortDescription := sanitizeText(row["short_description"])
	if shortDescription == nil {
		errs = append(errs, Error{Row: rowNumber, Column: "short_description", Message: "Kort beskrivning saknas (obligatoriskt)", Severity: SeverityError})
	}

	playMode := strings.ToLower(strings.TrimSpace(row["play_mode"]))
	if playMode == "" {
		playMode = "basic"
	} else if !validPlayModes[playMode] {
		warnings = append(warnings, Error{
			Row:      rowNumber,
			Column:   "play_mode",
			Message:  fmt.Sprintf("Ogiltigt play_mode %q, använder 'basic'", row["play_mode"]),
			Severity: SeverityWarning,
		})
		playMode = "basic"
	}

	gameKey := strings.TrimSpace(row["game_key"])
	if gameKey == "" {
		fallback := "unnamed"
		if name != nil {
			fallback = *name
		}
		gameKey = GenerateGameKey(fallback)
		warnings = append(warnings, Error{
			Row:      rowNumber,
			Column:   "game_key",
			Message:  fmt.Sprintf("game_key saknas, genererade: %s", gameKey),
			Severity: SeverityWarning,
		})
	}

	steps, stepWarnings := parseInlineSteps(row, rowNumber)
	warnings = append(warnings, stepWarnings...)

	if declared := parseIntCell(row["step_count"]); declared != nil && *declared > MaxInlineSteps {
		errs = append(errs, Error{
			Row:      rowNumber,
			Column:   "step_count",
			Message:  fmt.Sprintf("För många steg (%d). Max %d inline steg stöds. Använd JSON-format för fler.", *declared, MaxInlineSteps),
			Severity: SeverityError,
		})
	}

	if len(steps) == 0 {
		errs = append(errs, Error{
			Row:      rowNumber,
			Column:   "step_1_title",
			Message:  "Minst ett steg krävs (step_1_title och step_1_body)",
			Severity: SeverityError,
		})
	}

	var materials *Materials
	if issue := parseJSONCell(row["materials_json"], rowNumber, "materials_json", &materials); issue != nil {
		errs = append(errs, *issue)
	}

	var rawPhases []Phase
	if issue := parseJSONCell(row["phases_json"], rowNumber, "phases_json", &rawPhases); issue != nil {
		errs = append(errs, *issue)
	}
	phases, phaseWarnings := normalizePhases(rawPhases, rowNumber, playMode, "phases_json")
	warnings = append(warnings, phaseWarnings...)

	var rawRoles []Role
	if issue := parseJSONCell(row["roles_json"], rowNumber, "roles_json", &rawRoles); issue != nil {
		errs = append(errs, *issue)
	}
	roles, roleWarnings := normalizeRoles(rawRoles, rowNumber, playMode, "roles_json")
	warnings = append(warnings, roleWarnings...)

	var boardConfig *BoardConfig
	if issue := parseJSONCell(row["board_config_json"], rowNumber, "board_config_json", &boardConfig); issue != nil {
		errs = append(errs, *issue)
	}

	if strings.TrimSpace(row["main_purpose_id"]) == "" {
		warnings = append(warnings, Error{
			Row:      rowNumber,
			Column:   "main_purpose_id",
			Message:  "main_purpose_id saknas - leken kopplas inte till något syfte",
			Severity: SeverityWarning,
		})
	}

	if hasErrorSeverity(errs) {
		return nil, errs, warnings
	}

	status := strings.ToLower(strings.TrimSpace(row["status"]))
	if !validStatuses[status] {
		status = "draft"
	}

	g := &Game{
		GameKey:          gameKey,
		Name:             *name,
		ShortDescription: *shortDescription,
		Description:      sanitizeText(row["description"]),
		PlayMode:         playMode,
		Status:           status,
		Locale:           trimmedOrNil(row["locale"]),

		EnergyLevel:        enumOrNil(row["energy_level"], validEnergyLevels),
		LocationType:       enumOrNil(row["location_type"], validLocationTypes),
		TimeEstimateMin:    parseIntCell(row["time_estimate_min"]),
		DurationMax:        parseIntCell(row["duration_max"]),
		MinPlayers:         parseIntCell(row["min_players"]),
		MaxPlayers:         parseIntCell(row["max_players"]),
		PlayersRecommended: parseIntCell(row["players_recommended"]),
		AgeMin:             parseIntCell(row["age_min"]),
		AgeMax:             parseIntCell(row["age_max"]),
		Difficulty:         trimmedOrNil(row["difficulty"]),
		AccessibilityNotes: sanitizeText(row["accessibility_notes"]),
		SpaceRequirements:  sanitizeText(row["space_requirements"]),
		LeaderTips:         sanitizeText(row["leader_tips"]),

		MainPurposeID: trimmedOrNil(row["main_purpose_id"]),
		ProductID:     trimmedOrNil(row["product_id"]),
		OwnerTenantID: trimmedOrNil(row["owner_tenant_id"]),

		Steps:       steps,
		Materials:   materials,
		Phases:      phases,
		Roles:       roles,
		BoardConfig: boardConfig,
	}
	return g, errs, warnings
}

func parseInlineSteps(row map[string]string, rowNumber int) ([]Step, []Error) {
	var (
		steps    []Step
		warnings []Error
	)

	for i := 1; i <= MaxInlineSteps; i++ {
		titleKey := fmt.Sprintf("step_%d_title", i)
		bodyKey := fmt.Sprintf("step_%d_body", i)
		durationKey := fmt.Sprintf("step_%d_duration", i)

		title := strings.TrimSpace(row[titleKey])
		body := strings.TrimSpace(row[bodyKey])
		if title == "" && body == "" {
			continue
		}

		if title != "" && body == "" {
			warnings = append(warnings, Error{
				Row:      rowNumber,
				Column:   bodyKey,
				Message:  fmt.Sprintf("Steg %d har titel men ingen brödtext", i),
				Severity: SeverityWarning,
			})
		}
		if title == "" && body != "" {
			warnings = append(warnings, Error{
				Row:      rowNumber,
				Column:   titleKey,
				Message:  fmt.Sprintf("Steg %d har brödtext men ingen titel", i),
				Severity: SeverityWarning,
			})
		}

		stepTitle := sanitizeText(title)
		if stepTitle == nil {
			fallback := fmt.Sprintf("Steg %d", i)
			stepTitle = &fallback
		}
		stepBody := ""
		if sanitized := sanitizeText(body); sanitized != nil {
			stepBody = *sanitized
		}

		steps = append(steps, Step{
			StepOrder:       i,
			Title:           *stepTitle,
			Body:            stepBody,
			DurationSeconds: parseIntCell(row[durationKey]),
		})
	}

	return steps, warnings
}

func normalizePhases(phases []Phase, rowNumber int, playMode, column string) ([]Phase, []Error) {
	var warnings []Error
	if len(phases) == 0 {
		if playMode == "facilitated" || playMode == "participants" {
			warnings = append(warnings, Error{
				Row:      rowNumber,
				Column:   column,
				Message:  fmt.Sprintf("play_mode är '%s' men inga faser definierade", playMode),
				Severity: SeverityWarning,
			})
		}
		return nil, warnings
	}

	normalized := make([]Phase, len(phases))
	for i, phase := range phases {
		phase.PhaseOrder = OrderOrIndex(phase.PhaseOrder, i)
		if phase.Name == "" {
			phase.Name = fmt.Sprintf("Fas %d", i+1)
		}
		if !validPhaseTypes[phase.PhaseType] {
			phase.PhaseType = "round"
		}
		if !validTimerStyles[phase.TimerStyle] {
			phase.TimerStyle = "countdown"
		}
		normalized[i] = phase
	}
	return normalized, warnings
}

func normalizeRoles(roles []Role, rowNumber int, playMode, column string) ([]Role, []Error) {
	var warnings []Error
	if len(roles) == 0 {
		if playMode == "participants" {
			warnings = append(warnings, Error{
				Row:      rowNumber,
				Column:   column,
				Message:  "play_mode är 'participants' men inga roller definierade",
				Severity: SeverityWarning,
			})
		}
		return nil, warnings
	}

	normalized := make([]Role, len(roles))
	for i, role := range roles {
		role.RoleOrder = OrderOrIndex(role.RoleOrder, i)
		if role.Name == "" {
			role.Name = fmt.Sprintf("Roll %d", i+1)
		}
		if !validAssignmentStrategies[role.AssignmentStrategy] {
			role.AssignmentStrategy = "random"
		}
		if role.ConflictsWith == nil {
			role.ConflictsWith = []string{}
		}
		normalized[i] = role
	}
	return normalized, warnings
}

func parseJSONCell(value string, rowNumber int, column string, out any) *Error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return &Error{
			Row:      rowNumber,
			Column:   column,
			Message:  fmt.Sprintf("Ogiltig JSON i %s: %v", column, err),
			Severity: SeverityError,
		}
	}
	return nil
}

var (
	htmlTagPattern  = regexp.MustCompile(`<[^>]*>`)
	gameKeyPattern  = regexp.MustCompile(`[^a-z0-9]+`)
	dashTrimPattern = regexp.MustCompile(`^-+|-+$`)
)

func sanitizeText(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	sanitized := htmlTagPattern.ReplaceAllString(value, "")
	if len(sanitized) > maxTextLength {
		sanitized = sanitized[:maxTextLength]
	}
	return &sanitized
}

// GenerateGameKey slugs a display name and appends a random suffix so
// distinct rows with the same name never collide on the upsert key.
func GenerateGameKey(name string) string {
	slug := gameKeyPattern.ReplaceAllString(strings.ToLower(name), "-")
	slug = dashTrimPattern.ReplaceAllString(slug, "")
	if len(slug) > 50 {
		slug = slug[:50]
	}
	if slug == "" {
		slug = "unnamed"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return slug + "-" + suffix
}

func trimmedOrNil(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func enumOrNil(value string, valid map[string]bool) *string {
	value = strings.ToLower(strings.TrimSpace(value))
	if !valid[value] {
		return nil
	}
	return &value
}

func parseIntCell(value string) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}
