package gameimport

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// knownArtifactTypes is the closed set the runtime understands today.
// Unknown types are warnings, not errors, so content authored for a
// newer runtime still imports.
var knownArtifactTypes = map[string]bool{
	"card": true, "document": true, "image": true, "conversation_cards_collection": true,
	"keypad": true, "riddle": true, "multi_answer": true, "audio": true, "hotspot": true,
	"tile_puzzle": true, "cipher": true, "logic_grid": true, "counter": true, "qr_gate": true,
	"hint_container": true, "prop_confirmation": true, "location_check": true,
	"sound_level": true, "replay_marker": true, "signal_generator": true,
	"time_bank_step": true, "empty_artifact": true,
}

// Unknown condition and action types are hard errors: a trigger the
// runtime cannot evaluate would fail mid-session.
var knownConditionTypes = map[string]bool{
	"step_started": true, "step_completed": true, "phase_started": true, "phase_completed": true,
	"decision_resolved": true, "timer_ended": true, "artifact_unlocked": true,
	"keypad_correct": true, "keypad_failed": true, "manual": true, "signal_received": true,
	"counter_reached": true, "riddle_correct": true, "audio_acknowledged": true,
	"multi_answer_complete": true, "scan_verified": true, "hint_requested": true,
	"hotspot_found": true, "hotspot_hunt_complete": true, "tile_puzzle_complete": true,
	"cipher_decoded": true, "prop_confirmed": true, "prop_rejected": true,
	"location_verified": true, "logic_grid_solved": true, "sound_level_triggered": true,
	"replay_marker_added": true, "time_bank_expired": true, "signal_generator_triggered": true,
}

var knownActionTypes = map[string]bool{
	"reveal_artifact": true, "hide_artifact": true, "unlock_decision": true, "lock_decision": true,
	"advance_step": true, "advance_phase": true, "start_timer": true, "send_message": true,
	"play_sound": true, "show_countdown": true, "reset_keypad": true, "send_signal": true,
	"time_bank_apply_delta": true, "increment_counter": true, "reset_counter": true,
	"reset_riddle": true, "send_hint": true, "reset_scan_gate": true, "reset_hotspot_hunt": true,
	"reset_tile_puzzle": true, "reset_cipher": true, "reset_prop": true, "reset_location": true,
	"reset_logic_grid": true, "reset_sound_meter": true, "add_replay_marker": true,
	"show_leader_script": true, "trigger_signal": true, "time_bank_pause": true,
}

// secretPattern flags 4-6 digit sequences in fields rendered without
// auth. Keypad codes leak this way.
var secretPattern = regexp.MustCompile(`\b\d{4,6}\b`)

type ValidationResult struct {
	IsValid  bool
	Errors   []Error
	Warnings []Error
}

// BatchValidation partitions a batch into committable and rejected
// records. A record with at least one error-severity issue is rejected.
type BatchValidation struct {
	ValidGames   []Game
	InvalidGames []Game
	AllErrors    []Error
	AllWarnings  []Error
}

// ValidateGames validates every record of a batch. Row numbers follow
// the input file convention: record i reports as row i+2.
func ValidateGames(games []Game, opts Options) BatchValidation {
	var result BatchValidation
	for i, g := range games {
		rowNumber := i + 2
		r := ValidateGame(g, rowNumber, opts)
		result.AllErrors = append(result.AllErrors, r.Errors...)
		result.AllWarnings = append(result.AllWarnings, r.Warnings...)
		if r.IsValid {
			result.ValidGames = append(result.ValidGames, g)
		} else {
			result.InvalidGames = append(result.InvalidGames, g)
		}
	}
	return result
}

// ValidateGame applies the full rule set to one record.
func ValidateGame(g Game, rowNumber int, _ Options) ValidationResult {
	var errs, warnings []Error

	addError := func(column, message string) {
		errs = append(errs, Error{Row: rowNumber, Column: column, Message: message, Severity: SeverityError})
	}
	addWarning := func(column, message string) {
		warnings = append(warnings, Error{Row: rowNumber, Column: column, Message: message, Severity: SeverityWarning})
	}

	if strings.TrimSpace(g.Name) == "" {
		addError("name", "Namn saknas (obligatoriskt)")
	} else if len(g.Name) > 200 {
		addError("name", fmt.Sprintf("Namn för långt (%d tecken, max 200)", len(g.Name)))
	}

	if strings.TrimSpace(g.ShortDescription) == "" {
		addError("short_description", "Kort beskrivning saknas (obligatoriskt)")
	} else if len(g.ShortDescription) > 500 {
		addError("short_description", fmt.Sprintf("Kort beskrivning för lång (%d tecken, max 500)", len(g.ShortDescription)))
	}

	if strings.TrimSpace(g.GameKey) == "" {
		addWarning("game_key", "game_key saknas (genereras automatiskt)")
	}

	if !validPlayModes[g.PlayMode] {
		addError("play_mode", fmt.Sprintf("Ogiltigt play_mode: %s", g.PlayMode))
	}

	if len(g.Steps) == 0 {
		addError("steps", "Minst ett steg krävs")
	}

	if g.MainPurposeID == nil {
		addWarning("main_purpose_id", "main_purpose_id saknas - leken kopplas inte till något syfte")
	} else if !isValidUUID(*g.MainPurposeID) {
		addError("main_purpose_id", "main_purpose_id är inte ett giltigt UUID")
	}

	for _, purposeID := range g.SubPurposeIDs {
		if !isValidUUID(purposeID) {
			addError("sub_purpose_ids", "sub_purpose_ids innehåller ogiltigt UUID")
			break
		}
	}

	if g.ProductID != nil && !isValidUUID(*g.ProductID) {
		addError("product_id", "product_id är inte ett giltigt UUID")
	}
	if g.OwnerTenantID != nil && !isValidUUID(*g.OwnerTenantID) {
		addError("owner_tenant_id", "owner_tenant_id är inte ett giltigt UUID")
	}

	if g.MinPlayers != nil && g.MaxPlayers != nil && *g.MinPlayers > *g.MaxPlayers {
		addError("min_players", fmt.Sprintf("min_players (%d) > max_players (%d)", *g.MinPlayers, *g.MaxPlayers))
	}
	if g.AgeMin != nil && g.AgeMax != nil && *g.AgeMin > *g.AgeMax {
		addError("age_min", fmt.Sprintf("age_min (%d) > age_max (%d)", *g.AgeMin, *g.AgeMax))
	}

	if g.PlayMode == "facilitated" && len(g.Phases) == 0 {
		addWarning("phases", "play_mode är 'facilitated' men inga faser definierade")
	}
	if g.PlayMode == "participants" && len(g.Roles) == 0 {
		addWarning("roles", "play_mode är 'participants' men inga roller definierade")
	}

	validateSteps(g, addError, addWarning)
	validateRoleRecords(g, addError, addWarning)

	for i, phase := range g.Phases {
		if strings.TrimSpace(phase.Name) == "" {
			addError("phases", fmt.Sprintf("Fas %d saknar namn", i+1))
		}
	}

	validateArtifacts(g, addError, addWarning)
	validateTriggers(g, addError)

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs, Warnings: warnings}
}

func validateSteps(g Game, addError, addWarning func(column, message string)) {
	gameKey := gameKeyOrUnknown(g)

	for i, step := range g.Steps {
		if strings.TrimSpace(step.Title) == "" {
			addWarning(fmt.Sprintf("step_%d_title", i+1), fmt.Sprintf("Steg %d saknar titel", i+1))
		}
		if strings.TrimSpace(step.Body) == "" {
			addWarning(fmt.Sprintf("step_%d_body", i+1), fmt.Sprintf("Steg %d saknar brödtext", i+1))
		}
		if step.DurationSeconds != nil && *step.DurationSeconds < 0 {
			addError(fmt.Sprintf("step_%d_duration", i+1), fmt.Sprintf("Steg %d har negativ duration", i+1))
		}

		if step.BoardText != nil {
			if match := secretPattern.FindString(*step.BoardText); match != "" {
				addWarning(fmt.Sprintf("step_%d_board_text", i+1),
					fmt.Sprintf("[game_key: %s] Steg %d board_text innehåller vad som kan vara en kod (%s). board_text visas publikt utan auth!", gameKey, i+1, match))
			}
		}
		if step.ParticipantPrompt != nil {
			if match := secretPattern.FindString(*step.ParticipantPrompt); match != "" {
				addWarning(fmt.Sprintf("step_%d_participant_prompt", i+1),
					fmt.Sprintf("[game_key: %s] Steg %d participant_prompt innehåller vad som kan vara en kod (%s). participant_prompt visas till alla deltagare!", gameKey, i+1, match))
			}
		}
	}
}

func validateRoleRecords(g Game, addError, addWarning func(column, message string)) {
	for i, role := range g.Roles {
		if strings.TrimSpace(role.Name) == "" {
			addError("roles", fmt.Sprintf("Roll %d saknar namn", i+1))
		}
		if strings.TrimSpace(role.PrivateInstructions) == "" {
			addWarning("roles", fmt.Sprintf("Roll %d (%s) saknar privata instruktioner", i+1, role.Name))
		}
		if role.MaxCount != nil && role.MinCount > *role.MaxCount {
			addError("roles", fmt.Sprintf("Roll %s: min_count > max_count", role.Name))
		}
	}
}

func validateArtifacts(g Game, addError, addWarning func(column, message string)) {
	gameKey := gameKeyOrUnknown(g)

	for i, artifact := range g.Artifacts {
		title := artifact.Title
		if title == "" {
			title = fmt.Sprintf("Artifact #%d", i+1)
		}

		if artifact.ArtifactType != "" && !knownArtifactTypes[artifact.ArtifactType] {
			addWarning("artifacts", fmt.Sprintf("[game_key: %s] Artefakt %q: okänd artifact_type %q.", gameKey, title, artifact.ArtifactType))
		}

		if artifact.ArtifactType == "keypad" {
			validateKeypadMetadata(gameKey, title, artifact.Metadata, addError)
		}

		for j, variant := range artifact.Variants {
			if variant.Visibility == "role_private" {
				hasRoleRef := variant.VisibleToRoleID != nil || variant.VisibleToRoleOrder != nil || variant.VisibleToRoleName != nil
				if !hasRoleRef {
					addError("artifacts", fmt.Sprintf("[game_key: %s] Artefakt %q, variant #%d: visibility='role_private' men saknar rollreferens. Fix: lägg till visible_to_role_order, visible_to_role_id, eller visible_to_role_name.", gameKey, title, j+1))
				}
			}
			if variant.Visibility == "public" && variant.Body != nil {
				if match := secretPattern.FindString(*variant.Body); match != "" {
					addWarning("artifacts", fmt.Sprintf("[game_key: %s] Artefakt %q, variant #%d: public variant innehåller vad som kan vara en kod (%s). Säkerställ att detta inte är en hemlighet.", gameKey, title, j+1, match))
				}
			}
		}
	}
}

func validateKeypadMetadata(gameKey, title string, metadata map[string]any, addError func(column, message string)) {
	if metadata == nil {
		addError("artifacts", fmt.Sprintf("[game_key: %s] Keypad %q saknar metadata. Fix: lägg till metadata-objekt med correctCode.", gameKey, title))
		return
	}

	correctCode, ok := metadata["correctCode"]
	if !ok || correctCode == nil {
		addError("artifacts", fmt.Sprintf("[game_key: %s] Keypad %q saknar correctCode i metadata.", gameKey, title))
		return
	}

	switch code := correctCode.(type) {
	case string:
	case float64:
		// Numbers drop leading zeros somewhere between authoring and
		// storage, which silently changes the code.
		addError("artifacts", fmt.Sprintf("[game_key: %s] Keypad %q: correctCode är ett tal (%v), leading zeros kan ha gått förlorade! Fix: ange correctCode som sträng %q.", gameKey, title, code, fmt.Sprintf("%04d", int(code))))
	default:
		addError("artifacts", fmt.Sprintf("[game_key: %s] Keypad %q: correctCode måste vara en sträng, fick %T.", gameKey, title, correctCode))
	}
}

func validateTriggers(g Game, addError func(column, message string)) {
	gameKey := gameKeyOrUnknown(g)

	for i, trigger := range g.Triggers {
		name := trigger.Name
		if name == "" {
			name = fmt.Sprintf("Trigger #%d", i+1)
		}

		if trigger.Condition != nil {
			if conditionType := trigger.Condition.ConditionType(); conditionType != "" && !knownConditionTypes[conditionType] {
				addError("triggers", fmt.Sprintf("[game_key: %s] Trigger %q: okänd condition.type %q.", gameKey, name, conditionType))
			}
		}
		for j, action := range trigger.Actions {
			if action == nil {
				continue
			}
			if actionType := action.ActionType(); actionType != "" && !knownActionTypes[actionType] {
				addError("triggers", fmt.Sprintf("[game_key: %s] Trigger %q, action #%d: okänd action type %q.", gameKey, name, j+1, actionType))
			}
		}
	}
}

func gameKeyOrUnknown(g Game) string {
	if g.GameKey != "" {
		return g.GameKey
	}
	return "unknown"
}

func isValidUUID(value string) bool {
	return validate.Var(value, "uuid") == nil
}
