// Package gameimport holds the canonical in-memory shape of a game
// import record together with the CSV/JSON normalizers and the batch
// validator. Records live only for the duration of one import call;
// durable rows are derived from them by the import service.
package gameimport

import (
	"encoding/json"

	"github.com/go-faster/errors"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpsert Mode = "upsert"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Error is a row-scoped import error or warning.
type Error struct {
	Row      int      `json:"row"`
	Column   string   `json:"column,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Options drive both validation and the commit loop.
type Options struct {
	Mode          Mode
	ValidateOnly  bool
	DefaultStatus game.Status
	DefaultLocale string
}

type Stats struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Result is the terminal artifact of a commit. Success is false
// whenever at least one record could not be committed; it is a summary
// flag, not a rollback signal.
type Result struct {
	Success  bool    `json:"success"`
	Stats    Stats   `json:"stats"`
	Errors   []Error `json:"errors"`
	Warnings []Error `json:"warnings"`
}

// DryRunGamePreview is a truncated preview of one input record.
type DryRunGamePreview struct {
	RowNumber      int      `json:"row_number"`
	GameKey        string   `json:"game_key"`
	Name           string   `json:"name"`
	PlayMode       string   `json:"play_mode"`
	Status         string   `json:"status"`
	Steps          []Step   `json:"steps"`
	PhasesCount    int      `json:"phases_count"`
	ArtifactsCount int      `json:"artifacts_count"`
	TriggersCount  int      `json:"triggers_count"`
	RolesCount     int      `json:"roles_count"`
	ArtifactTypes  []string `json:"artifact_types"`
}

type DryRunResult struct {
	Valid        bool                `json:"valid"`
	TotalRows    int                 `json:"total_rows"`
	ValidCount   int                 `json:"valid_count"`
	WarningCount int                 `json:"warning_count"`
	ErrorCount   int                 `json:"error_count"`
	Errors       []Error             `json:"errors"`
	Warnings     []Error             `json:"warnings"`
	Games        []DryRunGamePreview `json:"games"`
}

// Game is one canonical import record, independent of source format.
// Child orders fall back to array position when absent in the input.
type Game struct {
	GameKey          string  `json:"game_key"`
	Name             string  `json:"name"`
	ShortDescription string  `json:"short_description"`
	Description      *string `json:"description"`
	PlayMode         string  `json:"play_mode"`
	Status           string  `json:"status"`
	Locale           *string `json:"locale"`

	EnergyLevel        *string `json:"energy_level"`
	LocationType       *string `json:"location_type"`
	TimeEstimateMin    *int    `json:"time_estimate_min"`
	DurationMax        *int    `json:"duration_max"`
	MinPlayers         *int    `json:"min_players"`
	MaxPlayers         *int    `json:"max_players"`
	PlayersRecommended *int    `json:"players_recommended"`
	AgeMin             *int    `json:"age_min"`
	AgeMax             *int    `json:"age_max"`
	Difficulty         *string `json:"difficulty"`
	AccessibilityNotes *string `json:"accessibility_notes"`
	SpaceRequirements  *string `json:"space_requirements"`
	LeaderTips         *string `json:"leader_tips"`

	MainPurposeID  *string  `json:"main_purpose_id"`
	SubPurposeIDs  []string `json:"sub_purpose_ids"`
	ProductID      *string  `json:"product_id"`
	OwnerTenantID  *string  `json:"owner_tenant_id"`

	Steps       []Step       `json:"steps"`
	Materials   *Materials   `json:"materials"`
	Phases      []Phase      `json:"phases"`
	Roles       []Role       `json:"roles"`
	BoardConfig *BoardConfig `json:"board_config"`
	Artifacts   []Artifact   `json:"artifacts"`
	Triggers    []Trigger    `json:"triggers"`
}

type Step struct {
	StepOrder         int     `json:"step_order"`
	Title             string  `json:"title"`
	Body              string  `json:"body"`
	DurationSeconds   *int    `json:"duration_seconds"`
	LeaderScript      *string `json:"leader_script"`
	ParticipantPrompt *string `json:"participant_prompt"`
	BoardText         *string `json:"board_text"`
	Optional          bool    `json:"optional"`
}

type Materials struct {
	Items       []string `json:"items"`
	SafetyNotes *string  `json:"safety_notes"`
	Preparation *string  `json:"preparation"`
}

type Phase struct {
	PhaseOrder      int     `json:"phase_order"`
	Name            string  `json:"name"`
	PhaseType       string  `json:"phase_type"`
	DurationSeconds *int    `json:"duration_seconds"`
	TimerVisible    bool    `json:"timer_visible"`
	TimerStyle      string  `json:"timer_style"`
	Description     *string `json:"description"`
	BoardMessage    *string `json:"board_message"`
	AutoAdvance     bool    `json:"auto_advance"`
}

// UnmarshalJSON defaults timer_visible to true when the field is
// absent; a plain bool would silently turn absence into false.
func (p *Phase) UnmarshalJSON(data []byte) error {
	type alias Phase
	shadow := struct {
		*alias
		TimerVisible *bool `json:"timer_visible"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	p.TimerVisible = shadow.TimerVisible == nil || *shadow.TimerVisible
	return nil
}

type Role struct {
	RoleOrder           int            `json:"role_order"`
	Name                string         `json:"name"`
	Icon                *string        `json:"icon"`
	Color               *string        `json:"color"`
	PublicDescription   *string        `json:"public_description"`
	PrivateInstructions string         `json:"private_instructions"`
	PrivateHints        *string        `json:"private_hints"`
	MinCount            int            `json:"min_count"`
	MaxCount            *int           `json:"max_count"`
	AssignmentStrategy  string         `json:"assignment_strategy"`
	ScalingRules        map[string]int `json:"scaling_rules"`
	ConflictsWith       []string       `json:"conflicts_with"`
}

// UnmarshalJSON defaults min_count to 1 when the field is absent.
func (r *Role) UnmarshalJSON(data []byte) error {
	type alias Role
	shadow := struct {
		*alias
		MinCount *int `json:"min_count"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}
	if shadow.MinCount != nil {
		r.MinCount = *shadow.MinCount
	} else {
		r.MinCount = 1
	}
	return nil
}

type BoardConfig struct {
	ShowGameName     bool    `json:"show_game_name"`
	ShowCurrentPhase bool    `json:"show_current_phase"`
	ShowTimer        bool    `json:"show_timer"`
	ShowParticipants bool    `json:"show_participants"`
	ShowPublicRoles  bool    `json:"show_public_roles"`
	ShowLeaderboard  bool    `json:"show_leaderboard"`
	ShowQRCode       bool    `json:"show_qr_code"`
	WelcomeMessage   *string `json:"welcome_message"`
	Theme            string  `json:"theme"`
	BackgroundColor  *string `json:"background_color"`
	LayoutVariant    string  `json:"layout_variant"`
}

func (b *BoardConfig) UnmarshalJSON(data []byte) error {
	type alias BoardConfig
	shadow := (*alias)(b)
	if err := json.Unmarshal(data, shadow); err != nil {
		return err
	}
	if b.Theme == "" {
		b.Theme = "neutral"
	}
	if b.LayoutVariant == "" {
		b.LayoutVariant = "standard"
	}
	return nil
}

type Artifact struct {
	ArtifactOrder int               `json:"artifact_order"`
	Locale        *string           `json:"locale"`
	Title         string            `json:"title"`
	Description   *string           `json:"description"`
	ArtifactType  string            `json:"artifact_type"`
	Tags          []string          `json:"tags"`
	Metadata      map[string]any    `json:"metadata"`
	Variants      []ArtifactVariant `json:"variants"`
}

// ArtifactVariant may reference a role by explicit ID, by role order,
// or by role name (case-insensitive). At most one path resolves; when
// none does, the variant is not role-restricted.
type ArtifactVariant struct {
	VariantOrder       int            `json:"variant_order"`
	Visibility         string         `json:"visibility"`
	VisibleToRoleID    *string        `json:"visible_to_role_id"`
	VisibleToRoleOrder *int           `json:"visible_to_role_order"`
	VisibleToRoleName  *string        `json:"visible_to_role_name"`
	Title              *string        `json:"title"`
	Body               *string        `json:"body"`
	MediaRef           *string        `json:"media_ref"`
	Metadata           map[string]any `json:"metadata"`
}

// Trigger is the parsed form of an automation rule. Condition and
// actions are tagged unions; unknown types stay raw.
type Trigger struct {
	Name         string
	Description  *string
	Enabled      bool
	Condition    game.TriggerCondition
	Actions      []game.TriggerAction
	ExecuteOnce  bool
	DelaySeconds int
	SortOrder    int

	// sortOrderSet tracks whether the input carried an explicit
	// sort_order; absent values default to the trigger's index.
	sortOrderSet bool
}

func (t *Trigger) UnmarshalJSON(data []byte) error {
	var shadow struct {
		Name         string            `json:"name"`
		Description  *string           `json:"description"`
		Enabled      *bool             `json:"enabled"`
		Condition    json.RawMessage   `json:"condition"`
		Actions      []json.RawMessage `json:"actions"`
		ExecuteOnce  *bool             `json:"execute_once"`
		DelaySeconds *int              `json:"delay_seconds"`
		SortOrder    *int              `json:"sort_order"`
	}
	if err := json.Unmarshal(data, &shadow); err != nil {
		return err
	}

	t.Name = shadow.Name
	t.Description = shadow.Description
	t.Enabled = shadow.Enabled == nil || *shadow.Enabled
	t.ExecuteOnce = shadow.ExecuteOnce != nil && *shadow.ExecuteOnce
	if shadow.DelaySeconds != nil {
		t.DelaySeconds = *shadow.DelaySeconds
	}
	if shadow.SortOrder != nil {
		t.SortOrder = *shadow.SortOrder
		t.sortOrderSet = true
	}

	if len(shadow.Condition) > 0 {
		cond, err := game.UnmarshalCondition(shadow.Condition)
		if err != nil {
			return errors.Wrap(err, "trigger condition")
		}
		t.Condition = cond
	}
	t.Actions = make([]game.TriggerAction, 0, len(shadow.Actions))
	for _, raw := range shadow.Actions {
		action, err := game.UnmarshalAction(raw)
		if err != nil {
			return errors.Wrap(err, "trigger action")
		}
		t.Actions = append(t.Actions, action)
	}
	return nil
}

// MarshalJSON emits the same wire shape UnmarshalJSON accepts, with
// the type discriminant injected into condition and actions.
func (t Trigger) MarshalJSON() ([]byte, error) {
	var condition json.RawMessage
	if t.Condition != nil {
		data, err := game.MarshalCondition(t.Condition)
		if err != nil {
			return nil, err
		}
		condition = data
	}
	actions, err := game.MarshalActions(t.Actions)
	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		Name         string          `json:"name"`
		Description  *string         `json:"description,omitempty"`
		Enabled      bool            `json:"enabled"`
		Condition    json.RawMessage `json:"condition,omitempty"`
		Actions      json.RawMessage `json:"actions"`
		ExecuteOnce  bool            `json:"execute_once"`
		DelaySeconds int             `json:"delay_seconds"`
		SortOrder    int             `json:"sort_order"`
	}{
		Name:         t.Name,
		Description:  t.Description,
		Enabled:      t.Enabled,
		Condition:    condition,
		Actions:      actions,
		ExecuteOnce:  t.ExecuteOnce,
		DelaySeconds: t.DelaySeconds,
		SortOrder:    t.SortOrder,
	})
}

// SortOrderOrDefault returns the explicit sort order, or the trigger's
// position in the input when the payload carried none.
func (t *Trigger) SortOrderOrDefault(index int) int {
	if t.sortOrderSet {
		return t.SortOrder
	}
	return index
}

// OrderOrIndex falls back to 1-based array position when the explicit
// order is zero-valued.
func OrderOrIndex(order, index int) int {
	if order != 0 {
		return order
	}
	return index + 1
}
