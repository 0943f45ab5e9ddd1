package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/gameimport"
)

// ExportService renders stored games back into the import formats, so
// an exported file can be re-imported as-is. Trigger and variant
// references are converted back to positional aliases to keep the
// output portable across environments.
type ExportService struct {
	repos ImportRepositories
}

func NewExportService(repos ImportRepositories) *ExportService {
	return &ExportService{repos: repos}
}

var exportHeaders = []string{
	"game_key", "name", "short_description", "description", "play_mode", "status", "locale",
	"energy_level", "location_type", "time_estimate_min", "duration_max",
	"min_players", "max_players", "players_recommended", "age_min", "age_max",
	"difficulty", "accessibility_notes", "space_requirements", "leader_tips",
	"main_purpose_id", "product_id", "owner_tenant_id", "step_count",
}

// ExportJSON renders the selected games (all when ids is empty) as a
// {"games": [...]} document.
func (s *ExportService) ExportJSON(ctx context.Context, ids []uuid.UUID) ([]byte, error) {
	records, err := s.exportableGames(ctx, ids)
	if err != nil {
		return nil, err
	}

	payload := struct {
		Games []gameimport.Game `json:"games"`
	}{Games: records}
	return json.MarshalIndent(payload, "", "  ")
}

// ExportCSV renders the selected games as a CSV document with inline
// step columns and JSON cells for nested collections. Artifacts and
// triggers are omitted; they only survive the JSON format. The output
// starts with a UTF-8 BOM so Excel opens it correctly.
func (s *ExportService) ExportCSV(ctx context.Context, ids []uuid.UUID) ([]byte, error) {
	records, err := s.exportableGames(ctx, ids)
	if err != nil {
		return nil, err
	}

	maxSteps := 0
	for _, record := range records {
		if len(record.Steps) > maxSteps {
			maxSteps = len(record.Steps)
		}
	}
	if maxSteps > gameimport.MaxInlineSteps {
		maxSteps = gameimport.MaxInlineSteps
	}

	var buf bytes.Buffer
	buf.WriteString("\xef\xbb\xbf")
	writer := csv.NewWriter(&buf)

	if err := writer.Write(buildExportHeader(maxSteps)); err != nil {
		return nil, errors.Wrap(err, "failed to write csv header")
	}
	for _, record := range records {
		row, err := buildExportRow(record, maxSteps)
		if err != nil {
			return nil, err
		}
		if err := writer.Write(row); err != nil {
			return nil, errors.Wrap(err, "failed to write csv row")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to flush csv")
	}
	return buf.Bytes(), nil
}

// ExportXLSX renders the same table as ExportCSV into an xlsx
// workbook.
func (s *ExportService) ExportXLSX(ctx context.Context, ids []uuid.UUID) ([]byte, error) {
	records, err := s.exportableGames(ctx, ids)
	if err != nil {
		return nil, err
	}

	maxSteps := 0
	for _, record := range records {
		if len(record.Steps) > maxSteps {
			maxSteps = len(record.Steps)
		}
	}
	if maxSteps > gameimport.MaxInlineSteps {
		maxSteps = gameimport.MaxInlineSteps
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Games"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range buildExportHeader(maxSteps) {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, errors.Wrap(err, "invalid header cell")
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, errors.Wrap(err, "failed to set header cell")
		}
	}

	for i, record := range records {
		row, err := buildExportRow(record, maxSteps)
		if err != nil {
			return nil, err
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, errors.Wrap(err, "invalid data cell")
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, errors.Wrap(err, "failed to set data cell")
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize workbook")
	}
	return buf.Bytes(), nil
}

func buildExportHeader(maxSteps int) []string {
	header := append([]string{}, exportHeaders...)
	for i := 1; i <= maxSteps; i++ {
		header = append(header,
			fmt.Sprintf("step_%d_title", i),
			fmt.Sprintf("step_%d_body", i),
			fmt.Sprintf("step_%d_duration", i),
		)
	}
	return append(header, "materials_json", "phases_json", "roles_json", "board_config_json")
}

func buildExportRow(record gameimport.Game, maxSteps int) ([]string, error) {
	row := []string{
		record.GameKey,
		record.Name,
		record.ShortDescription,
		stringValue(record.Description),
		record.PlayMode,
		record.Status,
		stringValue(record.Locale),
		stringValue(record.EnergyLevel),
		stringValue(record.LocationType),
		intValue(record.TimeEstimateMin),
		intValue(record.DurationMax),
		intValue(record.MinPlayers),
		intValue(record.MaxPlayers),
		intValue(record.PlayersRecommended),
		intValue(record.AgeMin),
		intValue(record.AgeMax),
		stringValue(record.Difficulty),
		stringValue(record.AccessibilityNotes),
		stringValue(record.SpaceRequirements),
		stringValue(record.LeaderTips),
		stringValue(record.MainPurposeID),
		stringValue(record.ProductID),
		stringValue(record.OwnerTenantID),
		strconv.Itoa(len(record.Steps)),
	}

	for i := 0; i < maxSteps; i++ {
		if i < len(record.Steps) {
			step := record.Steps[i]
			row = append(row, step.Title, step.Body, intValue(step.DurationSeconds))
		} else {
			row = append(row, "", "", "")
		}
	}

	materialsCell, err := jsonCell(record.Materials)
	if err != nil {
		return nil, err
	}
	phasesCell, err := jsonCellSlice(record.Phases)
	if err != nil {
		return nil, err
	}
	rolesCell, err := jsonCellSlice(record.Roles)
	if err != nil {
		return nil, err
	}
	boardCell, err := jsonCell(record.BoardConfig)
	if err != nil {
		return nil, err
	}
	return append(row, materialsCell, phasesCell, rolesCell, boardCell), nil
}

func (s *ExportService) exportableGames(ctx context.Context, ids []uuid.UUID) ([]gameimport.Game, error) {
	entities, err := s.repos.Games.List(ctx)
	if err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		wanted := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
		filtered := entities[:0]
		for _, entity := range entities {
			if wanted[entity.ID] {
				filtered = append(filtered, entity)
			}
		}
		entities = filtered
	}

	records := make([]gameimport.Game, 0, len(entities))
	for _, entity := range entities {
		record, err := s.exportableGame(ctx, entity)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *ExportService) exportableGame(ctx context.Context, entity *game.Game) (gameimport.Game, error) {
	record := gameimport.Game{
		GameKey:            entity.GameKey,
		Name:               entity.Name,
		ShortDescription:   entity.ShortDescription,
		Description:        entity.Description,
		PlayMode:           string(entity.PlayMode),
		Status:             string(entity.Status),
		Locale:             entity.Locale,
		EnergyLevel:        entity.EnergyLevel,
		LocationType:       entity.LocationType,
		TimeEstimateMin:    entity.TimeEstimateMin,
		DurationMax:        entity.DurationMax,
		MinPlayers:         entity.MinPlayers,
		MaxPlayers:         entity.MaxPlayers,
		PlayersRecommended: entity.PlayersRecommended,
		AgeMin:             entity.AgeMin,
		AgeMax:             entity.AgeMax,
		Difficulty:         entity.Difficulty,
		AccessibilityNotes: entity.AccessibilityNotes,
		SpaceRequirements:  entity.SpaceRequirements,
		LeaderTips:         entity.LeaderTips,
		MainPurposeID:      uuidString(entity.MainPurposeID),
		ProductID:          uuidString(entity.ProductID),
		OwnerTenantID:      uuidString(entity.OwnerTenantID),
	}

	purposeIDs, err := s.repos.SecondaryPurposes.ListByGame(ctx, entity.ID)
	if err != nil {
		return gameimport.Game{}, err
	}
	for _, id := range purposeIDs {
		record.SubPurposeIDs = append(record.SubPurposeIDs, id.String())
	}

	steps, err := s.repos.Steps.ListByGame(ctx, entity.ID)
	if err != nil {
		return gameimport.Game{}, err
	}
	stepOrderByID := map[string]int{}
	for _, step := range steps {
		stepOrderByID[step.ID.String()] = step.StepOrder
		record.Steps = append(record.Steps, gameimport.Step{
			StepOrder:         step.StepOrder,
			Title:             step.Title,
			Body:              step.Body,
			DurationSeconds:   step.DurationSeconds,
			LeaderScript:      step.LeaderScript,
			ParticipantPrompt: step.ParticipantPrompt,
			BoardText:         step.BoardText,
			Optional:          step.Optional,
		})
	}

	materials, err := s.repos.Materials.GetByGame(ctx, entity.ID)
	if err != nil {
		return gameimport.Game{}, err
	}
	if materials != nil {
		record.Materials = &gameimport.Materials{
			Items:       materials.Items,
			SafetyNotes: materials.SafetyNotes,
			Preparation: materials.Preparation,
		}
	}

	phases, err := s.repos.Phases.ListByGame(ctx, entity.ID)
	if err != nil {
		return gameimport.Game{}, err
	}
	phaseOrderByID := map[string]int{}
	for _, phase := range phases {
		phaseOrderByID[phase.ID.String()] = phase.PhaseOrder
		record.Phases = append(record.Phases, gameimport.Phase{
			PhaseOrder:      phase.PhaseOrder,
			Name:            phase.Name,
			PhaseType:       phase.PhaseType,
			DurationSeconds: phase.DurationSeconds,
			TimerVisible:    phase.TimerVisible,
			TimerStyle:      phase.TimerStyle,
			Description:     phase.Description,
			BoardMessage:    phase.BoardMessage,
			AutoAdvance:     phase.AutoAdvance,
		})
	}

	roles, err := s.repos.Roles.ListByGame(ctx, entity.ID)
	if err != nil {
		return gameimport.Game{}, err
	}
	roleOrderByID := map[string]int{}
	for _, role := range roles {
		roleOrderByID[role.ID.String()] = role.RoleOrder
		record.Roles = append(record.Roles, gameimport.Role{
			RoleOrder:           role.RoleOrder,
			Name:                role.Name,
			Icon:                role.Icon,
			Color:               role.Color,
			PublicDescription:   role.PublicDescription,
			PrivateInstructions: role.PrivateInstructions,
			PrivateHints:        role.PrivateHints,
			MinCount:            role.MinCount,
			MaxCount:            role.MaxCount,
			AssignmentStrategy:  role.AssignmentStrategy,
			ScalingRules:        role.ScalingRules,
			ConflictsWith:       role.ConflictsWith,
		})
	}

	boardConfig, err := s.repos.BoardConfig.GetByGame(ctx, entity.ID)
	if err != nil {
		return gameimport.Game{}, err
	}
	if boardConfig != nil {
		record.BoardConfig = &gameimport.BoardConfig{
			ShowGameName:     boardConfig.ShowGameName,
			ShowCurrentPhase: boardConfig.ShowCurrentPhase,
			ShowTimer:        boardConfig.ShowTimer,
			ShowParticipants: boardConfig.ShowParticipants,
			ShowPublicRoles:  boardConfig.ShowPublicRoles,
			ShowLeaderboard:  boardConfig.ShowLeaderboard,
			ShowQRCode:       boardConfig.ShowQRCode,
			WelcomeMessage:   boardConfig.WelcomeMessage,
			Theme:            boardConfig.Theme,
			BackgroundColor:  boardConfig.BackgroundColor,
			LayoutVariant:    boardConfig.LayoutVariant,
		}
	}

	artifacts, err := s.repos.Artifacts.ListByGame(ctx, entity.ID)
	if err != nil {
		return gameimport.Game{}, err
	}
	artifactOrderByID := map[string]int{}
	for _, artifact := range artifacts {
		artifactOrderByID[artifact.ID.String()] = artifact.ArtifactOrder

		exported := gameimport.Artifact{
			ArtifactOrder: artifact.ArtifactOrder,
			Locale:        artifact.Locale,
			Title:         artifact.Title,
			Description:   artifact.Description,
			ArtifactType:  artifact.ArtifactType,
			Tags:          artifact.Tags,
			Metadata:      artifact.Metadata,
		}

		variants, err := s.repos.ArtifactVariants.ListByArtifact(ctx, artifact.ID)
		if err != nil {
			return gameimport.Game{}, err
		}
		for _, variant := range variants {
			exportedVariant := gameimport.ArtifactVariant{
				VariantOrder: variant.VariantOrder,
				Visibility:   string(variant.Visibility),
				Title:        variant.Title,
				Body:         variant.Body,
				MediaRef:     variant.MediaRef,
				Metadata:     variant.Metadata,
			}
			if variant.VisibleToRoleID != nil {
				if order, ok := roleOrderByID[variant.VisibleToRoleID.String()]; ok {
					exportedVariant.VisibleToRoleOrder = &order
				} else {
					exportedVariant.VisibleToRoleID = uuidString(variant.VisibleToRoleID)
				}
			}
			exported.Variants = append(exported.Variants, exportedVariant)
		}
		record.Artifacts = append(record.Artifacts, exported)
	}

	triggers, err := s.repos.Triggers.ListByGame(ctx, entity.ID)
	if err != nil {
		return gameimport.Game{}, err
	}
	aliases := exportAliases{
		stepOrderByID:     stepOrderByID,
		phaseOrderByID:    phaseOrderByID,
		artifactOrderByID: artifactOrderByID,
	}
	for _, trigger := range triggers {
		actions := make([]game.TriggerAction, 0, len(trigger.Actions))
		for _, action := range trigger.Actions {
			actions = append(actions, aliases.actionToAlias(action))
		}
		record.Triggers = append(record.Triggers, gameimport.Trigger{
			Name:         trigger.Name,
			Description:  trigger.Description,
			Enabled:      trigger.Enabled,
			Condition:    aliases.conditionToAlias(trigger.Condition),
			Actions:      actions,
			ExecuteOnce:  trigger.ExecuteOnce,
			DelaySeconds: trigger.DelaySeconds,
			SortOrder:    trigger.SortOrder,
		})
	}

	return record, nil
}

// exportAliases is the inverse of refLookups: persisted IDs back to
// positional orders, so exported triggers survive re-import into a
// database with different generated IDs.
type exportAliases struct {
	stepOrderByID     map[string]int
	phaseOrderByID    map[string]int
	artifactOrderByID map[string]int
}

func (e exportAliases) conditionToAlias(cond game.TriggerCondition) game.TriggerCondition {
	switch c := cond.(type) {
	case game.StepStartedCondition:
		if order, ok := e.stepOrder(c.StepID); ok {
			c.StepOrder = order
			c.StepID = nil
		}
		return c
	case game.StepCompletedCondition:
		if order, ok := e.stepOrder(c.StepID); ok {
			c.StepOrder = order
			c.StepID = nil
		}
		return c
	case game.PhaseStartedCondition:
		if order, ok := e.phaseOrder(c.PhaseID); ok {
			c.PhaseOrder = order
			c.PhaseID = nil
		}
		return c
	case game.PhaseCompletedCondition:
		if order, ok := e.phaseOrder(c.PhaseID); ok {
			c.PhaseOrder = order
			c.PhaseID = nil
		}
		return c
	case game.ArtifactUnlockedCondition:
		if order, ok := e.artifactOrder(c.ArtifactID); ok {
			c.ArtifactOrder = order
			c.ArtifactID = nil
		}
		return c
	case game.KeypadCorrectCondition:
		if order, ok := e.artifactOrder(c.KeypadID); ok {
			c.ArtifactOrder = order
			c.KeypadID = nil
		}
		return c
	case game.KeypadFailedCondition:
		if order, ok := e.artifactOrder(c.KeypadID); ok {
			c.ArtifactOrder = order
			c.KeypadID = nil
		}
		return c
	default:
		return cond
	}
}

func (e exportAliases) actionToAlias(action game.TriggerAction) game.TriggerAction {
	switch a := action.(type) {
	case game.RevealArtifactAction:
		if order, ok := e.artifactOrder(a.ArtifactID); ok {
			a.ArtifactOrder = order
			a.ArtifactID = nil
		}
		return a
	case game.HideArtifactAction:
		if order, ok := e.artifactOrder(a.ArtifactID); ok {
			a.ArtifactOrder = order
			a.ArtifactID = nil
		}
		return a
	default:
		return action
	}
}

func (e exportAliases) stepOrder(id *string) (*int, bool) {
	return orderFor(e.stepOrderByID, id)
}

func (e exportAliases) phaseOrder(id *string) (*int, bool) {
	return orderFor(e.phaseOrderByID, id)
}

func (e exportAliases) artifactOrder(id *string) (*int, bool) {
	return orderFor(e.artifactOrderByID, id)
}

func orderFor(byID map[string]int, id *string) (*int, bool) {
	if id == nil {
		return nil, false
	}
	order, ok := byID[*id]
	if !ok {
		return nil, false
	}
	return &order, true
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func intValue(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func uuidString(v *uuid.UUID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

// jsonCell takes a concrete pointer so an absent value stays an empty
// cell; through an any parameter a typed nil would serialize as the
// string "null".
func jsonCell[T any](v *T) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode json cell")
	}
	return string(data), nil
}

func jsonCellSlice[T any](items []T) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode json cell")
	}
	return string(data), nil
}
