package persistence

import (
	"database/sql"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/infrastructure/persistence/models"
	"github.com/lekbanken/lekbanken/pkg/mapping"
)

func toDomainGame(dbRow *models.Game) (*game.Game, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid game id")
	}

	mainPurposeID, err := nullUUID(dbRow.MainPurposeID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid main_purpose_id")
	}
	productID, err := nullUUID(dbRow.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid product_id")
	}
	ownerTenantID, err := nullUUID(dbRow.OwnerTenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid owner_tenant_id")
	}

	return &game.Game{
		ID:                 id,
		GameKey:            dbRow.GameKey,
		Name:               dbRow.Name,
		ShortDescription:   dbRow.ShortDescription,
		Description:        mapping.SQLNullStringToPointer(dbRow.Description),
		PlayMode:           game.PlayMode(dbRow.PlayMode),
		Status:             game.Status(dbRow.Status),
		Locale:             mapping.SQLNullStringToPointer(dbRow.Locale),
		EnergyLevel:        mapping.SQLNullStringToPointer(dbRow.EnergyLevel),
		LocationType:       mapping.SQLNullStringToPointer(dbRow.LocationType),
		TimeEstimateMin:    mapping.SQLNullInt32ToPointer(dbRow.TimeEstimateMin),
		DurationMax:        mapping.SQLNullInt32ToPointer(dbRow.DurationMax),
		MinPlayers:         mapping.SQLNullInt32ToPointer(dbRow.MinPlayers),
		MaxPlayers:         mapping.SQLNullInt32ToPointer(dbRow.MaxPlayers),
		PlayersRecommended: mapping.SQLNullInt32ToPointer(dbRow.PlayersRecommended),
		AgeMin:             mapping.SQLNullInt32ToPointer(dbRow.AgeMin),
		AgeMax:             mapping.SQLNullInt32ToPointer(dbRow.AgeMax),
		Difficulty:         mapping.SQLNullStringToPointer(dbRow.Difficulty),
		AccessibilityNotes: mapping.SQLNullStringToPointer(dbRow.AccessibilityNotes),
		SpaceRequirements:  mapping.SQLNullStringToPointer(dbRow.SpaceRequirements),
		LeaderTips:         mapping.SQLNullStringToPointer(dbRow.LeaderTips),
		MainPurposeID:      mainPurposeID,
		ProductID:          productID,
		OwnerTenantID:      ownerTenantID,
		CreatedAt:          dbRow.CreatedAt,
		UpdatedAt:          dbRow.UpdatedAt,
	}, nil
}

func toDBGame(entity *game.Game) *models.Game {
	return &models.Game{
		ID:                 entity.ID.String(),
		GameKey:            entity.GameKey,
		Name:               entity.Name,
		ShortDescription:   entity.ShortDescription,
		Description:        mapping.PointerToSQLNullString(entity.Description),
		PlayMode:           string(entity.PlayMode),
		Status:             string(entity.Status),
		Locale:             mapping.PointerToSQLNullString(entity.Locale),
		EnergyLevel:        mapping.PointerToSQLNullString(entity.EnergyLevel),
		LocationType:       mapping.PointerToSQLNullString(entity.LocationType),
		TimeEstimateMin:    mapping.PointerToSQLNullInt32(entity.TimeEstimateMin),
		DurationMax:        mapping.PointerToSQLNullInt32(entity.DurationMax),
		MinPlayers:         mapping.PointerToSQLNullInt32(entity.MinPlayers),
		MaxPlayers:         mapping.PointerToSQLNullInt32(entity.MaxPlayers),
		PlayersRecommended: mapping.PointerToSQLNullInt32(entity.PlayersRecommended),
		AgeMin:             mapping.PointerToSQLNullInt32(entity.AgeMin),
		AgeMax:             mapping.PointerToSQLNullInt32(entity.AgeMax),
		Difficulty:         mapping.PointerToSQLNullString(entity.Difficulty),
		AccessibilityNotes: mapping.PointerToSQLNullString(entity.AccessibilityNotes),
		SpaceRequirements:  mapping.PointerToSQLNullString(entity.SpaceRequirements),
		LeaderTips:         mapping.PointerToSQLNullString(entity.LeaderTips),
		MainPurposeID:      uuidPointerToNullString(entity.MainPurposeID),
		ProductID:          uuidPointerToNullString(entity.ProductID),
		OwnerTenantID:      uuidPointerToNullString(entity.OwnerTenantID),
		CreatedAt:          entity.CreatedAt,
		UpdatedAt:          entity.UpdatedAt,
	}
}

func toDomainStep(dbRow *models.GameStep) (game.Step, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return game.Step{}, errors.Wrap(err, "invalid step id")
	}
	gameID, err := uuid.Parse(dbRow.GameID)
	if err != nil {
		return game.Step{}, errors.Wrap(err, "invalid step game id")
	}
	return game.Step{
		ID:                id,
		GameID:            gameID,
		StepOrder:         dbRow.StepOrder,
		Title:             dbRow.Title,
		Body:              dbRow.Body,
		DurationSeconds:   mapping.SQLNullInt32ToPointer(dbRow.DurationSeconds),
		LeaderScript:      mapping.SQLNullStringToPointer(dbRow.LeaderScript),
		ParticipantPrompt: mapping.SQLNullStringToPointer(dbRow.ParticipantPrompt),
		BoardText:         mapping.SQLNullStringToPointer(dbRow.BoardText),
		Optional:          dbRow.Optional,
	}, nil
}

func toDBStep(entity game.Step) *models.GameStep {
	return &models.GameStep{
		ID:                entity.ID.String(),
		GameID:            entity.GameID.String(),
		StepOrder:         entity.StepOrder,
		Title:             entity.Title,
		Body:              entity.Body,
		DurationSeconds:   mapping.PointerToSQLNullInt32(entity.DurationSeconds),
		LeaderScript:      mapping.PointerToSQLNullString(entity.LeaderScript),
		ParticipantPrompt: mapping.PointerToSQLNullString(entity.ParticipantPrompt),
		BoardText:         mapping.PointerToSQLNullString(entity.BoardText),
		Optional:          entity.Optional,
	}
}

func toDomainMaterials(dbRow *models.GameMaterials) (*game.Materials, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid materials id")
	}
	gameID, err := uuid.Parse(dbRow.GameID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid materials game id")
	}
	return &game.Materials{
		ID:          id,
		GameID:      gameID,
		Items:       dbRow.Items,
		SafetyNotes: mapping.SQLNullStringToPointer(dbRow.SafetyNotes),
		Preparation: mapping.SQLNullStringToPointer(dbRow.Preparation),
	}, nil
}

func toDBMaterials(entity *game.Materials) *models.GameMaterials {
	return &models.GameMaterials{
		ID:          entity.ID.String(),
		GameID:      entity.GameID.String(),
		Items:       entity.Items,
		SafetyNotes: mapping.PointerToSQLNullString(entity.SafetyNotes),
		Preparation: mapping.PointerToSQLNullString(entity.Preparation),
	}
}

func toDomainPhase(dbRow *models.GamePhase) (game.Phase, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return game.Phase{}, errors.Wrap(err, "invalid phase id")
	}
	gameID, err := uuid.Parse(dbRow.GameID)
	if err != nil {
		return game.Phase{}, errors.Wrap(err, "invalid phase game id")
	}
	return game.Phase{
		ID:              id,
		GameID:          gameID,
		PhaseOrder:      dbRow.PhaseOrder,
		Name:            dbRow.Name,
		PhaseType:       dbRow.PhaseType,
		DurationSeconds: mapping.SQLNullInt32ToPointer(dbRow.DurationSeconds),
		TimerVisible:    dbRow.TimerVisible,
		TimerStyle:      dbRow.TimerStyle,
		Description:     mapping.SQLNullStringToPointer(dbRow.Description),
		BoardMessage:    mapping.SQLNullStringToPointer(dbRow.BoardMessage),
		AutoAdvance:     dbRow.AutoAdvance,
	}, nil
}

func toDBPhase(entity game.Phase) *models.GamePhase {
	return &models.GamePhase{
		ID:              entity.ID.String(),
		GameID:          entity.GameID.String(),
		PhaseOrder:      entity.PhaseOrder,
		Name:            entity.Name,
		PhaseType:       entity.PhaseType,
		DurationSeconds: mapping.PointerToSQLNullInt32(entity.DurationSeconds),
		TimerVisible:    entity.TimerVisible,
		TimerStyle:      entity.TimerStyle,
		Description:     mapping.PointerToSQLNullString(entity.Description),
		BoardMessage:    mapping.PointerToSQLNullString(entity.BoardMessage),
		AutoAdvance:     entity.AutoAdvance,
	}
}

func toDomainRole(dbRow *models.GameRole) (game.Role, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return game.Role{}, errors.Wrap(err, "invalid role id")
	}
	gameID, err := uuid.Parse(dbRow.GameID)
	if err != nil {
		return game.Role{}, errors.Wrap(err, "invalid role game id")
	}

	var scalingRules map[string]int
	if len(dbRow.ScalingRules) > 0 {
		if err := json.Unmarshal(dbRow.ScalingRules, &scalingRules); err != nil {
			return game.Role{}, errors.Wrap(err, "malformed scaling_rules")
		}
	}

	return game.Role{
		ID:                  id,
		GameID:              gameID,
		RoleOrder:           dbRow.RoleOrder,
		Name:                dbRow.Name,
		Icon:                mapping.SQLNullStringToPointer(dbRow.Icon),
		Color:               mapping.SQLNullStringToPointer(dbRow.Color),
		PublicDescription:   mapping.SQLNullStringToPointer(dbRow.PublicDescription),
		PrivateInstructions: dbRow.PrivateInstructions,
		PrivateHints:        mapping.SQLNullStringToPointer(dbRow.PrivateHints),
		MinCount:            dbRow.MinCount,
		MaxCount:            mapping.SQLNullInt32ToPointer(dbRow.MaxCount),
		AssignmentStrategy:  dbRow.AssignmentStrategy,
		ScalingRules:        scalingRules,
		ConflictsWith:       dbRow.ConflictsWith,
	}, nil
}

func toDBRole(entity game.Role) (*models.GameRole, error) {
	var scalingRules []byte
	if entity.ScalingRules != nil {
		var err error
		scalingRules, err = json.Marshal(entity.ScalingRules)
		if err != nil {
			return nil, errors.Wrap(err, "marshal scaling_rules")
		}
	}

	return &models.GameRole{
		ID:                  entity.ID.String(),
		GameID:              entity.GameID.String(),
		RoleOrder:           entity.RoleOrder,
		Name:                entity.Name,
		Icon:                mapping.PointerToSQLNullString(entity.Icon),
		Color:               mapping.PointerToSQLNullString(entity.Color),
		PublicDescription:   mapping.PointerToSQLNullString(entity.PublicDescription),
		PrivateInstructions: entity.PrivateInstructions,
		PrivateHints:        mapping.PointerToSQLNullString(entity.PrivateHints),
		MinCount:            entity.MinCount,
		MaxCount:            mapping.PointerToSQLNullInt32(entity.MaxCount),
		AssignmentStrategy:  entity.AssignmentStrategy,
		ScalingRules:        scalingRules,
		ConflictsWith:       entity.ConflictsWith,
	}, nil
}

func toDomainBoardConfig(dbRow *models.GameBoardConfig) (*game.BoardConfig, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid board config id")
	}
	gameID, err := uuid.Parse(dbRow.GameID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid board config game id")
	}
	return &game.BoardConfig{
		ID:               id,
		GameID:           gameID,
		ShowGameName:     dbRow.ShowGameName,
		ShowCurrentPhase: dbRow.ShowCurrentPhase,
		ShowTimer:        dbRow.ShowTimer,
		ShowParticipants: dbRow.ShowParticipants,
		ShowPublicRoles:  dbRow.ShowPublicRoles,
		ShowLeaderboard:  dbRow.ShowLeaderboard,
		ShowQRCode:       dbRow.ShowQRCode,
		WelcomeMessage:   mapping.SQLNullStringToPointer(dbRow.WelcomeMessage),
		Theme:            dbRow.Theme,
		BackgroundColor:  mapping.SQLNullStringToPointer(dbRow.BackgroundColor),
		LayoutVariant:    dbRow.LayoutVariant,
	}, nil
}

func toDBBoardConfig(entity *game.BoardConfig) *models.GameBoardConfig {
	return &models.GameBoardConfig{
		ID:               entity.ID.String(),
		GameID:           entity.GameID.String(),
		ShowGameName:     entity.ShowGameName,
		ShowCurrentPhase: entity.ShowCurrentPhase,
		ShowTimer:        entity.ShowTimer,
		ShowParticipants: entity.ShowParticipants,
		ShowPublicRoles:  entity.ShowPublicRoles,
		ShowLeaderboard:  entity.ShowLeaderboard,
		ShowQRCode:       entity.ShowQRCode,
		WelcomeMessage:   mapping.PointerToSQLNullString(entity.WelcomeMessage),
		Theme:            entity.Theme,
		BackgroundColor:  mapping.PointerToSQLNullString(entity.BackgroundColor),
		LayoutVariant:    entity.LayoutVariant,
	}
}

func toDomainArtifact(dbRow *models.GameArtifact) (game.Artifact, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return game.Artifact{}, errors.Wrap(err, "invalid artifact id")
	}
	gameID, err := uuid.Parse(dbRow.GameID)
	if err != nil {
		return game.Artifact{}, errors.Wrap(err, "invalid artifact game id")
	}

	var metadata map[string]any
	if len(dbRow.Metadata) > 0 {
		if err := json.Unmarshal(dbRow.Metadata, &metadata); err != nil {
			return game.Artifact{}, errors.Wrap(err, "malformed artifact metadata")
		}
	}

	return game.Artifact{
		ID:            id,
		GameID:        gameID,
		ArtifactOrder: dbRow.ArtifactOrder,
		Locale:        mapping.SQLNullStringToPointer(dbRow.Locale),
		Title:         dbRow.Title,
		Description:   mapping.SQLNullStringToPointer(dbRow.Description),
		ArtifactType:  dbRow.ArtifactType,
		Tags:          dbRow.Tags,
		Metadata:      metadata,
	}, nil
}

func toDBArtifact(entity game.Artifact) (*models.GameArtifact, error) {
	metadata := entity.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.Wrap(err, "marshal artifact metadata")
	}

	return &models.GameArtifact{
		ID:            entity.ID.String(),
		GameID:        entity.GameID.String(),
		ArtifactOrder: entity.ArtifactOrder,
		Locale:        mapping.PointerToSQLNullString(entity.Locale),
		Title:         entity.Title,
		Description:   mapping.PointerToSQLNullString(entity.Description),
		ArtifactType:  entity.ArtifactType,
		Tags:          entity.Tags,
		Metadata:      encoded,
	}, nil
}

func toDomainArtifactVariant(dbRow *models.GameArtifactVariant) (game.ArtifactVariant, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return game.ArtifactVariant{}, errors.Wrap(err, "invalid variant id")
	}
	artifactID, err := uuid.Parse(dbRow.ArtifactID)
	if err != nil {
		return game.ArtifactVariant{}, errors.Wrap(err, "invalid variant artifact id")
	}
	visibleToRoleID, err := nullUUID(dbRow.VisibleToRoleID)
	if err != nil {
		return game.ArtifactVariant{}, errors.Wrap(err, "invalid visible_to_role_id")
	}

	var metadata map[string]any
	if len(dbRow.Metadata) > 0 {
		if err := json.Unmarshal(dbRow.Metadata, &metadata); err != nil {
			return game.ArtifactVariant{}, errors.Wrap(err, "malformed variant metadata")
		}
	}

	return game.ArtifactVariant{
		ID:              id,
		ArtifactID:      artifactID,
		VariantOrder:    dbRow.VariantOrder,
		Visibility:      game.Visibility(dbRow.Visibility),
		VisibleToRoleID: visibleToRoleID,
		Title:           mapping.SQLNullStringToPointer(dbRow.Title),
		Body:            mapping.SQLNullStringToPointer(dbRow.Body),
		MediaRef:        mapping.SQLNullStringToPointer(dbRow.MediaRef),
		Metadata:        metadata,
	}, nil
}

func toDBArtifactVariant(entity game.ArtifactVariant) (*models.GameArtifactVariant, error) {
	metadata := entity.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.Wrap(err, "marshal variant metadata")
	}

	return &models.GameArtifactVariant{
		ID:              entity.ID.String(),
		ArtifactID:      entity.ArtifactID.String(),
		VariantOrder:    entity.VariantOrder,
		Visibility:      string(entity.Visibility),
		VisibleToRoleID: uuidPointerToNullString(entity.VisibleToRoleID),
		Title:           mapping.PointerToSQLNullString(entity.Title),
		Body:            mapping.PointerToSQLNullString(entity.Body),
		MediaRef:        mapping.PointerToSQLNullString(entity.MediaRef),
		Metadata:        encoded,
	}, nil
}

func toDomainTrigger(dbRow *models.GameTrigger) (game.Trigger, error) {
	id, err := uuid.Parse(dbRow.ID)
	if err != nil {
		return game.Trigger{}, errors.Wrap(err, "invalid trigger id")
	}
	gameID, err := uuid.Parse(dbRow.GameID)
	if err != nil {
		return game.Trigger{}, errors.Wrap(err, "invalid trigger game id")
	}

	condition, err := game.UnmarshalCondition(dbRow.Condition)
	if err != nil {
		return game.Trigger{}, errors.Wrap(err, "malformed trigger condition")
	}
	actions, err := game.UnmarshalActions(dbRow.Actions)
	if err != nil {
		return game.Trigger{}, errors.Wrap(err, "malformed trigger actions")
	}

	return game.Trigger{
		ID:           id,
		GameID:       gameID,
		Name:         dbRow.Name,
		Description:  mapping.SQLNullStringToPointer(dbRow.Description),
		Enabled:      dbRow.Enabled,
		Condition:    condition,
		Actions:      actions,
		ExecuteOnce:  dbRow.ExecuteOnce,
		DelaySeconds: dbRow.DelaySeconds,
		SortOrder:    dbRow.SortOrder,
	}, nil
}

func toDBTrigger(entity game.Trigger) (*models.GameTrigger, error) {
	condition, err := game.MarshalCondition(entity.Condition)
	if err != nil {
		return nil, errors.Wrap(err, "marshal trigger condition")
	}
	actions, err := game.MarshalActions(entity.Actions)
	if err != nil {
		return nil, errors.Wrap(err, "marshal trigger actions")
	}

	return &models.GameTrigger{
		ID:           entity.ID.String(),
		GameID:       entity.GameID.String(),
		Name:         entity.Name,
		Description:  mapping.PointerToSQLNullString(entity.Description),
		Enabled:      entity.Enabled,
		Condition:    condition,
		Actions:      actions,
		ExecuteOnce:  entity.ExecuteOnce,
		DelaySeconds: entity.DelaySeconds,
		SortOrder:    entity.SortOrder,
	}, nil
}

func nullUUID(value sql.NullString) (*uuid.UUID, error) {
	if !value.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(value.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func uuidPointerToNullString(value *uuid.UUID) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: value.String(), Valid: true}
}
