package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/gameimport"
	"github.com/lekbanken/lekbanken/pkg/composables"
	"github.com/lekbanken/lekbanken/pkg/eventbus"
)

// ImportRepositories bundles the per-table repositories the commit
// loop writes through.
type ImportRepositories struct {
	Games             game.Repository
	Steps             game.StepRepository
	Materials         game.MaterialsRepository
	Phases            game.PhaseRepository
	Roles             game.RoleRepository
	BoardConfig       game.BoardConfigRepository
	SecondaryPurposes game.SecondaryPurposeRepository
	Artifacts         game.ArtifactRepository
	ArtifactVariants  game.ArtifactVariantRepository
	Triggers          game.TriggerRepository
}

// ImportService commits batches of parsed game records. Records are
// processed strictly sequentially, each inside its own transaction, so
// one record's failure never rolls back or halts the others.
type ImportService struct {
	repos     ImportRepositories
	publisher eventbus.EventBus
	inTx      func(context.Context, func(context.Context) error) error
}

func NewImportService(repos ImportRepositories, publisher eventbus.EventBus) *ImportService {
	return &ImportService{
		repos:     repos,
		publisher: publisher,
		inTx:      composables.InTx,
	}
}

// DryRun validates a batch without touching storage.
func (s *ImportService) DryRun(ctx context.Context, records []gameimport.Game, parseErrors, parseWarnings []gameimport.Error, opts gameimport.Options) gameimport.DryRunResult {
	validation := gameimport.ValidateGames(records, opts)
	return gameimport.BuildDryRun(records, parseErrors, parseWarnings, validation)
}

// Import validates and commits a batch. Valid records are committed in
// input order; invalid and failed records are counted as skipped. The
// returned result's success flag is true only when nothing was skipped.
func (s *ImportService) Import(ctx context.Context, records []gameimport.Game, opts gameimport.Options) gameimport.Result {
	started := time.Now()
	logger := composables.UseLogger(ctx).WithField("import_run_id", uuid.New().String())
	logger.WithFields(logrus.Fields{
		"total": len(records),
		"mode":  opts.Mode,
	}).Info("import.start")

	validation := gameimport.ValidateGames(records, opts)

	result := gameimport.Result{
		Stats:    gameimport.Stats{Total: len(records), Skipped: len(validation.InvalidGames)},
		Errors:   validation.AllErrors,
		Warnings: validation.AllWarnings,
	}

	for i, record := range validation.ValidGames {
		var updated bool
		err := s.inTx(ctx, func(txCtx context.Context) error {
			var commitErr error
			updated, commitErr = s.commitRecord(txCtx, record, opts)
			return commitErr
		})
		if err != nil {
			result.Stats.Skipped++
			result.Errors = append(result.Errors, gameimport.Error{
				Row:      i + 1,
				Column:   "general",
				Message:  err.Error(),
				Severity: gameimport.SeverityError,
			})
			continue
		}
		if updated {
			result.Stats.Updated++
		} else {
			result.Stats.Created++
		}
	}

	result.Success = result.Stats.Skipped == 0

	logger.WithFields(logrus.Fields{
		"created":     result.Stats.Created,
		"updated":     result.Stats.Updated,
		"skipped":     result.Stats.Skipped,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Info("import.done")

	if s.publisher != nil {
		s.publisher.Publish(game.ImportedEvent{
			Total:   result.Stats.Total,
			Created: result.Stats.Created,
			Updated: result.Stats.Updated,
			Skipped: result.Stats.Skipped,
		})
	}
	return result
}

// commitRecord upserts the root row, then inserts the owned aggregates
// in dependency order: secondary purposes, steps, materials, phases,
// roles, board config, artifacts with their variants, triggers.
// Triggers and variants come last because their positional aliases
// resolve against IDs assigned earlier in this same pass.
func (s *ImportService) commitRecord(ctx context.Context, record gameimport.Game, opts gameimport.Options) (bool, error) {
	var (
		gameID  uuid.UUID
		updated bool
	)

	if opts.Mode == gameimport.ModeUpsert {
		existingID, err := s.repos.Games.FindIDByKey(ctx, record.GameKey)
		switch {
		case err == nil:
			gameID = existingID
			updated = true
		case errors.Is(err, game.ErrGameNotFound):
		default:
			return false, err
		}
	}

	now := time.Now()
	if !updated {
		gameID = uuid.New()
	}

	entity, err := buildGameEntity(gameID, record, opts, now)
	if err != nil {
		return updated, err
	}

	if updated {
		if err := s.repos.Games.Update(ctx, entity); err != nil {
			return updated, err
		}
		if err := s.deleteChildren(ctx, gameID); err != nil {
			return updated, err
		}
	} else {
		if err := s.repos.Games.Create(ctx, entity); err != nil {
			return updated, err
		}
	}

	if err := s.insertChildren(ctx, gameID, record); err != nil {
		return updated, err
	}
	return updated, nil
}

// deleteChildren clears every owned child table before re-insert.
// Child collections are wholly replaced on update, never merged.
// Variants go before their artifacts.
func (s *ImportService) deleteChildren(ctx context.Context, gameID uuid.UUID) error {
	if err := s.repos.SecondaryPurposes.DeleteByGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.repos.Triggers.DeleteByGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.repos.ArtifactVariants.DeleteByGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.repos.Artifacts.DeleteByGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.repos.BoardConfig.DeleteByGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.repos.Roles.DeleteByGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.repos.Phases.DeleteByGame(ctx, gameID); err != nil {
		return err
	}
	if err := s.repos.Materials.DeleteByGame(ctx, gameID); err != nil {
		return err
	}
	return s.repos.Steps.DeleteByGame(ctx, gameID)
}

func (s *ImportService) insertChildren(ctx context.Context, gameID uuid.UUID, record gameimport.Game) error {
	lookups := newRefLookups()

	purposeIDs, err := parsePurposeIDs(record.SubPurposeIDs)
	if err != nil {
		return err
	}
	if len(purposeIDs) > 0 {
		if err := s.repos.SecondaryPurposes.InsertBatch(ctx, gameID, purposeIDs); err != nil {
			return err
		}
	}

	if err := s.insertSteps(ctx, gameID, record.Steps, lookups); err != nil {
		return err
	}

	if record.Materials != nil {
		materials := &game.Materials{
			ID:          uuid.New(),
			GameID:      gameID,
			Items:       record.Materials.Items,
			SafetyNotes: record.Materials.SafetyNotes,
			Preparation: record.Materials.Preparation,
		}
		if err := s.repos.Materials.Insert(ctx, materials); err != nil {
			return err
		}
	}

	if err := s.insertPhases(ctx, gameID, record.Phases, lookups); err != nil {
		return err
	}
	if err := s.insertRoles(ctx, gameID, record.Roles, lookups); err != nil {
		return err
	}

	if record.BoardConfig != nil {
		cfg := record.BoardConfig
		boardConfig := &game.BoardConfig{
			ID:               uuid.New(),
			GameID:           gameID,
			ShowGameName:     cfg.ShowGameName,
			ShowCurrentPhase: cfg.ShowCurrentPhase,
			ShowTimer:        cfg.ShowTimer,
			ShowParticipants: cfg.ShowParticipants,
			ShowPublicRoles:  cfg.ShowPublicRoles,
			ShowLeaderboard:  cfg.ShowLeaderboard,
			ShowQRCode:       cfg.ShowQRCode,
			WelcomeMessage:   cfg.WelcomeMessage,
			Theme:            cfg.Theme,
			BackgroundColor:  cfg.BackgroundColor,
			LayoutVariant:    cfg.LayoutVariant,
		}
		if err := s.repos.BoardConfig.Insert(ctx, boardConfig); err != nil {
			return err
		}
	}

	if err := s.insertArtifacts(ctx, gameID, record.Artifacts, lookups); err != nil {
		return err
	}
	return s.insertTriggers(ctx, gameID, record.Triggers, lookups)
}

func (s *ImportService) insertSteps(ctx context.Context, gameID uuid.UUID, steps []gameimport.Step, lookups *refLookups) error {
	if len(steps) == 0 {
		return nil
	}

	seen := map[int]bool{}
	entities := make([]game.Step, 0, len(steps))
	for i, step := range steps {
		order := gameimport.OrderOrIndex(step.StepOrder, i)
		if seen[order] {
			return errors.Errorf("duplicate step_order=%d, each step must have a unique order", order)
		}
		seen[order] = true
		entities = append(entities, game.Step{
			ID:                uuid.New(),
			GameID:            gameID,
			StepOrder:         order,
			Title:             step.Title,
			Body:              step.Body,
			DurationSeconds:   step.DurationSeconds,
			LeaderScript:      step.LeaderScript,
			ParticipantPrompt: step.ParticipantPrompt,
			BoardText:         step.BoardText,
			Optional:          step.Optional,
		})
	}

	if err := s.repos.Steps.InsertBatch(ctx, entities); err != nil {
		return err
	}

	stored, err := s.repos.Steps.ListByGame(ctx, gameID)
	if err != nil {
		return err
	}
	lookups.addSteps(stored)
	return nil
}

func (s *ImportService) insertPhases(ctx context.Context, gameID uuid.UUID, phases []gameimport.Phase, lookups *refLookups) error {
	if len(phases) == 0 {
		return nil
	}

	seen := map[int]bool{}
	entities := make([]game.Phase, 0, len(phases))
	for i, phase := range phases {
		order := gameimport.OrderOrIndex(phase.PhaseOrder, i)
		if seen[order] {
			return errors.Errorf("duplicate phase_order=%d, each phase must have a unique order", order)
		}
		seen[order] = true
		entities = append(entities, game.Phase{
			ID:              uuid.New(),
			GameID:          gameID,
			PhaseOrder:      order,
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

	if err := s.repos.Phases.InsertBatch(ctx, entities); err != nil {
		return err
	}

	stored, err := s.repos.Phases.ListByGame(ctx, gameID)
	if err != nil {
		return err
	}
	lookups.addPhases(stored)
	return nil
}

func (s *ImportService) insertRoles(ctx context.Context, gameID uuid.UUID, roles []gameimport.Role, lookups *refLookups) error {
	if len(roles) == 0 {
		return nil
	}

	seen := map[int]bool{}
	entities := make([]game.Role, 0, len(roles))
	for i, role := range roles {
		order := gameimport.OrderOrIndex(role.RoleOrder, i)
		if seen[order] {
			return errors.Errorf("duplicate role_order=%d, each role must have a unique order", order)
		}
		seen[order] = true
		entities = append(entities, game.Role{
			ID:                  uuid.New(),
			GameID:              gameID,
			RoleOrder:           order,
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

	if err := s.repos.Roles.InsertBatch(ctx, entities); err != nil {
		return err
	}

	stored, err := s.repos.Roles.ListByGame(ctx, gameID)
	if err != nil {
		return err
	}
	lookups.addRoles(stored)
	return nil
}

func (s *ImportService) insertArtifacts(ctx context.Context, gameID uuid.UUID, artifacts []gameimport.Artifact, lookups *refLookups) error {
	if len(artifacts) == 0 {
		return nil
	}

	seen := map[int]bool{}
	entities := make([]game.Artifact, 0, len(artifacts))
	for i, artifact := range artifacts {
		order := gameimport.OrderOrIndex(artifact.ArtifactOrder, i)
		if seen[order] {
			return errors.Errorf("duplicate artifact_order=%d, each artifact must have a unique order", order)
		}
		seen[order] = true
		entities = append(entities, game.Artifact{
			ID:            uuid.New(),
			GameID:        gameID,
			ArtifactOrder: order,
			Locale:        artifact.Locale,
			Title:         artifact.Title,
			Description:   artifact.Description,
			ArtifactType:  artifact.ArtifactType,
			Tags:          artifact.Tags,
			Metadata:      artifact.Metadata,
		})
	}

	if err := s.repos.Artifacts.InsertBatch(ctx, entities); err != nil {
		return err
	}

	stored, err := s.repos.Artifacts.ListByGame(ctx, gameID)
	if err != nil {
		return err
	}
	lookups.addArtifacts(stored)

	// Variants follow their artifacts immediately so role references
	// can resolve against the roles inserted above.
	for i, artifact := range artifacts {
		if len(artifact.Variants) == 0 {
			continue
		}

		order := gameimport.OrderOrIndex(artifact.ArtifactOrder, i)
		artifactIDRef := lookups.artifactID(&order)
		if artifactIDRef == nil {
			return errors.Errorf("artifact %q was not persisted", artifact.Title)
		}
		artifactID, err := uuid.Parse(*artifactIDRef)
		if err != nil {
			return err
		}

		variants := make([]game.ArtifactVariant, 0, len(artifact.Variants))
		for j, variant := range artifact.Variants {
			visibility := variant.Visibility
			if visibility == "" {
				visibility = string(game.VisibilityPublic)
			}
			variants = append(variants, game.ArtifactVariant{
				ID:              uuid.New(),
				ArtifactID:      artifactID,
				VariantOrder:    gameimport.OrderOrIndex(variant.VariantOrder, j),
				Visibility:      game.Visibility(visibility),
				VisibleToRoleID: resolveVariantRole(variant, lookups),
				Title:           variant.Title,
				Body:            variant.Body,
				MediaRef:        variant.MediaRef,
				Metadata:        variant.Metadata,
			})
		}
		if err := s.repos.ArtifactVariants.InsertBatch(ctx, variants); err != nil {
			return err
		}
	}
	return nil
}

func (s *ImportService) insertTriggers(ctx context.Context, gameID uuid.UUID, triggers []gameimport.Trigger, lookups *refLookups) error {
	if len(triggers) == 0 {
		return nil
	}

	entities := make([]game.Trigger, 0, len(triggers))
	for i, trigger := range triggers {
		condition := trigger.Condition
		if condition == nil {
			condition = game.ManualCondition{}
		}
		condition = resolveCondition(condition, lookups)

		actions := make([]game.TriggerAction, 0, len(trigger.Actions))
		for _, action := range trigger.Actions {
			actions = append(actions, resolveAction(action, lookups))
		}

		entities = append(entities, game.Trigger{
			ID:           uuid.New(),
			GameID:       gameID,
			Name:         trigger.Name,
			Description:  trigger.Description,
			Enabled:      trigger.Enabled,
			Condition:    condition,
			Actions:      actions,
			ExecuteOnce:  trigger.ExecuteOnce,
			DelaySeconds: trigger.DelaySeconds,
			SortOrder:    trigger.SortOrderOrDefault(i),
		})
	}
	return s.repos.Triggers.InsertBatch(ctx, entities)
}

func buildGameEntity(id uuid.UUID, record gameimport.Game, opts gameimport.Options, now time.Time) (*game.Game, error) {
	status := game.Status(record.Status)
	if record.Status == "" {
		status = opts.DefaultStatus
	}

	locale := record.Locale
	if locale == nil && opts.DefaultLocale != "" {
		defaultLocale := opts.DefaultLocale
		locale = &defaultLocale
	}

	mainPurposeID, err := parseOptionalUUID(record.MainPurposeID, "main_purpose_id")
	if err != nil {
		return nil, err
	}
	productID, err := parseOptionalUUID(record.ProductID, "product_id")
	if err != nil {
		return nil, err
	}
	ownerTenantID, err := parseOptionalUUID(record.OwnerTenantID, "owner_tenant_id")
	if err != nil {
		return nil, err
	}

	return &game.Game{
		ID:                 id,
		GameKey:            record.GameKey,
		Name:               record.Name,
		ShortDescription:   record.ShortDescription,
		Description:        record.Description,
		PlayMode:           game.PlayMode(record.PlayMode),
		Status:             status,
		Locale:             locale,
		EnergyLevel:        record.EnergyLevel,
		LocationType:       record.LocationType,
		TimeEstimateMin:    record.TimeEstimateMin,
		DurationMax:        record.DurationMax,
		MinPlayers:         record.MinPlayers,
		MaxPlayers:         record.MaxPlayers,
		PlayersRecommended: record.PlayersRecommended,
		AgeMin:             record.AgeMin,
		AgeMax:             record.AgeMax,
		Difficulty:         record.Difficulty,
		AccessibilityNotes: record.AccessibilityNotes,
		SpaceRequirements:  record.SpaceRequirements,
		LeaderTips:         record.LeaderTips,
		MainPurposeID:      mainPurposeID,
		ProductID:          productID,
		OwnerTenantID:      ownerTenantID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func parsePurposeIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, errors.Wrap(err, "invalid secondary purpose id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseOptionalUUID(value *string, field string) (*uuid.UUID, error) {
	if value == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", field)
	}
	return &id, nil
}
