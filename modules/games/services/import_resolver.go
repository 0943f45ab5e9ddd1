package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/gameimport"
)

// refLookups maps the positional orders of one game's freshly inserted
// rows to their generated IDs. Lookups never span games: every import
// record gets its own set.
type refLookups struct {
	stepIDByOrder     map[int]uuid.UUID
	phaseIDByOrder    map[int]uuid.UUID
	artifactIDByOrder map[int]uuid.UUID
	roleIDByOrder     map[int]uuid.UUID
	roleIDByName      map[string]uuid.UUID
}

func newRefLookups() *refLookups {
	return &refLookups{
		stepIDByOrder:     map[int]uuid.UUID{},
		phaseIDByOrder:    map[int]uuid.UUID{},
		artifactIDByOrder: map[int]uuid.UUID{},
		roleIDByOrder:     map[int]uuid.UUID{},
		roleIDByName:      map[string]uuid.UUID{},
	}
}

func (l *refLookups) addSteps(steps []game.Step) {
	for _, s := range steps {
		l.stepIDByOrder[s.StepOrder] = s.ID
	}
}

func (l *refLookups) addPhases(phases []game.Phase) {
	for _, p := range phases {
		l.phaseIDByOrder[p.PhaseOrder] = p.ID
	}
}

func (l *refLookups) addArtifacts(artifacts []game.Artifact) {
	for _, a := range artifacts {
		l.artifactIDByOrder[a.ArtifactOrder] = a.ID
	}
}

func (l *refLookups) addRoles(roles []game.Role) {
	for _, r := range roles {
		l.roleIDByOrder[r.RoleOrder] = r.ID
		if r.Name != "" {
			l.roleIDByName[strings.ToLower(r.Name)] = r.ID
		}
	}
}

func (l *refLookups) stepID(order *int) *string {
	return lookupID(l.stepIDByOrder, order)
}

func (l *refLookups) phaseID(order *int) *string {
	return lookupID(l.phaseIDByOrder, order)
}

func (l *refLookups) artifactID(order *int) *string {
	return lookupID(l.artifactIDByOrder, order)
}

func lookupID(byOrder map[int]uuid.UUID, order *int) *string {
	if order == nil {
		return nil
	}
	id, ok := byOrder[*order]
	if !ok {
		return nil
	}
	s := id.String()
	return &s
}

// resolveCondition replaces a positional alias with the persisted row
// ID. An explicit ID wins over an alias; an unresolvable alias leaves
// the ID null without raising an error. The alias is discarded either
// way, so only resolved references are stored.
func resolveCondition(cond game.TriggerCondition, lookups *refLookups) game.TriggerCondition {
	switch c := cond.(type) {
	case game.StepStartedCondition:
		if c.StepID == nil {
			c.StepID = lookups.stepID(c.StepOrder)
		}
		c.StepOrder = nil
		return c
	case game.StepCompletedCondition:
		if c.StepID == nil {
			c.StepID = lookups.stepID(c.StepOrder)
		}
		c.StepOrder = nil
		return c
	case game.PhaseStartedCondition:
		if c.PhaseID == nil {
			c.PhaseID = lookups.phaseID(c.PhaseOrder)
		}
		c.PhaseOrder = nil
		return c
	case game.PhaseCompletedCondition:
		if c.PhaseID == nil {
			c.PhaseID = lookups.phaseID(c.PhaseOrder)
		}
		c.PhaseOrder = nil
		return c
	case game.ArtifactUnlockedCondition:
		if c.ArtifactID == nil {
			c.ArtifactID = lookups.artifactID(c.ArtifactOrder)
		}
		c.ArtifactOrder = nil
		return c
	case game.KeypadCorrectCondition:
		// Keypads are artifacts, so the alias resolves through the
		// artifact lookup.
		if c.KeypadID == nil {
			c.KeypadID = lookups.artifactID(c.ArtifactOrder)
		}
		c.ArtifactOrder = nil
		return c
	case game.KeypadFailedCondition:
		if c.KeypadID == nil {
			c.KeypadID = lookups.artifactID(c.ArtifactOrder)
		}
		c.ArtifactOrder = nil
		return c
	default:
		return cond
	}
}

func resolveAction(action game.TriggerAction, lookups *refLookups) game.TriggerAction {
	switch a := action.(type) {
	case game.RevealArtifactAction:
		if a.ArtifactID == nil {
			a.ArtifactID = lookups.artifactID(a.ArtifactOrder)
		}
		a.ArtifactOrder = nil
		return a
	case game.HideArtifactAction:
		if a.ArtifactID == nil {
			a.ArtifactID = lookups.artifactID(a.ArtifactOrder)
		}
		a.ArtifactOrder = nil
		return a
	default:
		return action
	}
}

// resolveVariantRole resolves an artifact variant's role reference.
// Precedence: explicit ID, then role order, then case-insensitive role
// name. When nothing matches the variant is not role-restricted.
func resolveVariantRole(variant gameimport.ArtifactVariant, lookups *refLookups) *uuid.UUID {
	if variant.VisibleToRoleID != nil {
		if id, err := uuid.Parse(*variant.VisibleToRoleID); err == nil {
			return &id
		}
	}
	if variant.VisibleToRoleOrder != nil {
		if id, ok := lookups.roleIDByOrder[*variant.VisibleToRoleOrder]; ok {
			return &id
		}
	}
	if variant.VisibleToRoleName != nil {
		if id, ok := lookups.roleIDByName[strings.ToLower(*variant.VisibleToRoleName)]; ok {
			return &id
		}
	}
	return nil
}
