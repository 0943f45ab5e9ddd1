package game

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

type PlayMode string

const (
	PlayModeBasic        PlayMode = "basic"
	PlayModeFacilitated  PlayMode = "facilitated"
	PlayModeParticipants PlayMode = "participants"
)

type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityLeaderOnly  Visibility = "leader_only"
	VisibilityRolePrivate Visibility = "role_private"
)

// Game is the root entity of the games aggregate. Child collections are
// wholly owned: on update they are replaced, never merged.
type Game struct {
	ID                 uuid.UUID
	GameKey            string
	Name               string
	ShortDescription   string
	Description        *string
	PlayMode           PlayMode
	Status             Status
	Locale             *string
	EnergyLevel        *string
	LocationType       *string
	TimeEstimateMin    *int
	DurationMax        *int
	MinPlayers         *int
	MaxPlayers         *int
	PlayersRecommended *int
	AgeMin             *int
	AgeMax             *int
	Difficulty         *string
	AccessibilityNotes *string
	SpaceRequirements  *string
	LeaderTips         *string
	MainPurposeID      *uuid.UUID
	ProductID          *uuid.UUID
	OwnerTenantID      *uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Step struct {
	ID                uuid.UUID
	GameID            uuid.UUID
	StepOrder         int
	Title             string
	Body              string
	DurationSeconds   *int
	LeaderScript      *string
	ParticipantPrompt *string
	BoardText         *string
	Optional          bool
}

type Materials struct {
	ID          uuid.UUID
	GameID      uuid.UUID
	Items       []string
	SafetyNotes *string
	Preparation *string
}

type Phase struct {
	ID              uuid.UUID
	GameID          uuid.UUID
	PhaseOrder      int
	Name            string
	PhaseType       string
	DurationSeconds *int
	TimerVisible    bool
	TimerStyle      string
	Description     *string
	BoardMessage    *string
	AutoAdvance     bool
}

type Role struct {
	ID                  uuid.UUID
	GameID              uuid.UUID
	RoleOrder           int
	Name                string
	Icon                *string
	Color               *string
	PublicDescription   *string
	PrivateInstructions string
	PrivateHints        *string
	MinCount            int
	MaxCount            *int
	AssignmentStrategy  string
	ScalingRules        map[string]int
	ConflictsWith       []string
}

type BoardConfig struct {
	ID               uuid.UUID
	GameID           uuid.UUID
	ShowGameName     bool
	ShowCurrentPhase bool
	ShowTimer        bool
	ShowParticipants bool
	ShowPublicRoles  bool
	ShowLeaderboard  bool
	ShowQRCode       bool
	WelcomeMessage   *string
	Theme            string
	BackgroundColor  *string
	LayoutVariant    string
}

type Artifact struct {
	ID            uuid.UUID
	GameID        uuid.UUID
	ArtifactOrder int
	Locale        *string
	Title         string
	Description   *string
	ArtifactType  string
	Tags          []string
	Metadata      map[string]any
}

// ArtifactVariant belongs to exactly one artifact. VisibleToRoleID is
// nil unless the variant is restricted to a single role.
type ArtifactVariant struct {
	ID              uuid.UUID
	ArtifactID      uuid.UUID
	VariantOrder    int
	Visibility      Visibility
	VisibleToRoleID *uuid.UUID
	Title           *string
	Body            *string
	MediaRef        *string
	Metadata        map[string]any
}
