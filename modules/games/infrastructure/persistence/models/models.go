package models

import (
	"database/sql"
	"time"
)

type Game struct {
	ID                 string
	GameKey            string
	Name               string
	ShortDescription   string
	Description        sql.NullString
	PlayMode           string
	Status             string
	Locale             sql.NullString
	EnergyLevel        sql.NullString
	LocationType       sql.NullString
	TimeEstimateMin    sql.NullInt32
	DurationMax        sql.NullInt32
	MinPlayers         sql.NullInt32
	MaxPlayers         sql.NullInt32
	PlayersRecommended sql.NullInt32
	AgeMin             sql.NullInt32
	AgeMax             sql.NullInt32
	Difficulty         sql.NullString
	AccessibilityNotes sql.NullString
	SpaceRequirements  sql.NullString
	LeaderTips         sql.NullString
	MainPurposeID      sql.NullString
	ProductID          sql.NullString
	OwnerTenantID      sql.NullString
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type GameStep struct {
	ID                string
	GameID            string
	StepOrder         int
	Title             string
	Body              string
	DurationSeconds   sql.NullInt32
	LeaderScript      sql.NullString
	ParticipantPrompt sql.NullString
	BoardText         sql.NullString
	Optional          bool
}

type GameMaterials struct {
	ID          string
	GameID      string
	Items       []string
	SafetyNotes sql.NullString
	Preparation sql.NullString
}

type GamePhase struct {
	ID              string
	GameID          string
	PhaseOrder      int
	Name            string
	PhaseType       string
	DurationSeconds sql.NullInt32
	TimerVisible    bool
	TimerStyle      string
	Description     sql.NullString
	BoardMessage    sql.NullString
	AutoAdvance     bool
}

type GameRole struct {
	ID                  string
	GameID              string
	RoleOrder           int
	Name                string
	Icon                sql.NullString
	Color               sql.NullString
	PublicDescription   sql.NullString
	PrivateInstructions string
	PrivateHints        sql.NullString
	MinCount            int
	MaxCount            sql.NullInt32
	AssignmentStrategy  string
	ScalingRules        []byte
	ConflictsWith       []string
}

type GameBoardConfig struct {
	ID               string
	GameID           string
	ShowGameName     bool
	ShowCurrentPhase bool
	ShowTimer        bool
	ShowParticipants bool
	ShowPublicRoles  bool
	ShowLeaderboard  bool
	ShowQRCode       bool
	WelcomeMessage   sql.NullString
	Theme            string
	BackgroundColor  sql.NullString
	LayoutVariant    string
}

type GameArtifact struct {
	ID            string
	GameID        string
	ArtifactOrder int
	Locale        sql.NullString
	Title         string
	Description   sql.NullString
	ArtifactType  string
	Tags          []string
	Metadata      []byte
}

type GameArtifactVariant struct {
	ID              string
	ArtifactID      string
	VariantOrder    int
	Visibility      string
	VisibleToRoleID sql.NullString
	Title           sql.NullString
	Body            sql.NullString
	MediaRef        sql.NullString
	Metadata        []byte
}

type GameTrigger struct {
	ID           string
	GameID       string
	Name         string
	Description  sql.NullString
	Enabled      bool
	Condition    []byte
	Actions      []byte
	ExecuteOnce  bool
	DelaySeconds int
	SortOrder    int
}
