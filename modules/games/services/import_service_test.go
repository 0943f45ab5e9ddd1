package services

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekbanken/lekbanken/modules/games/domain/aggregates/game"
	"github.com/lekbanken/lekbanken/modules/games/gameimport"
	"github.com/lekbanken/lekbanken/pkg/composables"
)

// fakeStore is a single in-memory backing store shared by the fake
// repositories. It counts every write so dry-run tests can assert that
// nothing was touched.
type fakeStore struct {
	games       map[uuid.UUID]*game.Game
	gameIDByKey map[string]uuid.UUID
	steps       map[uuid.UUID][]game.Step
	materials   map[uuid.UUID]*game.Materials
	phases      map[uuid.UUID][]game.Phase
	roles       map[uuid.UUID][]game.Role
	board       map[uuid.UUID]*game.BoardConfig
	purposes    map[uuid.UUID][]uuid.UUID
	artifacts   map[uuid.UUID][]game.Artifact
	variants    map[uuid.UUID][]game.ArtifactVariant
	triggers    map[uuid.UUID][]game.Trigger

	writes       int
	failGameKeys map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:        map[uuid.UUID]*game.Game{},
		gameIDByKey:  map[string]uuid.UUID{},
		steps:        map[uuid.UUID][]game.Step{},
		materials:    map[uuid.UUID]*game.Materials{},
		phases:       map[uuid.UUID][]game.Phase{},
		roles:        map[uuid.UUID][]game.Role{},
		board:        map[uuid.UUID]*game.BoardConfig{},
		purposes:     map[uuid.UUID][]uuid.UUID{},
		artifacts:    map[uuid.UUID][]game.Artifact{},
		variants:     map[uuid.UUID][]game.ArtifactVariant{},
		triggers:     map[uuid.UUID][]game.Trigger{},
		failGameKeys: map[string]bool{},
	}
}

func (s *fakeStore) repositories() ImportRepositories {
	return ImportRepositories{
		Games:             fakeGameRepo{s},
		Steps:             fakeStepRepo{s},
		Materials:         fakeMaterialsRepo{s},
		Phases:            fakePhaseRepo{s},
		Roles:             fakeRoleRepo{s},
		BoardConfig:       fakeBoardConfigRepo{s},
		SecondaryPurposes: fakePurposeRepo{s},
		Artifacts:         fakeArtifactRepo{s},
		ArtifactVariants:  fakeVariantRepo{s},
		Triggers:          fakeTriggerRepo{s},
	}
}

func (s *fakeStore) gameByKey(key string) *game.Game {
	id, ok := s.gameIDByKey[key]
	if !ok {
		return nil
	}
	return s.games[id]
}

type fakeGameRepo struct{ store *fakeStore }

func (r fakeGameRepo) GetByID(_ context.Context, id uuid.UUID) (*game.Game, error) {
	g, ok := r.store.games[id]
	if !ok {
		return nil, game.ErrGameNotFound
	}
	return g, nil
}

func (r fakeGameRepo) FindIDByKey(_ context.Context, gameKey string) (uuid.UUID, error) {
	id, ok := r.store.gameIDByKey[gameKey]
	if !ok {
		return uuid.Nil, game.ErrGameNotFound
	}
	return id, nil
}

func (r fakeGameRepo) List(_ context.Context) ([]*game.Game, error) {
	result := make([]*game.Game, 0, len(r.store.games))
	for _, g := range r.store.games {
		result = append(result, g)
	}
	return result, nil
}

func (r fakeGameRepo) Create(_ context.Context, g *game.Game) error {
	r.store.writes++
	if r.store.failGameKeys[g.GameKey] {
		return errors.New("insert rejected")
	}
	r.store.games[g.ID] = g
	r.store.gameIDByKey[g.GameKey] = g.ID
	return nil
}

func (r fakeGameRepo) Update(_ context.Context, g *game.Game) error {
	r.store.writes++
	if r.store.failGameKeys[g.GameKey] {
		return errors.New("update rejected")
	}
	r.store.games[g.ID] = g
	r.store.gameIDByKey[g.GameKey] = g.ID
	return nil
}

func (r fakeGameRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.writes++
	if g, ok := r.store.games[id]; ok {
		delete(r.store.gameIDByKey, g.GameKey)
	}
	delete(r.store.games, id)
	return nil
}

type fakeStepRepo struct{ store *fakeStore }

func (r fakeStepRepo) InsertBatch(_ context.Context, steps []game.Step) error {
	r.store.writes++
	for _, s := range steps {
		r.store.steps[s.GameID] = append(r.store.steps[s.GameID], s)
	}
	return nil
}

func (r fakeStepRepo) ListByGame(_ context.Context, gameID uuid.UUID) ([]game.Step, error) {
	return r.store.steps[gameID], nil
}

func (r fakeStepRepo) DeleteByGame(_ context.Context, gameID uuid.UUID) error {
	r.store.writes++
	delete(r.store.steps, gameID)
	return nil
}

type fakeMaterialsRepo struct{ store *fakeStore }

func (r fakeMaterialsRepo) Insert(_ context.Context, m *game.Materials) error {
	r.store.writes++
	r.store.materials[m.GameID] = m
	return nil
}

func (r fakeMaterialsRepo) GetByGame(_ context.Context, gameID uuid.UUID) (*game.Materials, error) {
	return r.store.materials[gameID], nil
}

func (r fakeMaterialsRepo) DeleteByGame(_ context.Context, gameID uuid.UUID) error {
	r.store.writes++
	delete(r.store.materials, gameID)
	return nil
}

type fakePhaseRepo struct{ store *fakeStore }

func (r fakePhaseRepo) InsertBatch(_ context.Context, phases []game.Phase) error {
	r.store.writes++
	for _, p := range phases {
		r.store.phases[p.GameID] = append(r.store.phases[p.GameID], p)
	}
	return nil
}

func (r fakePhaseRepo) ListByGame(_ context.Context, gameID uuid.UUID) ([]game.Phase, error) {
	return r.store.phases[gameID], nil
}

func (r fakePhaseRepo) DeleteByGame(_ context.Context, gameID uuid.UUID) error {
	r.store.writes++
	delete(r.store.phases, gameID)
	return nil
}

type fakeRoleRepo struct{ store *fakeStore }

func (r fakeRoleRepo) InsertBatch(_ context.Context, roles []game.Role) error {
	r.store.writes++
	for _, role := range roles {
		r.store.roles[role.GameID] = append(r.store.roles[role.GameID], role)
	}
	return nil
}

func (r fakeRoleRepo) ListByGame(_ context.Context, gameID uuid.UUID) ([]game.Role, error) {
	return r.store.roles[gameID], nil
}

func (r fakeRoleRepo) DeleteByGame(_ context.Context, gameID uuid.UUID) error {
	r.store.writes++
	delete(r.store.roles, gameID)
	return nil
}

type fakeBoardConfigRepo struct{ store *fakeStore }

func (r fakeBoardConfigRepo) Insert(_ context.Context, cfg *game.BoardConfig) error {
	r.store.writes++
	r.store.board[cfg.GameID] = cfg
	return nil
}

func (r fakeBoardConfigRepo) GetByGame(_ context.Context, gameID uuid.UUID) (*game.BoardConfig, error) {
	return r.store.board[gameID], nil
}

func (r fakeBoardConfigRepo) DeleteByGame(_ context.Context, gameID uuid.UUID) error {
	r.store.writes++
	delete(r.store.board, gameID)
	return nil
}

type fakePurposeRepo struct{ store *fakeStore }

func (r fakePurposeRepo) InsertBatch(_ context.Context, gameID uuid.UUID, purposeIDs []uuid.UUID) error {
	r.store.writes++
	r.store.purposes[gameID] = append(r.store.purposes[gameID], purposeIDs...)
	return nil
}

func (r fakePurposeRepo) ListByGame(_ context.Context, gameID uuid.UUID) ([]uuid.UUID, error) {
	return r.store.purposes[gameID], nil
}

func (r fakePurposeRepo) DeleteByGame(_ context.Context, gameID uuid.UUID) error {
	r.store.writes++
	delete(r.store.purposes, gameID)
	return nil
}

type fakeArtifactRepo struct{ store *fakeStore }

func (r fakeArtifactRepo) InsertBatch(_ context.Context, artifacts []game.Artifact) error {
	r.store.writes++
	for _, a := range artifacts {
		r.store.artifacts[a.GameID] = append(r.store.artifacts[a.GameID], a)
	}
	return nil
}

func (r fakeArtifactRepo) ListByGame(_ context.Context, gameID uuid.UUID) ([]game.Artifact, error) {
	return r.store.artifacts[gameID], nil
}

func (r fakeArtifactRepo) DeleteByGame(_ context.Context, gameID uuid.UUID) error {
	r.store.writes++
	delete(r.store.artifacts, gameID)
	return nil
}

type fakeVariantRepo struct{ store *fakeStore }

func (r fakeVariantRepo) InsertBatch(_ context.Context, variants []game.ArtifactVariant) error {
	r.store.writes++
	for _, v := range variants {
		r.store.variants[v.ArtifactID] = append(r.store.variants[v.ArtifactID], v)
	}
	return nil
}

func (r fakeVariantRepo) ListByArtifact(_ context.Context, artifactID uuid.UUID) ([]game.ArtifactVariant, error) {
	return r.store.variants[artifactID], nil
}

func (r fakeVariantRepo) DeleteByGame(_ context.Context, gameID uuid.UUID) error {
	r.store.writes++
	for _, a := range r.store.artifacts[gameID] {
		delete(r.store.variants, a.ID)
	}
	return nil
}

type fakeTriggerRepo struct{ store *fakeStore }

func (r fakeTriggerRepo) InsertBatch(_ context.Context, triggers []game.Trigger) error {
	r.store.writes++
	for _, t := range triggers {
		r.store.triggers[t.GameID] = append(r.store.triggers[t.GameID], t)
	}
	return nil
}

func (r fakeTriggerRepo) ListByGame(_ context.Context, gameID uuid.UUID) ([]game.Trigger, error) {
	return r.store.triggers[gameID], nil
}

func (r fakeTriggerRepo) DeleteByGame(_ context.Context, gameID uuid.UUID) error {
	r.store.writes++
	delete(r.store.triggers, gameID)
	return nil
}

func newTestImportService(store *fakeStore) *ImportService {
	svc := NewImportService(store.repositories(), nil)
	svc.inTx = func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
	return svc
}

func upsertOptions() gameimport.Options {
	return gameimport.Options{
		Mode:          gameimport.ModeUpsert,
		DefaultStatus: game.StatusDraft,
		DefaultLocale: "sv",
	}
}

func validRecord(key string) gameimport.Game {
	return gameimport.Game{
		GameKey:          key,
		Name:             "Skattjakten",
		ShortDescription: "En samarbetslek med gömda ledtrådar",
		PlayMode:         "basic",
		Status:           "draft",
		Steps: []gameimport.Step{
			{StepOrder: 1, Title: "Samling", Body: "Samla alla deltagare i en ring."},
		},
	}
}

func TestImportService_DryRunWritesNothing(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)

	result := svc.DryRun(context.Background(), []gameimport.Game{validRecord("skattjakten")}, nil, nil, upsertOptions())

	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.ValidCount)
	assert.Equal(t, 0, store.writes)
}

func TestImportService_CreateThenUpdate(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)
	opts := upsertOptions()

	first := svc.Import(context.Background(), []gameimport.Game{validRecord("skattjakten")}, opts)
	require.True(t, first.Success)
	assert.Equal(t, gameimport.Stats{Total: 1, Created: 1}, first.Stats)

	second := svc.Import(context.Background(), []gameimport.Game{validRecord("skattjakten")}, opts)
	require.True(t, second.Success)
	assert.Equal(t, gameimport.Stats{Total: 1, Updated: 1}, second.Stats)

	require.NotNil(t, store.gameByKey("skattjakten"))
	assert.Len(t, store.games, 1)
}

func TestImportService_CreateModeNeverUpdates(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)
	opts := upsertOptions()
	opts.Mode = gameimport.ModeCreate

	svc.Import(context.Background(), []gameimport.Game{validRecord("skattjakten")}, opts)
	result := svc.Import(context.Background(), []gameimport.Game{validRecord("skattjakten")}, opts)

	assert.Equal(t, 1, result.Stats.Created)
	assert.Equal(t, 0, result.Stats.Updated)
	assert.Len(t, store.games, 2)
}

func TestImportService_UpdateReplacesChildren(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)
	opts := upsertOptions()

	record := validRecord("skattjakten")
	record.Steps = []gameimport.Step{
		{StepOrder: 1, Title: "Ett", Body: "Första steget."},
		{StepOrder: 2, Title: "Två", Body: "Andra steget."},
		{StepOrder: 3, Title: "Tre", Body: "Tredje steget."},
	}
	require.True(t, svc.Import(context.Background(), []gameimport.Game{record}, opts).Success)

	record.Steps = record.Steps[:1]
	require.True(t, svc.Import(context.Background(), []gameimport.Game{record}, opts).Success)

	gameID := store.gameIDByKey["skattjakten"]
	steps := store.steps[gameID]
	require.Len(t, steps, 1)
	assert.Equal(t, "Ett", steps[0].Title)
}

func TestImportService_ResolvesPositionalAliases(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)

	record := validRecord("skattjakten")
	record.Artifacts = []gameimport.Artifact{
		{ArtifactOrder: 1, Title: "Hemligt kort", ArtifactType: "card"},
	}
	record.Triggers = []gameimport.Trigger{
		{
			Name:      "Visa kortet",
			Enabled:   true,
			Condition: game.StepCompletedCondition{StepOrder: intRef(1)},
			Actions:   []game.TriggerAction{game.RevealArtifactAction{ArtifactOrder: intRef(1)}},
		},
	}

	result := svc.Import(context.Background(), []gameimport.Game{record}, upsertOptions())
	require.True(t, result.Success, "errors: %v", result.Errors)

	gameID := store.gameIDByKey["skattjakten"]
	triggers := store.triggers[gameID]
	require.Len(t, triggers, 1)

	cond, ok := triggers[0].Condition.(game.StepCompletedCondition)
	require.True(t, ok)
	require.NotNil(t, cond.StepID)
	assert.Equal(t, store.steps[gameID][0].ID.String(), *cond.StepID)
	assert.Nil(t, cond.StepOrder)

	require.Len(t, triggers[0].Actions, 1)
	action, ok := triggers[0].Actions[0].(game.RevealArtifactAction)
	require.True(t, ok)
	require.NotNil(t, action.ArtifactID)
	assert.Equal(t, store.artifacts[gameID][0].ID.String(), *action.ArtifactID)
	assert.Nil(t, action.ArtifactOrder)
}

func TestImportService_UnresolvableAliasStaysNull(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)

	record := validRecord("skattjakten")
	record.Triggers = []gameimport.Trigger{
		{
			Name:      "Trasig referens",
			Enabled:   true,
			Condition: game.StepCompletedCondition{StepOrder: intRef(99)},
		},
	}

	result := svc.Import(context.Background(), []gameimport.Game{record}, upsertOptions())
	require.True(t, result.Success, "errors: %v", result.Errors)

	gameID := store.gameIDByKey["skattjakten"]
	cond, ok := store.triggers[gameID][0].Condition.(game.StepCompletedCondition)
	require.True(t, ok)
	assert.Nil(t, cond.StepID)
	assert.Nil(t, cond.StepOrder)
}

func TestImportService_VariantRoleOrderBeatsName(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)

	record := validRecord("skattjakten")
	record.PlayMode = "participants"
	record.Roles = []gameimport.Role{
		{RoleOrder: 1, Name: "Detektiv", PrivateInstructions: "Leta efter spår.", MinCount: 1, AssignmentStrategy: "random"},
		{RoleOrder: 2, Name: "Skurk", PrivateInstructions: "Göm ledtrådarna.", MinCount: 1, AssignmentStrategy: "random"},
	}
	record.Artifacts = []gameimport.Artifact{
		{
			ArtifactOrder: 1,
			Title:         "Hemligt uppdrag",
			ArtifactType:  "card",
			Variants: []gameimport.ArtifactVariant{
				{
					VariantOrder:       1,
					Visibility:         "role_private",
					VisibleToRoleOrder: intRef(2),
					VisibleToRoleName:  strRef("Detektiv"),
				},
			},
		},
	}

	result := svc.Import(context.Background(), []gameimport.Game{record}, upsertOptions())
	require.True(t, result.Success, "errors: %v", result.Errors)

	gameID := store.gameIDByKey["skattjakten"]
	artifactID := store.artifacts[gameID][0].ID
	variants := store.variants[artifactID]
	require.Len(t, variants, 1)
	require.NotNil(t, variants[0].VisibleToRoleID)

	var skurkID uuid.UUID
	for _, role := range store.roles[gameID] {
		if role.Name == "Skurk" {
			skurkID = role.ID
		}
	}
	assert.Equal(t, skurkID, *variants[0].VisibleToRoleID)
}

func TestImportService_PartialFailureIsolated(t *testing.T) {
	store := newFakeStore()
	store.failGameKeys["trasig"] = true
	svc := newTestImportService(store)

	records := []gameimport.Game{
		validRecord("forsta"),
		validRecord("trasig"),
		validRecord("tredje"),
	}
	result := svc.Import(context.Background(), records, upsertOptions())

	assert.False(t, result.Success)
	assert.Equal(t, gameimport.Stats{Total: 3, Created: 2, Skipped: 1}, result.Stats)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, "general", result.Errors[0].Column)

	assert.NotNil(t, store.gameByKey("forsta"))
	assert.Nil(t, store.gameByKey("trasig"))
	assert.NotNil(t, store.gameByKey("tredje"))
}

func TestImportService_InvalidRecordsSkipped(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)

	invalid := validRecord("utan-namn")
	invalid.Name = ""
	records := []gameimport.Game{validRecord("giltig"), invalid}

	result := svc.Import(context.Background(), records, upsertOptions())

	assert.False(t, result.Success)
	assert.Equal(t, gameimport.Stats{Total: 2, Created: 1, Skipped: 1}, result.Stats)
	assert.NotNil(t, store.gameByKey("giltig"))
	assert.Nil(t, store.gameByKey("utan-namn"))
}

func TestImportService_DuplicateStepOrderFailsRecord(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)

	record := validRecord("skattjakten")
	record.Steps = []gameimport.Step{
		{StepOrder: 1, Title: "Ett", Body: "Första."},
		{StepOrder: 1, Title: "Dubblett", Body: "Samma ordning."},
	}

	result := svc.Import(context.Background(), []gameimport.Game{record}, upsertOptions())

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Stats.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "duplicate step_order")
}

func TestImportService_NilConditionStoredAsManual(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)

	record := validRecord("skattjakten")
	record.Triggers = []gameimport.Trigger{{Name: "Manuell", Enabled: true}}

	result := svc.Import(context.Background(), []gameimport.Game{record}, upsertOptions())
	require.True(t, result.Success, "errors: %v", result.Errors)

	gameID := store.gameIDByKey["skattjakten"]
	require.Len(t, store.triggers[gameID], 1)
	assert.Equal(t, "manual", store.triggers[gameID][0].Condition.ConditionType())
}

func TestImportService_LogsStartAndDone(t *testing.T) {
	store := newFakeStore()
	svc := newTestImportService(store)

	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	ctx := composables.WithLogger(context.Background(), logrus.NewEntry(logger))

	result := svc.Import(ctx, []gameimport.Game{validRecord("skattjakten")}, upsertOptions())
	require.True(t, result.Success, "errors: %v", result.Errors)

	require.Len(t, hook.Entries, 2)
	start, done := hook.Entries[0], hook.Entries[1]

	assert.Equal(t, "import.start", start.Message)
	assert.Equal(t, 1, start.Data["total"])

	assert.Equal(t, "import.done", done.Message)
	assert.Equal(t, 1, done.Data["created"])
	assert.Equal(t, 0, done.Data["skipped"])
	assert.Equal(t, start.Data["import_run_id"], done.Data["import_run_id"])
	assert.NotEmpty(t, done.Data["import_run_id"])
}

func intRef(v int) *int { return &v }

func strRef(v string) *string { return &v }
