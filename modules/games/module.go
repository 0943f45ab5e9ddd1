package games

import (
	"github.com/lekbanken/lekbanken/modules/games/infrastructure/persistence"
	"github.com/lekbanken/lekbanken/modules/games/presentation/controllers"
	"github.com/lekbanken/lekbanken/modules/games/services"
	"github.com/lekbanken/lekbanken/pkg/application"
	"github.com/lekbanken/lekbanken/pkg/configuration"
)

func NewModule() application.Module {
	return &module{}
}

type module struct{}

func (m *module) Name() string {
	return "games"
}

func (m *module) Register(app application.Application) error {
	repos := services.ImportRepositories{
		Games:             persistence.NewGameRepository(),
		Steps:             persistence.NewStepRepository(),
		Materials:         persistence.NewMaterialsRepository(),
		Phases:            persistence.NewPhaseRepository(),
		Roles:             persistence.NewRoleRepository(),
		BoardConfig:       persistence.NewBoardConfigRepository(),
		SecondaryPurposes: persistence.NewSecondaryPurposeRepository(),
		Artifacts:         persistence.NewArtifactRepository(),
		ArtifactVariants:  persistence.NewArtifactVariantRepository(),
		Triggers:          persistence.NewTriggerRepository(),
	}

	app.RegisterControllers(
		controllers.NewGamesAPIController(
			app,
			services.NewImportService(repos, app.EventPublisher()),
			services.NewExportService(repos),
			services.NewGameService(repos.Games),
			configuration.Use().Import,
		),
	)
	return nil
}
