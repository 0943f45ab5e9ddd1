package modules

import (
	"github.com/lekbanken/lekbanken/modules/games"
	"github.com/lekbanken/lekbanken/pkg/application"
)

var BuiltInModules = []application.Module{
	games.NewModule(),
}

func Load(app application.Application, mods ...application.Module) error {
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
