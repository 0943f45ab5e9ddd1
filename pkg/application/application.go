package application

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/lekbanken/lekbanken/pkg/eventbus"
)

// Controller is anything that can mount routes on the shared router.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module is a self-contained feature slice that wires its own
// services and controllers into the application.
type Module interface {
	Name() string
	Register(app Application) error
}

type Application interface {
	Pool() *pgxpool.Pool
	Logger() *logrus.Logger
	EventPublisher() eventbus.EventBus
	Controllers() []Controller
	Middleware() []mux.MiddlewareFunc
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
}

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	return &application{
		pool:     opts.Pool,
		eventBus: opts.EventBus,
		logger:   opts.Logger,
	}
}

type application struct {
	pool        *pgxpool.Pool
	eventBus    eventbus.EventBus
	logger      *logrus.Logger
	controllers map[string]Controller
	keys        []string
	middleware  []mux.MiddlewareFunc
}

func (a *application) Pool() *pgxpool.Pool {
	return a.pool
}

func (a *application) Logger() *logrus.Logger {
	return a.logger
}

func (a *application) EventPublisher() eventbus.EventBus {
	return a.eventBus
}

func (a *application) Controllers() []Controller {
	out := make([]Controller, 0, len(a.keys))
	for _, key := range a.keys {
		out = append(out, a.controllers[key])
	}
	return out
}

func (a *application) Middleware() []mux.MiddlewareFunc {
	return a.middleware
}

func (a *application) RegisterControllers(controllers ...Controller) {
	if a.controllers == nil {
		a.controllers = map[string]Controller{}
	}
	for _, c := range controllers {
		if _, ok := a.controllers[c.Key()]; !ok {
			a.keys = append(a.keys, c.Key())
		}
		a.controllers[c.Key()] = c
	}
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}
