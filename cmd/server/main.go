package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lekbanken/lekbanken/modules"
	"github.com/lekbanken/lekbanken/pkg/application"
	"github.com/lekbanken/lekbanken/pkg/configuration"
	"github.com/lekbanken/lekbanken/pkg/eventbus"
	"github.com/lekbanken/lekbanken/pkg/metrics"
	"github.com/lekbanken/lekbanken/pkg/middleware"
	"github.com/lekbanken/lekbanken/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})

	app.RegisterMiddleware(
		middleware.WithLogger(logger),
		middleware.ProvidePool(pool),
	)
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	srv := server.NewHTTPServer(
		app,
		http.NotFoundHandler(),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}),
	)
	srv.AllowedOrigins = []string{conf.Origin}

	log.Printf("Listening on: %s\n", conf.Origin)
	if err := srv.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
