package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/mckriel/omg-backend/internal/config"
	"github.com/mckriel/omg-backend/internal/constants"
	fxmodules "github.com/mckriel/omg-backend/internal/fx"
	"github.com/mckriel/omg-backend/internal/middleware"
	"github.com/mckriel/omg-backend/internal/server"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	srv *server.Server,
	cfg *config.Config,
	db *mongo.Database,
	logger zerolog.Logger,
) {
	app := fiber.New(fiber.Config{
		ReadTimeout:           constants.RequestTimeout,
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "*",
	}))
	app.Use(middleware.RequestID(logger))

	srv.Register(app)

	addr := fmt.Sprintf(":%s", cfg.ServerPort)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", addr).Msg("server starting")
				if err := app.Listen(addr); err != nil {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")

			if err := app.ShutdownWithTimeout(constants.ShutdownTimeout); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
			}

			disconnectCtx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
			defer cancel()
			if err := db.Client().Disconnect(disconnectCtx); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
