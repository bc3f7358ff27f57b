package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Tyrowin/scrumpoker/internal/server"
)

func main() {
	config, err := server.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	server.ConfigureLogging(config)

	log.Info().
		Str("port", config.Port).
		Strs("allowed_origins", config.AllowedOrigins).
		Msg("starting scrum poker server")

	hub := server.NewHub(config)
	go hub.Run()

	httpServer := server.CreateServer(config.Port, server.SetupRoutes(hub))

	serverErr := make(chan error, 1)
	go func() {
		if err := server.StartServer(httpServer); err != nil {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-serverErr:
		log.Fatal().Err(err).Msg("server failed")
	}

	if err := server.ShutdownServer(httpServer, config.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("HTTP server did not shut down cleanly")
	}
	if err := hub.Shutdown(config.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("hub did not shut down cleanly")
	}
	log.Info().Msg("server stopped")
}
