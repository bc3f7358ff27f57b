// Package server wires HTTP handlers into a ServeMux behind CORS for the
// scrum poker application via routing helpers.
package server

import (
	"net/http"

	"github.com/rs/cors"
)

// SetupRoutes configures the application routes for hub and wraps them in a
// CORS handler that admits the hub's configured origins.
func SetupRoutes(hub *Hub) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", HealthHandler)
	mux.HandleFunc("GET /health", HealthHandler)
	mux.HandleFunc("/ws", WebSocketHandler(hub))
	mux.HandleFunc("POST /api/rooms", CreateRoomHandler(hub))
	mux.HandleFunc("GET /api/rooms/{code}", RoomHandler(hub))
	mux.HandleFunc("GET /api/stats", StatsHandler(hub))

	opts := cors.Options{
		AllowedOrigins: hub.origins.corsOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}
	// cors treats an empty list as "allow all"; no configured origins means none.
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(opts).Handler(mux)
}
