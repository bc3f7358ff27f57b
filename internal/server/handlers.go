// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the small REST surface over the room registry.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/Tyrowin/scrumpoker/internal/room"
)

// WebSocketHandler returns a handler that upgrades GET requests to WebSocket
// connections and registers a new Client with hub. The hub starts the
// client's read/write pumps.
func WebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := hub.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		if !hub.Register(client) {
			client.closeConnection()
		}
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Scrum poker server is running!")
}

type createRoomResponse struct {
	Code room.Code `json:"code"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type statsResponse struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// CreateRoomHandler creates an empty room and responds with its code.
func CreateRoomHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := hub.Rooms().Create()
		log.Info().Str("room", code.String()).Str("remote_addr", r.RemoteAddr).Msg("room created over HTTP")
		writeJSON(w, http.StatusCreated, createRoomResponse{Code: code})
	}
}

// RoomHandler reports the participant count and reveal flag of the room named
// by the {code} path segment.
func RoomHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, ok := room.NormalizeCode(r.PathValue("code"))
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrMsgRoomNotFound})
			return
		}

		summary, err := hub.Rooms().Lookup(code)
		if errors.Is(err, room.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrMsgRoomNotFound})
			return
		}
		if err != nil {
			log.Error().Err(err).Str("room", code.String()).Msg("room lookup failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

// StatsHandler reports the number of live rooms and WebSocket connections.
func StatsHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, statsResponse{
			Rooms:       hub.Rooms().Len(),
			Connections: hub.ClientCount(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to write JSON response")
	}
}
