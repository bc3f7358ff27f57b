package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateServerTimeouts(t *testing.T) {
	srv := CreateServer(":9999", http.NotFoundHandler())

	assert.Equal(t, ":9999", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
}

func TestStartAndShutdownServer(t *testing.T) {
	srv := CreateServer("127.0.0.1:0", http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- StartServer(srv) }()

	require.NoError(t, ShutdownServer(srv, time.Second))
	select {
	case err := <-done:
		assert.NoError(t, err, "a shutdown is not a failure")
	case <-time.After(2 * time.Second):
		t.Fatal("StartServer did not return after shutdown")
	}
}

func TestStartServerInvalidAddress(t *testing.T) {
	err := StartServer(CreateServer("127.0.0.1:-1", http.NotFoundHandler()))
	assert.ErrorContains(t, err, "listen on 127.0.0.1:-1")
}
