package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/bentacars/qualifier/internal/config"
	"github.com/bentacars/qualifier/pkg/logging"
)

func TestNewServerServesChat(t *testing.T) {
	cfg := &appconfig.Config{Port: "0", PhraseTimeout: 20 * time.Second}
	srv, app, err := newServer(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, 25*time.Second, srv.WriteTimeout)

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"SUV","user":"u1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestNewServerDefaultWriteTimeout(t *testing.T) {
	srv, app, err := newServer(context.Background(), &appconfig.Config{Port: "8080"}, logging.Discard())
	require.NoError(t, err)
	defer app.Close()
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
}

func TestNewServerConfigError(t *testing.T) {
	_, _, err := newServer(context.Background(), &appconfig.Config{PlaybookPath: "/does/not/exist.yaml"}, logging.Discard())
	assert.Error(t, err)
}
