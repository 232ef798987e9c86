package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gear6io/parity/server/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerLifecycle(t *testing.T) {
	cfg := config.LoadDefaultConfig()
	cfg.API.Address = config.LOCALHOST_ADDRESS
	cfg.API.Port = 0

	srv, err := New(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	assert.Equal(t, 1, srv.GetStatus()["components"])

	token := cfg.API.Tokens["doctor"]
	req, err := http.NewRequest(http.MethodGet, "http://"+srv.APIAddr()+"/patients/P12345/records", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Equal(t, 0, srv.GetStatus()["components"])
}

func TestServerRequiresTokens(t *testing.T) {
	cfg := config.LoadDefaultConfig()
	cfg.API.Tokens = map[string]string{}

	_, err := New(cfg, nil, zerolog.Nop())
	assert.Error(t, err)
}
