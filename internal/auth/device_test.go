package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newAuthServer(t *testing.T, idToken string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/device", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client-1", r.Form.Get("client_id"))
		assert.Equal(t, "openid email profile", r.Form.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "dev-code",
			"user_code":        "ABCD-EFGH",
			"verification_uri": "https://example.com/device",
			"expires_in":       60,
			"interval":         1,
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "dev-code", r.Form.Get("device_code"))

		w.Header().Set("Content-Type", "application/json")
		if polls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "authorization_pending"})
			return
		}
		body := map[string]any{
			"access_token": "access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if idToken != "" {
			body["id_token"] = idToken
		}
		_ = json.NewEncoder(w).Encode(body)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func endpointFor(srv *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{
		DeviceAuthURL: srv.URL + "/device",
		TokenURL:      srv.URL + "/token",
		AuthStyle:     oauth2.AuthStyleInParams,
	}
}

func TestDeviceLogin(t *testing.T) {
	srv, polls := newAuthServer(t, "header.payload.sig")
	d := NewDeviceLoginWithEndpoint("client-1", "secret", endpointFor(srv))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	da, err := d.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ABCD-EFGH", da.UserCode)
	assert.Equal(t, "https://example.com/device", da.VerificationURI)

	idToken, err := d.Wait(ctx, da)
	require.NoError(t, err)
	assert.Equal(t, "header.payload.sig", idToken)
	assert.EqualValues(t, 2, polls.Load())
}

func TestDeviceLogin_NoIDToken(t *testing.T) {
	srv, _ := newAuthServer(t, "")
	d := NewDeviceLoginWithEndpoint("client-1", "secret", endpointFor(srv))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	da, err := d.Start(ctx)
	require.NoError(t, err)
	_, err = d.Wait(ctx, da)
	assert.ErrorIs(t, err, ErrNoIDToken)
}

func TestDeviceLogin_RequiresClientID(t *testing.T) {
	_, err := NewDeviceLogin("", "").Start(context.Background())
	assert.Error(t, err)
}
