package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNoIDToken is returned when the token response carries no ID token.
var ErrNoIDToken = errors.New("token response has no id_token")

// Scopes requested for sign in. The backend verifies the ID token; mailbox
// access is granted separately through the connect flow.
var Scopes = []string{"openid", "email", "profile"}

// DeviceLogin signs a user in with the OAuth 2.0 device authorization
// grant and yields the Google ID token the backend exchanges for a
// session.
type DeviceLogin struct {
	cfg *oauth2.Config
}

// NewDeviceLogin creates a device login against Google's endpoints.
func NewDeviceLogin(clientID, clientSecret string) *DeviceLogin {
	return NewDeviceLoginWithEndpoint(clientID, clientSecret, google.Endpoint)
}

// NewDeviceLoginWithEndpoint creates a device login against a custom
// authorization server.
func NewDeviceLoginWithEndpoint(clientID, clientSecret string, endpoint oauth2.Endpoint) *DeviceLogin {
	return &DeviceLogin{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoint,
		Scopes:       Scopes,
	}}
}

// Start requests a device code. The caller shows VerificationURI and
// UserCode to the user, then calls Wait.
func (d *DeviceLogin) Start(ctx context.Context) (*oauth2.DeviceAuthResponse, error) {
	if d.cfg.ClientID == "" {
		return nil, errors.New("google client id is not configured")
	}
	da, err := d.cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting device code: %w", err)
	}
	return da, nil
}

// Wait polls until the user approves the device code and returns the ID
// token. It stops when ctx is done or the code expires.
func (d *DeviceLogin) Wait(ctx context.Context, da *oauth2.DeviceAuthResponse) (string, error) {
	tok, err := d.cfg.DeviceAccessToken(ctx, da)
	if err != nil {
		return "", fmt.Errorf("waiting for device approval: %w", err)
	}
	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return "", ErrNoIDToken
	}
	return idToken, nil
}
