// Gauvendi Sync - Hotel PMS Synchronization Engine
// Copyright 2026 Javi N. (javinobile)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/javinobile/Gauvendi-sub006

// Package pms defines the wire payloads exchanged with the external
// Property Management System: identity tokens, pagination envelopes,
// webhook bodies and the entity snapshots re-fetched during reconciliation.
//
// These are transport DTOs only; internal entities live behind the
// persistence collaborator and are not defined here.
package pms

// TokenResponse is returned by the PMS identity endpoint when exchanging the
// long-lived refresh credential for a short-lived access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	// ExpiresIn is the token lifetime in seconds, as reported by the provider.
	ExpiresIn int `json:"expires_in"`
}

// TokenRequest is the body sent to the identity endpoint.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	// PropertyCode scopes the issued token to one external property.
	PropertyCode string `json:"property_code"`
}
