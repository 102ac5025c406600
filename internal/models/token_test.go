package models

import (
	"testing"
	"time"
)

func TestCredential_Valid(t *testing.T) {
	tests := []struct {
		cred Credential
		want bool
	}{
		{Credential{ClientID: "id", ClientSecret: "secret"}, true},
		{Credential{ClientID: "id"}, false},
		{Credential{ClientSecret: "secret"}, false},
		{Credential{}, false},
	}
	for _, tt := range tests {
		if got := tt.cred.Valid(); got != tt.want {
			t.Errorf("Valid(%+v) = %v, want %v", tt.cred, got, tt.want)
		}
	}
}

func TestTokenState_HasTokens(t *testing.T) {
	if (TokenState{}).HasTokens() {
		t.Error("empty state should not have tokens")
	}
	if (TokenState{AccessToken: "a"}).HasTokens() {
		t.Error("access token alone is not enough")
	}
	if !(TokenState{AccessToken: "a", RefreshToken: "r"}).HasTokens() {
		t.Error("both tokens present should report true")
	}
}

func TestTokenState_ExpiresSoon(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"already expired", now.Add(-time.Hour), true},
		{"inside buffer", now.Add(2 * time.Minute), true},
		{"exactly at buffer", now.Add(TokenExpiryBuffer), true},
		{"just beyond buffer", now.Add(TokenExpiryBuffer + time.Second), false},
		{"well in the future", now.Add(6 * time.Hour), false},
	}
	for _, tt := range tests {
		state := TokenState{ExpiresAt: tt.expiresAt.Unix()}
		if got := state.ExpiresSoon(now); got != tt.want {
			t.Errorf("%s: ExpiresSoon = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTokenExchange_TokenState(t *testing.T) {
	exchange := &TokenExchange{AccessToken: "a", RefreshToken: "r", ExpiresAt: 100}
	state := exchange.TokenState()
	if state.AccessToken != "a" || state.RefreshToken != "r" || state.ExpiresAt != 100 {
		t.Errorf("unexpected state %+v", state)
	}
}

func TestTokenExchange_AthleteName(t *testing.T) {
	exchange := &TokenExchange{}
	exchange.Athlete.Firstname = "Ada"
	exchange.Athlete.Lastname = "Lovelace"
	if got := exchange.AthleteName(); got != "Ada Lovelace" {
		t.Errorf("AthleteName = %q", got)
	}

	exchange.Athlete.Lastname = ""
	if got := exchange.AthleteName(); got != "Ada" {
		t.Errorf("AthleteName = %q, want trimmed single name", got)
	}
}
