package telephony

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestMintVoiceToken(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	raw, err := mintVoiceToken(tokenParams{
		AccountSID:     "AC123",
		APIKey:         "SK123",
		APISecret:      "shh",
		ApplicationSID: "AP123",
		Identity:       SafeIdentity("alice@example.com"),
		AllowIncoming:  true,
		TTL:            time.Hour,
		Now:            now,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	var claims accessTokenClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return []byte("shh"), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tok.Header["cty"] != "twilio-fpa;v=1" {
		t.Fatalf("unexpected cty header: %v", tok.Header["cty"])
	}
	if claims.Issuer != "SK123" || claims.Subject != "AC123" {
		t.Fatalf("unexpected iss/sub: %s %s", claims.Issuer, claims.Subject)
	}
	if claims.Grants.Identity != "alice(at)example.com" {
		t.Fatalf("unexpected identity: %s", claims.Grants.Identity)
	}
	if claims.Grants.Voice == nil || claims.Grants.Voice.Incoming == nil || !claims.Grants.Voice.Incoming.Allow {
		t.Fatalf("expected incoming grant")
	}
	if claims.Grants.Voice.Outgoing.ApplicationSID != "AP123" {
		t.Fatalf("unexpected app sid: %s", claims.Grants.Voice.Outgoing.ApplicationSID)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected exp: %v", claims.ExpiresAt)
	}
}

func TestMintVoiceTokenRequiresIdentity(t *testing.T) {
	_, err := mintVoiceToken(tokenParams{AccountSID: "AC", APIKey: "SK", APISecret: "x", Now: time.Now()})
	if err == nil {
		t.Fatalf("expected error")
	}
}
