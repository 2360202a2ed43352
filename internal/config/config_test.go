package config

import (
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080, PublicBaseURL: "https://crm.example.com"},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "crm", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLModeAndSignatures(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "crm"
	c.Auth.JWTAudience = "voip"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE and signature validation")
	}

	c = validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "crm"
	c.Auth.JWTAudience = "voip"
	c.DB.SSLMode = "require"
	c.Twilio.ValidateSignature = true
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Twilio.TokenTTL != time.Hour {
		t.Fatalf("expected 1h token ttl default, got %s", c.Twilio.TokenTTL)
	}
	if c.App.DefaultPhoneRegion != "US" {
		t.Fatalf("expected US region default, got %q", c.App.DefaultPhoneRegion)
	}
}

func TestValidate_RejectsRelativeBaseURL(t *testing.T) {
	c := validLocal()
	c.App.PublicBaseURL = "/relative"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for relative PUBLIC_BASE_URL")
	}
}

func TestParseStatusMap(t *testing.T) {
	m, err := parseStatusMap("CALL_STATUS_MAP", "In-Progress=In Progress, answered=In Progress")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if m["in-progress"] != "In Progress" || m["answered"] != "In Progress" {
		t.Fatalf("unexpected map: %v", m)
	}
	if _, err := parseStatusMap("CALL_STATUS_MAP", "broken"); err == nil {
		t.Fatalf("expected error for malformed entry")
	}
}
