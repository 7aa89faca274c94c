package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080, PublicStreamURL: "wss://example.com/media-stream"},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "receptionist"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret", AccessTokenTTL: 15 * time.Minute},
		OpenAI: OpenAIConfig{
			APIKey:      "sk-test",
			Temperature: 0.8,
		},
		Schedule: ScheduleConfig{
			Timezone:         "America/Los_Angeles",
			OpenHour:         9,
			LastBookableHour: 16,
			MorningHour:      9,
			DaysAhead:        7,
		},
		Call: CallConfig{GraceWindow: 3 * time.Second, MaxCallDuration: time.Hour},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_AcceptsCompleteConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "receptionist"
	c.Auth.JWTAudience = "operators"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
	c.DB.SSLMode = "require"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error with explicit sslmode, got %v", err)
	}
}

func TestValidate_RequiresOpenAIKey(t *testing.T) {
	c := validConfig()
	c.OpenAI.APIKey = ""
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected OPENAI_API_KEY error, got %v", err)
	}
}

func TestValidate_RejectsBadStreamURL(t *testing.T) {
	c := validConfig()
	c.App.PublicStreamURL = "https://example.com/media-stream"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-websocket stream url")
	}
}

func TestValidate_RejectsInvertedHours(t *testing.T) {
	c := validConfig()
	c.Schedule.OpenHour = 17
	c.Schedule.LastBookableHour = 9
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for open hour after last bookable hour")
	}
}

func TestValidate_RejectsBadTimezone(t *testing.T) {
	c := validConfig()
	c.Schedule.Timezone = "Mars/Olympus_Mons"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestValidate_FallbackNeedsDefaultCalendar(t *testing.T) {
	c := validConfig()
	c.Fallback.Name = "Demo Receptionist"
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "GOOGLE_CALENDAR_ID") {
		t.Fatalf("expected GOOGLE_CALENDAR_ID error, got %v", err)
	}
	c.Calendar.DefaultID = "primary"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error with a default calendar, got %v", err)
	}
}

func TestFallbackEnabledByName(t *testing.T) {
	var f FallbackBusinessConfig
	if f.Enabled() {
		t.Fatalf("empty fallback must be disabled")
	}
	f.Name = "Demo Receptionist"
	if !f.Enabled() {
		t.Fatalf("fallback with a name must be enabled")
	}
}
