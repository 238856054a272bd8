package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_PORT", "STORE_BACKEND", "REQUIRE_OPERATOR_SESSION", "CORS_ALLOWED_ORIGINS", "SESSION_TTL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.HTTPPort != "5000" {
		t.Fatalf("port = %q", cfg.HTTPPort)
	}
	if cfg.StoreBackend != "postgres" {
		t.Fatalf("store backend = %q", cfg.StoreBackend)
	}
	if cfg.RequireOperatorSession {
		t.Fatal("operator session guard should default off")
	}
	if !reflect.DeepEqual(cfg.CORSAllowedOrigins, []string{"*"}) {
		t.Fatalf("cors = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("session ttl = %v", cfg.SessionTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("REQUIRE_OPERATOR_SESSION", "TRUE")
	t.Setenv("RATE_LIMIT_PER_MIN", "42")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("LOG_COMPRESS", "1")

	cfg := Load()
	if cfg.StoreBackend != "memory" || !cfg.RequireOperatorSession || cfg.RateLimitPerMin != 42 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("session ttl = %v", cfg.SessionTTL)
	}
	if want := []string{"http://a.test", "http://b.test"}; !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Fatalf("cors = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
	if !cfg.Log.Compress {
		t.Fatal("log compress not parsed")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("REQUIRE_OPERATOR_SESSION", "maybe")

	cfg := Load()
	if cfg.RateLimitPerMin != 300 || cfg.SessionTTL != 12*time.Hour || cfg.RequireOperatorSession {
		t.Fatalf("fallbacks not applied: %+v", cfg)
	}
}

func TestLocation(t *testing.T) {
	if loc := (App{Timezone: "UTC"}).Location(); loc != time.UTC {
		t.Fatalf("loc = %v", loc)
	}
	if loc := (App{Timezone: "Not/AZone"}).Location(); loc != time.Local {
		t.Fatalf("bad zone should fall back to local, got %v", loc)
	}
}
