package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	var c Config
	c.Normalize()
	if c.EventsDir != "events" || c.Output != "data.json" || c.HorizonDays != 7 {
		t.Fatalf("normalized config = %+v", c)
	}

	c = Config{HorizonDays: 30, Listen: "0.0.0.0:9000"}
	c.Normalize()
	if c.HorizonDays != 30 || c.Listen != "0.0.0.0:9000" {
		t.Fatalf("normalize clobbered explicit values: %+v", c)
	}
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wcc.yaml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EventsDir != "events" {
		t.Fatalf("default config = %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wcc.yaml")
	cfg := DefaultConfig()
	cfg.EventsDir = "/srv/events"
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "secret"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.EventsDir != "/srv/events" {
		t.Fatalf("EventsDir = %q", loaded.EventsDir)
	}
	if loaded.BasicAuth == nil || loaded.BasicAuth.Username != "admin" {
		t.Fatalf("BasicAuth = %+v", loaded.BasicAuth)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("config perms = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoadEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatal("empty path should fail")
	}
}
