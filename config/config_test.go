package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("provider = %q, want openai", cfg.LLM.Provider)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.WriteTimeout != 30*time.Minute {
		t.Errorf("write timeout = %v", cfg.Server.WriteTimeout)
	}
	if cfg.Session.Store != StoreMemory || cfg.Session.TTL != 24*time.Hour {
		t.Errorf("session = %+v", cfg.Session)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	yaml := `
llm:
  provider: claude
  model: from-file
server:
  addr: ":9000"
session:
  store: redis
  ttl: 2h
`
	if err := os.WriteFile(cfgFile, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("STREAMLIT_APP_PASSWORD=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BOOKWRITER_LLM_MODEL", "from-env")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("STREAMLIT_APP_PASSWORD", "")
	os.Unsetenv("STREAMLIT_APP_PASSWORD")

	cfg, err := Load(cfgFile, envFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Run("file", func(t *testing.T) {
		if cfg.LLM.Provider != "claude" || cfg.Server.Addr != ":9000" {
			t.Errorf("got provider %q addr %q", cfg.LLM.Provider, cfg.Server.Addr)
		}
		if cfg.Session.Store != StoreRedis || cfg.Session.TTL != 2*time.Hour {
			t.Errorf("session = %+v", cfg.Session)
		}
	})
	t.Run("env overrides file", func(t *testing.T) {
		if cfg.LLM.Model != "from-env" {
			t.Errorf("model = %q, want from-env", cfg.LLM.Model)
		}
	})
	t.Run("legacy names", func(t *testing.T) {
		if cfg.LLM.APIKey != "sk-test" {
			t.Errorf("api key = %q", cfg.LLM.APIKey)
		}
		if cfg.Server.Password != "from-dotenv" {
			t.Errorf("password = %q", cfg.Server.Password)
		}
	})
}

func TestLoadMissingFiles(t *testing.T) {
	if _, err := Load("", filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), ""); err == nil {
		t.Error("missing config file should be an error")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		LLM:     LLMConfig{Provider: "openai", APIKey: "k"},
		Session: SessionConfig{Store: StoreMemory},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama" }},
		{"missing key", func(c *Config) { c.LLM.APIKey = "" }},
		{"unknown store", func(c *Config) { c.Session.Store = "disk" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected an error")
			}
		})
	}
}
