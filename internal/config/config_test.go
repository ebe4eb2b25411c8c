package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks every ANALYSER_* variable for the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ANALYSER_API_KEY", "ANALYSER_BASE_URL", "ANALYSER_MODEL", "ANALYSER_DATA_DIR",
		"ANALYSER_HTTP_ADDR", "ANALYSER_USER", "ANALYSER_LOG_LEVEL", "ANALYSER_MAX_SEARCH_RESULTS",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.User != DefaultUser || cfg.LLM.Model != DefaultModel || cfg.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.LLM.APIKey != "" {
		t.Error("API key must not default to anything")
	}
	if cfg.MaxSearchResults != 20 {
		t.Errorf("MaxSearchResults = %d", cfg.MaxSearchResults)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
data_dir: /tmp/analyser-data
user: alice
log_level: debug
llm:
  api_key: sk-file
  base_url: https://gateway.example/v1
http:
  addr: ":9000"
  tokens:
    tok-alice: alice
    tok-bob: bob
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != "/tmp/analyser-data" || cfg.User != "alice" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LLM.APIKey != "sk-file" || cfg.LLM.BaseURL != "https://gateway.example/v1" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.Model != DefaultModel {
		t.Errorf("unset model should keep default, got %q", cfg.LLM.Model)
	}
	if cfg.HTTP.Addr != ":9000" || len(cfg.HTTP.Tokens) != 2 {
		t.Errorf("http = %+v", cfg.HTTP)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level = %v", cfg.Level())
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "user: alice\nllm:\n  model: file-model\n")
	t.Setenv("ANALYSER_USER", "carol")
	t.Setenv("ANALYSER_MODEL", "env-model")
	t.Setenv("ANALYSER_API_KEY", "sk-env")
	t.Setenv("ANALYSER_MAX_SEARCH_RESULTS", "50")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.User != "carol" || cfg.LLM.Model != "env-model" || cfg.LLM.APIKey != "sk-env" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MaxSearchResults != 50 {
		t.Errorf("MaxSearchResults = %d", cfg.MaxSearchResults)
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoad_DefaultMissingFileIsFine(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.User != DefaultUser {
		t.Errorf("User = %q", cfg.User)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "llm: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestUserForToken(t *testing.T) {
	cfg := Default()
	cfg.HTTP.Tokens = map[string]string{"good": "alice", "blank": ""}

	tests := []struct {
		token  string
		want   string
		wantOK bool
	}{
		{"good", "alice", true},
		{"blank", "", false},
		{"unknown", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := cfg.UserForToken(tt.token)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("UserForToken(%q) = (%q, %v), want (%q, %v)", tt.token, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAccessors(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data"
	cfg.LLM = LLMConfig{APIKey: "k", BaseURL: "u", Model: "m"}

	if sc := cfg.Store(); sc.DataDir != "/data" || sc.MaxSearchResults != 20 {
		t.Errorf("Store() = %+v", sc)
	}
	if lc := cfg.Completion(); lc.APIKey != "k" || lc.BaseURL != "u" || lc.Model != "m" {
		t.Errorf("Completion() = %+v", lc)
	}
	cfg.LogLevel = "bogus"
	if cfg.Level() != slog.LevelInfo {
		t.Errorf("unknown level should be info, got %v", cfg.Level())
	}
}
