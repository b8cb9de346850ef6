package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseModelCatalog(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []ModelConfig
		wantErr bool
	}{
		{name: "empty uses defaults", raw: "", want: DefaultModels},
		{
			name: "two entries",
			raw:  "perplexity:sonar-pro, gemini:flash:gemini-2.5-flash",
			want: []ModelConfig{
				{Provider: "perplexity", ModelID: "sonar-pro", DisplayName: "sonar-pro", APIModelName: "sonar-pro"},
				{Provider: "gemini", ModelID: "flash", DisplayName: "flash", APIModelName: "gemini-2.5-flash"},
			},
		},
		{name: "missing model", raw: "perplexity", wantErr: true},
		{name: "too many parts", raw: "a:b:c:d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseModelCatalog(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseModelCatalog: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLookupModel(t *testing.T) {
	cfg := Config{Models: DefaultModels}
	m, err := cfg.LookupModel("sonar-pro")
	if err != nil {
		t.Fatalf("LookupModel: %v", err)
	}
	if m.Provider != "perplexity" || m.APIModelName != "sonar-pro" {
		t.Fatalf("unexpected model: %+v", m)
	}
	if _, err := cfg.LookupModel("nope"); err == nil {
		t.Fatal("expected unknown model error")
	}
}

func TestAPIKeyForFallsBackToShared(t *testing.T) {
	cfg := Config{
		LLMAPIKey:       "shared",
		ProviderAPIKeys: map[string]string{"gemini": "gem-key"},
	}
	if got := cfg.APIKeyFor("gemini"); got != "gem-key" {
		t.Fatalf("expected provider key, got %q", got)
	}
	if got := cfg.APIKeyFor("perplexity"); got != "shared" {
		t.Fatalf("expected shared key, got %q", got)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	content := "PORT=9090\nLLM_TIMEOUT=45\nCORS_ORIGINS=http://a.test, http://b.test\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("PORT", "1111")
	t.Setenv("LLM_TIMEOUT", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected .env to override PORT, got %s", cfg.Port)
	}
	if cfg.LLMTimeout != 45*time.Second {
		t.Fatalf("expected 45s timeout, got %s", cfg.LLMTimeout)
	}
	if diff := cmp.Diff([]string{"http://a.test", "http://b.test"}, cfg.CORSAllowOrigin); diff != "" {
		t.Fatalf("cors mismatch (-want +got):\n%s", diff)
	}
}
