package params

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Engine.SupportedNetwork != token.Ethereum {
		t.Errorf("supported network = %s, want Ethereum", cfg.Engine.SupportedNetwork)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("SUPPORTED_NETWORK", "polygon")
	t.Setenv("SLIPPAGE_PLACEHOLDER", "0.01")
	t.Setenv("MOCK_SEED", "42")
	t.Setenv("API_ADDR", ":9090")
	t.Setenv("CORS_ORIGINS", "http://a,http://b")
	t.Setenv("ENABLE_SWAPGEN", "true")
	t.Setenv("SWAPGEN_INTERVAL_MS", "250")
	t.Setenv("SWAPGEN_USERS", "3")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Engine.SupportedNetwork != token.Polygon {
		t.Errorf("network = %s, want Polygon", cfg.Engine.SupportedNetwork)
	}
	if cfg.Engine.Slippage != 0.01 {
		t.Errorf("slippage = %v, want 0.01", cfg.Engine.Slippage)
	}
	if cfg.Engine.MockSeed != 42 {
		t.Errorf("seed = %d, want 42", cfg.Engine.MockSeed)
	}
	if cfg.Node.APIAddr != ":9090" {
		t.Errorf("api addr = %s", cfg.Node.APIAddr)
	}
	if len(cfg.Node.CORSOrigins) != 2 || cfg.Node.CORSOrigins[1] != "http://b" {
		t.Errorf("cors origins = %v", cfg.Node.CORSOrigins)
	}
	if !cfg.SwapGen.Enabled || cfg.SwapGen.Interval != 250*time.Millisecond || cfg.SwapGen.Users != 3 {
		t.Errorf("swapgen = %+v", cfg.SwapGen)
	}
}

func TestLoadFromEnv_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SUPPORTED_NETWORK=BNBChain\nJOURNAL_PATH=/tmp/journal\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	// godotenv does not override variables that are already set
	t.Setenv("SUPPORTED_NETWORK", "")
	os.Unsetenv("SUPPORTED_NETWORK")
	t.Cleanup(func() { os.Unsetenv("JOURNAL_PATH") })

	cfg, err := LoadFromEnv(path)
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Engine.SupportedNetwork != token.BNBChain {
		t.Errorf("network = %s, want BNBChain", cfg.Engine.SupportedNetwork)
	}
	if cfg.Node.JournalPath != "/tmp/journal" {
		t.Errorf("journal path = %q", cfg.Node.JournalPath)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SUPPORTED_NETWORK", "Solana"},
		{"SLIPPAGE_PLACEHOLDER", "abc"},
		{"SLIPPAGE_PLACEHOLDER", "1.5"},
		{"MOCK_SEED", "x"},
		{"SWAPGEN_INTERVAL_MS", "fast"},
		{"SWAPGEN_USERS", "ten"},
		{"ENABLE_SWAPGEN", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
