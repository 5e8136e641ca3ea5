package params

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/uhyunpark/swapchecker/pkg/app/core/quote"
	"github.com/uhyunpark/swapchecker/pkg/app/core/token"
)

type Engine struct {
	// SupportedNetwork is the only network accepted at onboarding;
	// users on any other network are rejected, not stored
	SupportedNetwork token.Network

	// Slippage is the fixed placeholder attached to every quote result
	Slippage float64

	// MockSeed seeds the mock liquidity tables and random balances.
	// 0 means seed from the current time.
	MockSeed int64
}

type Node struct {
	APIAddr     string
	CORSOrigins []string
	LogFile     string
	JournalPath string // "" keeps the swap journal in memory
}

type SwapGen struct {
	Enabled  bool
	Interval time.Duration
	Users    int
}

type Config struct {
	Engine  Engine
	Node    Node
	SwapGen SwapGen
}

func Default() Config {
	return Config{
		Engine: Engine{
			SupportedNetwork: token.Ethereum,
			Slippage:         quote.DefaultSlippage,
			MockSeed:         0,
		},
		Node: Node{
			APIAddr:     ":8080",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
			LogFile:     "data/swapd.log",
			JournalPath: "",
		},
		SwapGen: SwapGen{
			Enabled:  false,
			Interval: 500 * time.Millisecond,
			Users:    10,
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	// .env is optional
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("SUPPORTED_NETWORK"); v != "" {
		n, err := token.ParseNetwork(v)
		if err != nil {
			return cfg, fmt.Errorf("SUPPORTED_NETWORK: %w", err)
		}
		cfg.Engine.SupportedNetwork = n
	}

	if v := os.Getenv("SLIPPAGE_PLACEHOLDER"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("SLIPPAGE_PLACEHOLDER: %w", err)
		}
		cfg.Engine.Slippage = f
	}

	if v := os.Getenv("MOCK_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("MOCK_SEED: %w", err)
		}
		cfg.Engine.MockSeed = seed
	}

	cfg.Node.APIAddr = getEnv("API_ADDR", cfg.Node.APIAddr)
	cfg.Node.LogFile = getEnv("LOG_FILE", cfg.Node.LogFile)
	cfg.Node.JournalPath = getEnv("JOURNAL_PATH", cfg.Node.JournalPath)

	// Comma-separated, e.g. "http://localhost:3000,https://swap.local"
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Node.CORSOrigins = strings.Split(v, ",")
	}

	if v := os.Getenv("ENABLE_SWAPGEN"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("ENABLE_SWAPGEN: %w", err)
		}
		cfg.SwapGen.Enabled = enabled
	}
	if v := os.Getenv("SWAPGEN_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("SWAPGEN_INTERVAL_MS: %w", err)
		}
		cfg.SwapGen.Interval = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("SWAPGEN_USERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("SWAPGEN_USERS: %w", err)
		}
		cfg.SwapGen.Users = n
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks that values are usable
func (c Config) Validate() error {
	if !c.Engine.SupportedNetwork.Valid() {
		return errors.New("engine.supported_network is not a known network")
	}
	if c.Engine.Slippage < 0 || c.Engine.Slippage >= 1 {
		return fmt.Errorf("engine.slippage must be in [0, 1), got %v", c.Engine.Slippage)
	}
	if c.Node.APIAddr == "" {
		return errors.New("node.api_addr is required")
	}
	if c.SwapGen.Enabled {
		if c.SwapGen.Interval <= 0 {
			return fmt.Errorf("swapgen.interval must be positive, got %v", c.SwapGen.Interval)
		}
		if c.SwapGen.Users < 1 {
			return errors.New("swapgen.users must be >= 1")
		}
	}
	return nil
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
