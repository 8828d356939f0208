package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Engine   EngineConfig   `json:"engine"`
	Cache    CacheConfig    `json:"cache"`
	Redis    RedisConfig    `json:"redis"`
	MongoDB  MongoDBConfig  `json:"mongodb"`
	Collab   CollabConfig   `json:"collab"`
	Discord  DiscordConfig  `json:"discord"`
	GeoIP    GeoIPConfig    `json:"geoip"`
	Checkout CheckoutConfig `json:"checkout"`
	Widget   WidgetConfig   `json:"widget"`
}

type ServerConfig struct {
	Port           int      `json:"port"`
	Host           string   `json:"host"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// EngineConfig selects the calculator formula set. The legacy site shipped two
// near-identical calculators; "simple" reproduces the basic one (metrics,
// tiers, projection), "enhanced" adds competitor rows, radar and insights.
type EngineConfig struct {
	Mode string `json:"mode"` // "simple" or "enhanced"
}

type CacheConfig struct {
	TTL int `json:"ttl_seconds"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Enabled  bool   `json:"enabled"`
	UseTLS   bool   `json:"use_tls"`
}

type MongoDBConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
	Enabled  bool   `json:"enabled"`
}

type CollabConfig struct {
	TypingTimeoutMS int `json:"typing_timeout_ms"`
	MaxParticipants int `json:"max_participants"`
}

type DiscordConfig struct {
	BotToken       string `json:"-"` // env only, never from file
	ChannelID      string `json:"channel_id"`
	DigestInterval int    `json:"digest_interval_minutes"`
}

type GeoIPConfig struct {
	DBPath string `json:"db_path"`
}

type CheckoutConfig struct {
	BuyURL string `json:"buy_url"`
}

type WidgetConfig struct {
	CurrentStable string `json:"current_stable"`
	MinSupported  string `json:"min_supported"`
	Deprecated    string `json:"deprecated"`
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           8080,
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Engine: EngineConfig{
			Mode: "enhanced",
		},
		Cache: CacheConfig{
			TTL: 300, // computed results are deterministic, cache generously
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
			Enabled:  true,
			UseTLS:   false,
		},
		MongoDB: MongoDBConfig{
			URI:      "mongodb://localhost:27017",
			Database: "pricelens",
			Enabled:  true,
		},
		Collab: CollabConfig{
			TypingTimeoutMS: 1000,
			MaxParticipants: 16,
		},
		Discord: DiscordConfig{
			DigestInterval: 60,
		},
		GeoIP: GeoIPConfig{
			DBPath: "",
		},
		Checkout: CheckoutConfig{
			BuyURL: "",
		},
		Widget: WidgetConfig{
			CurrentStable: "2.4.0",
			MinSupported:  "2.2.0",
			Deprecated:    "2.0.0",
		},
	}

	// Load from config file if exists
	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "config/config.json"
	}

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err == nil {
			defer file.Close()
			decoder := json.NewDecoder(file)
			if err := decoder.Decode(cfg); err != nil {
				fmt.Printf("Warning: Failed to decode config file: %v\n", err)
			}
		}
	}

	// Environment variables override the config file
	loadEnv(cfg)

	// Command-line flags override everything
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var serverPort int
	var serverHost string
	var engineMode string

	fs.IntVar(&serverPort, "port", 0, "Server port")
	fs.StringVar(&serverHost, "host", "", "Server host")
	fs.StringVar(&engineMode, "engine-mode", "", "Calculator mode (simple or enhanced)")

	_ = fs.Parse(os.Args[1:])

	if isFlagPassed(fs, "port") {
		cfg.Server.Port = serverPort
	}
	if isFlagPassed(fs, "host") {
		cfg.Server.Host = serverHost
	}
	if isFlagPassed(fs, "engine-mode") {
		cfg.Engine.Mode = engineMode
	}

	if cfg.Engine.Mode != "simple" && cfg.Engine.Mode != "enhanced" {
		return nil, fmt.Errorf("invalid engine mode %q (want simple or enhanced)", cfg.Engine.Mode)
	}

	return cfg, nil
}

func isFlagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func loadEnv(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = p
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.Server.AllowedOrigins = parts
	}

	if val := os.Getenv("ENGINE_MODE"); val != "" {
		cfg.Engine.Mode = val
	}

	if val := os.Getenv("CACHE_TTL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Cache.TTL = p
		}
	}

	if val := os.Getenv("REDIS_ADDRESS"); val != "" {
		cfg.Redis.Address = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = p
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		cfg.Redis.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("REDIS_USE_TLS"); val != "" {
		cfg.Redis.UseTLS = val == "true" || val == "1"
	}

	if val := os.Getenv("MONGODB_URI"); val != "" {
		cfg.MongoDB.URI = val
	}
	if val := os.Getenv("MONGODB_DATABASE"); val != "" {
		cfg.MongoDB.Database = val
	}
	if val := os.Getenv("MONGODB_ENABLED"); val != "" {
		cfg.MongoDB.Enabled = val == "true" || val == "1"
	}

	if val := os.Getenv("COLLAB_TYPING_TIMEOUT_MS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Collab.TypingTimeoutMS = p
		}
	}
	if val := os.Getenv("COLLAB_MAX_PARTICIPANTS"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Collab.MaxParticipants = p
		}
	}

	cfg.Discord.BotToken = os.Getenv("DISCORD_BOT_TOKEN")
	if val := os.Getenv("DISCORD_CHANNEL_ID"); val != "" {
		cfg.Discord.ChannelID = val
	}
	if val := os.Getenv("DISCORD_DIGEST_INTERVAL"); val != "" {
		if p, err := strconv.Atoi(val); err == nil {
			cfg.Discord.DigestInterval = p
		}
	}

	if val := os.Getenv("GEOIP_DB_PATH"); val != "" {
		cfg.GeoIP.DBPath = val
	}

	if val := os.Getenv("CHECKOUT_BUY_URL"); val != "" {
		cfg.Checkout.BuyURL = val
	}

	if val := os.Getenv("WIDGET_CURRENT_STABLE"); val != "" {
		cfg.Widget.CurrentStable = val
	}
	if val := os.Getenv("WIDGET_MIN_SUPPORTED"); val != "" {
		cfg.Widget.MinSupported = val
	}
	if val := os.Getenv("WIDGET_DEPRECATED"); val != "" {
		cfg.Widget.Deprecated = val
	}
}

// Helper methods for duration conversion
func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Second
}

func (c *Config) TypingTimeoutDuration() time.Duration {
	return time.Duration(c.Collab.TypingTimeoutMS) * time.Millisecond
}

func (c *Config) DigestIntervalDuration() time.Duration {
	return time.Duration(c.Discord.DigestInterval) * time.Minute
}
