package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"mcstatus/internal/models"

	"github.com/robfig/cron/v3"
)

// ErrMissingSetting is returned by Validate when a required variable is unset
var ErrMissingSetting = errors.New("missing required setting")

// Storage backends
const (
	StorageFile  = "file"
	StorageMongo = "mongo"
	StorageRedis = "redis"
)

// Config holds all application configuration
type Config struct {
	DiscordToken  string
	ChannelID     string
	ServerAddress string // host[:port] as given in MC_SERVER_ADDRESS

	// Derived from ServerAddress
	TargetHost string
	TargetPort uint16

	UpdateIntervalMinutes int
	RecentPlayerDays      int

	StorageBackend string
	DatabasePath   string
	MongoURI       string
	RedisURL       string

	StatusAPIURL  string
	DiscordAPIURL string

	Port        string
	Environment string
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	cfg := &Config{
		DiscordToken:  getEnv("DISCORD_TOKEN", ""),
		ChannelID:     getEnv("CHANNEL_ID", ""),
		ServerAddress: strings.TrimSpace(getEnv("MC_SERVER_ADDRESS", "")),

		UpdateIntervalMinutes: getIntEnv("UPDATE_INTERVAL", 5),
		RecentPlayerDays:      getIntEnv("RECENT_PLAYER_DAYS", 7),

		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageFile)),
		DatabasePath:   getEnv("DATABASE_PATH", "data/database.json"),
		MongoURI:       getEnv("MONGODB_URI", ""),
		RedisURL:       getEnv("REDIS_URL", ""),

		StatusAPIURL:  strings.TrimSuffix(getEnv("STATUS_API_URL", "https://api.mcsrvstat.us/3"), "/"),
		DiscordAPIURL: strings.TrimSuffix(getEnv("DISCORD_API_URL", "https://discord.com/api/v10"), "/"),

		Port:        getEnv("PORT", "3001"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	cfg.TargetHost, cfg.TargetPort = SplitServerAddress(cfg.ServerAddress)
	return cfg
}

// Validate checks every required setting and returns one error listing all problems
func (c *Config) Validate() error {
	var missing []string
	if c.DiscordToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if c.ChannelID == "" {
		missing = append(missing, "CHANNEL_ID")
	}
	if c.ServerAddress == "" {
		missing = append(missing, "MC_SERVER_ADDRESS")
	}

	switch c.StorageBackend {
	case StorageFile:
		if c.DatabasePath == "" {
			missing = append(missing, "DATABASE_PATH")
		}
	case StorageMongo:
		if c.MongoURI == "" {
			missing = append(missing, "MONGODB_URI")
		}
	case StorageRedis:
		if c.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q (expected file, mongo or redis)", c.StorageBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}

	if c.UpdateIntervalMinutes < 1 || c.UpdateIntervalMinutes > 59 {
		return fmt.Errorf("invalid UPDATE_INTERVAL %d (expected 1-59 minutes)", c.UpdateIntervalMinutes)
	}
	if c.RecentPlayerDays < 1 {
		return fmt.Errorf("invalid RECENT_PLAYER_DAYS %d (expected at least 1)", c.RecentPlayerDays)
	}
	if c.TargetHost == "" {
		return fmt.Errorf("invalid MC_SERVER_ADDRESS %q", c.ServerAddress)
	}
	if _, err := ParseCron(c.CronExpression()); err != nil {
		return fmt.Errorf("invalid update schedule %q: %w", c.CronExpression(), err)
	}

	return nil
}

// PollInterval returns the configured interval between poll cycles
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.UpdateIntervalMinutes) * time.Minute
}

// RetentionWindow returns how far back the "recently seen" list reaches
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.RecentPlayerDays) * 24 * time.Hour
}

// CronExpression returns the five-field cron expression for the poll schedule
func (c *Config) CronExpression() string {
	return fmt.Sprintf("*/%d * * * *", c.UpdateIntervalMinutes)
}

// ParseCron parses a standard five-field cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// SplitServerAddress splits "host[:port]" and applies the default Minecraft port
func SplitServerAddress(address string) (string, uint16) {
	if address == "" {
		return "", models.DefaultMinecraftPort
	}

	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		// No port component
		return strings.Trim(address, "[]"), models.DefaultMinecraftPort
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return host, models.DefaultMinecraftPort
	}
	return host, uint16(port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
