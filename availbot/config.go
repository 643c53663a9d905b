package availbot

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log      LogConfig      `toml:"log"`
	Bot      BotConfig      `toml:"bot"`
	DB       DBConfig       `toml:"db"`
	Listings ListingsConfig `toml:"listings"`
	Spaces   struct {
		Key       string `toml:"key"`
		Secret    string `toml:"secret"`
		Region    string `toml:"region"`
		Bucket    string `toml:"bucket"`
		MediaRoot string `toml:"mediaroot"`
	} `toml:"spaces"`
}

type BotConfig struct {
	DevGuilds      []snowflake.ID `toml:"dev_guilds"`
	Token          string         `toml:"token"`
	GuildID        snowflake.ID   `toml:"guild_id"`
	BoardChannelID snowflake.ID   `toml:"board_channel_id"`
	AdminIDs       []snowflake.ID `toml:"admin_ids"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type ListingsConfig struct {
	CooldownMinutes  int   `toml:"cooldown_minutes"`
	DurationHours    []int `toml:"duration_hours"`
	RefreshSeconds   int   `toml:"refresh_seconds"`
	ResyncMinutes    int   `toml:"resync_minutes"`
	UseGeneratedCard bool  `toml:"use_generated_card"`
}

// Cooldown returns the bump cooldown, falling back to 30 minutes when unset.
func (c ListingsConfig) Cooldown() time.Duration {
	if c.CooldownMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.CooldownMinutes) * time.Minute
}

// RefreshInterval returns the countdown/sweep tick interval.
func (c ListingsConfig) RefreshInterval() time.Duration {
	if c.RefreshSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RefreshSeconds) * time.Second
}

// ResyncInterval returns the full pinned-list resync interval.
func (c ListingsConfig) ResyncInterval() time.Duration {
	if c.ResyncMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.ResyncMinutes) * time.Minute
}

// Durations returns the selectable listing durations, falling back to 2h/4h/6h.
func (c ListingsConfig) Durations() []time.Duration {
	hours := c.DurationHours
	if len(hours) == 0 {
		hours = []int{2, 4, 6}
	}
	durations := make([]time.Duration, 0, len(hours))
	for _, h := range hours {
		durations = append(durations, time.Duration(h)*time.Hour)
	}
	return durations
}

// IsAdmin reports whether the given user may manage listings.
func (c BotConfig) IsAdmin(id snowflake.ID) bool {
	for _, adminID := range c.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}
