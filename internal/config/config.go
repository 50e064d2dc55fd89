package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config keeps runtime settings for the planner.
type Config struct {
	DatabaseURL      string        `toml:"database_url"`
	StartHour        int           `toml:"start_hour"`
	EndHour          int           `toml:"end_hour"`
	SlotDuration     int           `toml:"slot_duration"` // minutes
	MaxPriorities    int           `toml:"max_priorities"`
	MaxDaysRetention int           `toml:"max_days_retention"`
	SweepInterval    time.Duration `toml:"-"`
	SummaryTime      string        `toml:"summary_time"` // HH:MM, empty disables
}

// Load reads configuration from an optional TOML file (TIMEBOXER_CONFIG)
// and then from environment variables, which take precedence. Defaults
// match the original planner: 09:00-18:00 in 30-minute slots, five
// priorities, seven days of retention.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:      "timeboxer.db",
		StartHour:        9,
		EndHour:          18,
		SlotDuration:     30,
		MaxPriorities:    5,
		MaxDaysRetention: 7,
	}

	if path := strings.TrimSpace(os.Getenv("TIMEBOXER_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("TIMEBOXER_DB")); v != "" {
		cfg.DatabaseURL = v
	}
	overrideInt(&cfg.StartHour, "TIMEBOXER_START_HOUR")
	overrideInt(&cfg.EndHour, "TIMEBOXER_END_HOUR")
	overrideInt(&cfg.SlotDuration, "TIMEBOXER_SLOT_DURATION")
	overrideInt(&cfg.MaxPriorities, "TIMEBOXER_MAX_PRIORITIES")
	overrideInt(&cfg.MaxDaysRetention, "TIMEBOXER_MAX_DAYS_RETENTION")
	cfg.SweepInterval = parseInterval(strings.TrimSpace(os.Getenv("TIMEBOXER_SWEEP_INTERVAL_HOURS")))
	if v := strings.TrimSpace(os.Getenv("TIMEBOXER_SUMMARY_TIME")); v != "" {
		cfg.SummaryTime = v
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.StartHour < 0 || c.StartHour > 23 {
		return fmt.Errorf("start hour %d out of range", c.StartHour)
	}
	if c.EndHour < 1 || c.EndHour > 24 {
		return fmt.Errorf("end hour %d out of range", c.EndHour)
	}
	if c.StartHour >= c.EndHour {
		return fmt.Errorf("start hour %d must be before end hour %d", c.StartHour, c.EndHour)
	}
	if c.SlotDuration < 1 || c.SlotDuration > 60 {
		return fmt.Errorf("slot duration %d must be within 1..60 minutes", c.SlotDuration)
	}
	if c.MaxDaysRetention < 1 {
		return fmt.Errorf("retention must keep at least one day")
	}
	return nil
}

func overrideInt(dst *int, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if v, err := strconv.Atoi(raw); err == nil {
		*dst = v
	}
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
