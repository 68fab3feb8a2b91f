package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures configuration for the planner daemon. Values come from an
// optional YAML file and can be overridden per field through PLANNER_*
// environment variables.
type Config struct {
	HTTPPort         int           `yaml:"http_port"`
	SQLiteDSN        string        `yaml:"sqlite_dsn"`
	RescanCron       string        `yaml:"rescan_cron"`
	UpcomingWindow   time.Duration `yaml:"upcoming_window"`
	AutoHideDuration time.Duration `yaml:"auto_hide_duration"`
	ReminderUserID   string        `yaml:"reminder_user_id"`
	Telegram         Telegram      `yaml:"telegram"`
}

// Telegram configures the optional Telegram delivery channel. Reminders go
// out on Telegram only when a token is set.
type Telegram struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// UnmarshalYAML decodes the config file, reading durations as Go duration
// strings like "24h". Absent keys keep the values already present, so the
// defaults survive a partial file.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type rawTelegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	}
	type rawConfig struct {
		HTTPPort         int         `yaml:"http_port"`
		SQLiteDSN        string      `yaml:"sqlite_dsn"`
		RescanCron       string      `yaml:"rescan_cron"`
		UpcomingWindow   string      `yaml:"upcoming_window"`
		AutoHideDuration string      `yaml:"auto_hide_duration"`
		ReminderUserID   string      `yaml:"reminder_user_id"`
		Telegram         rawTelegram `yaml:"telegram"`
	}

	var raw rawConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	if raw.HTTPPort != 0 {
		c.HTTPPort = raw.HTTPPort
	}
	if raw.SQLiteDSN != "" {
		c.SQLiteDSN = raw.SQLiteDSN
	}
	if raw.RescanCron != "" {
		c.RescanCron = raw.RescanCron
	}
	if raw.UpcomingWindow != "" {
		window, err := time.ParseDuration(raw.UpcomingWindow)
		if err != nil {
			return fmt.Errorf("upcoming_window: %w", err)
		}
		c.UpcomingWindow = window
	}
	if raw.AutoHideDuration != "" {
		hide, err := time.ParseDuration(raw.AutoHideDuration)
		if err != nil {
			return fmt.Errorf("auto_hide_duration: %w", err)
		}
		c.AutoHideDuration = hide
	}
	if raw.ReminderUserID != "" {
		c.ReminderUserID = raw.ReminderUserID
	}
	if raw.Telegram.Token != "" {
		c.Telegram.Token = raw.Telegram.Token
	}
	if raw.Telegram.ChatID != 0 {
		c.Telegram.ChatID = raw.Telegram.ChatID
	}
	return nil
}

func defaults() Config {
	return Config{
		HTTPPort:         8080,
		SQLiteDSN:        "file:planner.db",
		RescanCron:       "*/5 * * * *",
		UpcomingWindow:   24 * time.Hour,
		AutoHideDuration: 5 * time.Second,
	}
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. An empty path skips the file and uses defaults plus environment.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.HTTPPort <= 0 {
		return Config{}, fmt.Errorf("config: http_port must be positive, got %d", cfg.HTTPPort)
	}
	if cfg.UpcomingWindow <= 0 {
		return Config{}, fmt.Errorf("config: upcoming_window must be positive, got %v", cfg.UpcomingWindow)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("PLANNER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "PLANNER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("PLANNER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if spec := strings.TrimSpace(os.Getenv("PLANNER_RESCAN_CRON")); spec != "" {
		cfg.RescanCron = spec
	}

	if windowValue := strings.TrimSpace(os.Getenv("PLANNER_UPCOMING_WINDOW")); windowValue != "" {
		window, err := time.ParseDuration(windowValue)
		if err != nil || window <= 0 {
			invalid = append(invalid, "PLANNER_UPCOMING_WINDOW")
		} else {
			cfg.UpcomingWindow = window
		}
	}

	if hideValue := strings.TrimSpace(os.Getenv("PLANNER_AUTO_HIDE_DURATION")); hideValue != "" {
		hide, err := time.ParseDuration(hideValue)
		if err != nil || hide <= 0 {
			invalid = append(invalid, "PLANNER_AUTO_HIDE_DURATION")
		} else {
			cfg.AutoHideDuration = hide
		}
	}

	if userID := strings.TrimSpace(os.Getenv("PLANNER_REMINDER_USER_ID")); userID != "" {
		cfg.ReminderUserID = userID
	}

	if token := strings.TrimSpace(os.Getenv("PLANNER_TELEGRAM_TOKEN")); token != "" {
		cfg.Telegram.Token = token
	}

	if chatValue := strings.TrimSpace(os.Getenv("PLANNER_TELEGRAM_CHAT_ID")); chatValue != "" {
		chatID, err := strconv.ParseInt(chatValue, 10, 64)
		if err != nil {
			invalid = append(invalid, "PLANNER_TELEGRAM_CHAT_ID")
		} else {
			cfg.Telegram.ChatID = chatID
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("config: invalid environment values: %s", strings.Join(invalid, ", "))
	}

	return nil
}
