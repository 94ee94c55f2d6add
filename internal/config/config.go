package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Store    StoreConfig    `toml:"store"`
	API      APIConfig      `toml:"api"`
	Booking  BookingConfig  `toml:"booking"`
	AI       AIConfig       `toml:"ai"`
	Email    EmailConfig    `toml:"email"`
	Reminder ReminderConfig `toml:"reminder"`
}

// StoreConfig selects the booking backend: "sqlite" keeps bookings in
// a local database, "rest" talks to the shared PostgREST API.
type StoreConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"` // sqlite file; empty uses the default location
}

type APIConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// BookingConfig carries the defaults prefilled into new bookings.
type BookingConfig struct {
	ProjectID  string `toml:"project_id"`
	Requester  string `toml:"requester"`
	CostCenter string `toml:"cost_center"`
	DayStart   string `toml:"day_start"` // earliest bookable hour shown in the calendar
	DayEnd     string `toml:"day_end"`
}

type AIConfig struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

type EmailConfig struct {
	Enabled    bool     `toml:"enabled"`
	APIKey     string   `toml:"api_key"`
	From       string   `toml:"from"`
	Recipients []string `toml:"recipients"` // always notified, on top of the equipment mailbox
}

type ReminderConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalMinutes int  `toml:"interval_minutes"`
	LeadMinutes     int  `toml:"lead_minutes"`
}

func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Backend: "sqlite",
		},
		Booking: BookingConfig{
			ProjectID: "743",
			DayStart:  "06:00",
			DayEnd:    "20:00",
		},
		AI: AIConfig{
			Model: "gpt-4o-mini",
		},
		Email: EmailConfig{
			Enabled: false,
			From:    "Normatel <agendamentos@normatel.com.br>",
		},
		Reminder: ReminderConfig{
			Enabled:         true,
			IntervalMinutes: 5,
			LeadMinutes:     30,
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gfenormatel"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "sqlite", "rest":
	default:
		return fmt.Errorf("unknown store backend %q (want sqlite or rest)", c.Store.Backend)
	}
	if c.Store.Backend == "rest" && c.API.BaseURL == "" {
		return fmt.Errorf("store backend is rest but api.base_url is not set")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOOKING_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("BOOKING_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Email.APIKey = v
	}
	if v := os.Getenv("BOOKING_RECIPIENTS"); v != "" {
		var recipients []string
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				recipients = append(recipients, r)
			}
		}
		cfg.Email.Recipients = recipients
	}
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// Save writes the config back using read-modify-write on the raw
// document so keys this build does not know about survive.
func Save(update func(doc map[string]any)) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	doc := make(map[string]any)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	update(doc)

	if err := EnsureConfigDir(); err != nil {
		return err
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}

// SaveBookingDefaults persists the prefill defaults for new bookings.
func SaveBookingDefaults(projectID, requester, costCenter string) error {
	return Save(func(doc map[string]any) {
		b, ok := doc["booking"].(map[string]any)
		if !ok {
			b = make(map[string]any)
		}
		if projectID != "" {
			b["project_id"] = projectID
		}
		if requester != "" {
			b["requester"] = requester
		}
		if costCenter != "" {
			b["cost_center"] = costCenter
		}
		doc["booking"] = b
	})
}
