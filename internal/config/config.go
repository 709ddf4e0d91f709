package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host    string
	Port    string
	DataDir string
	// APIKey, when set, is required in the X-API-Key header of every /api
	// request.
	APIKey string

	ProviderModel     string
	ProviderAPIKey    string
	ProviderBaseURL   string
	ProviderTimeoutMS int

	SimpleBudget  int
	ComplexBudget int

	// MaintenanceSchedule is a cron expression for the periodic store
	// compaction job. Empty disables the scheduler.
	MaintenanceSchedule string

	// WebhookURL, when set, receives a POST for every project file change.
	WebhookURL string
}

type fileConfig struct {
	Server struct {
		Host    string `toml:"host"`
		Port    string `toml:"port"`
		DataDir string `toml:"data_dir"`
		APIKey  string `toml:"api_key"`
	} `toml:"server"`
	Provider struct {
		Model     string `toml:"model"`
		APIKey    string `toml:"api_key"`
		BaseURL   string `toml:"base_url"`
		TimeoutMS int    `toml:"timeout_ms"`
	} `toml:"provider"`
	Loop struct {
		SimpleBudget  int `toml:"simple_budget"`
		ComplexBudget int `toml:"complex_budget"`
	} `toml:"loop"`
	Maintenance struct {
		Schedule string `toml:"schedule"`
	} `toml:"maintenance"`
	Notify struct {
		WebhookURL string `toml:"webhook_url"`
	} `toml:"notify"`
}

// Load builds the runtime config: defaults, then the optional TOML file,
// then APPFORGE_* environment overrides.
func Load(configFile string) (Config, error) {
	cfg := Config{
		Host:                "127.0.0.1",
		Port:                "8090",
		DataDir:             ".data",
		SimpleBudget:        15,
		ComplexBudget:       30,
		MaintenanceSchedule: "@hourly",
	}

	if configFile != "" {
		var fromFile fileConfig
		if _, err := toml.DecodeFile(configFile, &fromFile); err != nil {
			return Config{}, err
		}
		applyString(&cfg.Host, fromFile.Server.Host)
		applyString(&cfg.Port, fromFile.Server.Port)
		applyString(&cfg.DataDir, fromFile.Server.DataDir)
		applyString(&cfg.APIKey, fromFile.Server.APIKey)
		applyString(&cfg.ProviderModel, fromFile.Provider.Model)
		applyString(&cfg.ProviderAPIKey, fromFile.Provider.APIKey)
		applyString(&cfg.ProviderBaseURL, fromFile.Provider.BaseURL)
		applyInt(&cfg.ProviderTimeoutMS, fromFile.Provider.TimeoutMS)
		applyInt(&cfg.SimpleBudget, fromFile.Loop.SimpleBudget)
		applyInt(&cfg.ComplexBudget, fromFile.Loop.ComplexBudget)
		applyString(&cfg.MaintenanceSchedule, fromFile.Maintenance.Schedule)
		applyString(&cfg.WebhookURL, fromFile.Notify.WebhookURL)
	}

	applyString(&cfg.Host, os.Getenv("APPFORGE_HOST"))
	applyString(&cfg.Port, os.Getenv("APPFORGE_PORT"))
	applyString(&cfg.DataDir, os.Getenv("APPFORGE_DATA_DIR"))
	applyString(&cfg.APIKey, os.Getenv("APPFORGE_API_KEY"))
	applyString(&cfg.ProviderModel, os.Getenv("APPFORGE_PROVIDER_MODEL"))
	applyString(&cfg.ProviderAPIKey, os.Getenv("APPFORGE_PROVIDER_API_KEY"))
	applyString(&cfg.ProviderBaseURL, os.Getenv("APPFORGE_PROVIDER_BASE_URL"))
	applyEnvInt(&cfg.ProviderTimeoutMS, "APPFORGE_PROVIDER_TIMEOUT_MS")
	applyEnvInt(&cfg.SimpleBudget, "APPFORGE_SIMPLE_BUDGET")
	applyEnvInt(&cfg.ComplexBudget, "APPFORGE_COMPLEX_BUDGET")
	applyString(&cfg.MaintenanceSchedule, os.Getenv("APPFORGE_MAINTENANCE_SCHEDULE"))
	applyString(&cfg.WebhookURL, os.Getenv("APPFORGE_WEBHOOK_URL"))

	return cfg, nil
}

func applyString(target *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*target = trimmed
	}
}

func applyInt(target *int, value int) {
	if value > 0 {
		*target = value
	}
}

func applyEnvInt(target *int, key string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
		*target = parsed
	}
}
