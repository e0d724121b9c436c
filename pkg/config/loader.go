package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// EnvironmentVar names the variable selecting dev or prod behavior.
const EnvironmentVar = "OPENEVENT_ENV"

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load YAML files from configDir (missing files fall back to built-ins)
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined rooms, products, providers
//  5. Resolve runtime settings (YAML overrides built-in defaults)
//  6. Build in-memory registries
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"environment", cfg.Environment,
		"rooms", stats.Rooms,
		"products", stats.Products,
		"llm_providers", stats.LLMProviders)

	return cfg, nil
}

// load is the internal loader (not exported)
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{
		configDir: configDir,
	}

	// 1. Load openevent.yaml (venue, rooms, products, settings)
	mainConfig, err := loader.loadOpenEventYAML()
	if err != nil {
		return nil, NewLoadError("openevent.yaml", err)
	}

	// 2. Load llm-providers.yaml
	llmProviders, err := loader.loadLLMProvidersYAML()
	if err != nil {
		return nil, NewLoadError("llm-providers.yaml", err)
	}

	// 3. Get built-in configuration
	builtin := GetBuiltinConfig()

	// 4. Merge built-in + user-defined components (user overrides built-in)
	rooms := mergeRooms(builtin.Rooms, mainConfig.Rooms)
	products := mergeProducts(builtin.Products, mainConfig.Products)
	providers := mergeLLMProviders(builtin.LLMProviders, llmProviders)

	// 5. Resolve runtime settings and infrastructure
	settings := resolveSettings(builtin.Settings, mainConfig)
	server := resolveServer(mainConfig.Server)
	storeCfg := resolveStore(mainConfig.Store)
	calendar := resolveCalendar(builtin.Calendar, mainConfig.Venue)
	env := resolveEnvironment()

	return &Config{
		configDir:    configDir,
		Environment:  env,
		Server:       server,
		Store:        storeCfg,
		Calendar:     calendar,
		Bootstrap:    settings,
		Rooms:        NewRoomRegistry(rooms),
		Products:     NewProductRegistry(products),
		LLMProviders: NewLLMProviderRegistry(providers),
	}, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

// loadYAML reads one file, expands {{.VAR}} references, and parses it.
// A missing file is not an error: built-in defaults apply.
func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("Configuration file not found, using built-in defaults", "path", path)
			return nil
		}
		return err
	}

	// Expand environment variables using {{.VAR}} template syntax
	// Note: ExpandEnv passes through original data on parse/execution errors,
	// allowing YAML parser to handle the content (or fail with clearer error message)
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadOpenEventYAML() (*OpenEventYAMLConfig, error) {
	var config OpenEventYAMLConfig
	if err := l.loadYAML("openevent.yaml", &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (l *configLoader) loadLLMProvidersYAML() (map[string]LLMProviderConfig, error) {
	var config LLMProvidersYAMLConfig

	// Initialize map to avoid nil map
	config.LLMProviders = make(map[string]LLMProviderConfig)

	if err := l.loadYAML("llm-providers.yaml", &config); err != nil {
		return nil, err
	}

	return config.LLMProviders, nil
}

// resolveServer merges user server settings over the defaults.
func resolveServer(user *ServerConfig) ServerConfig {
	server := ServerConfig{Host: DefaultHost, Port: DefaultPort}
	if user != nil {
		if err := mergo.Merge(&server, *user, mergo.WithOverride); err != nil {
			slog.Warn("Failed to merge server config, using defaults", "error", err)
		}
	}
	return server
}

// resolveStore merges user store settings over the defaults.
func resolveStore(user *StoreConfig) StoreConfig {
	storeCfg := StoreConfig{DBPath: DefaultDBPath}
	if user != nil {
		if err := mergo.Merge(&storeCfg, *user, mergo.WithOverride); err != nil {
			slog.Warn("Failed to merge store config, using defaults", "error", err)
		}
	}
	return storeCfg
}

// resolveCalendar applies venue calendar overrides from YAML.
func resolveCalendar(builtin VenueCalendar, venue *VenueYAMLConfig) VenueCalendar {
	cal := builtin
	if venue == nil {
		return cal
	}
	if len(venue.OperatingDays) > 0 {
		cal.OperatingDays = venue.OperatingDays
	}
	if len(venue.BlockedDates) > 0 {
		cal.BlockedDates = venue.BlockedDates
	}
	return cal
}

// resolveEnvironment reads OPENEVENT_ENV, defaulting to dev.
func resolveEnvironment() Environment {
	env := Environment(os.Getenv(EnvironmentVar))
	if env == "" {
		return EnvironmentDev
	}
	if !env.IsValid() {
		slog.Warn("Unknown environment, falling back to dev", "value", string(env))
		return EnvironmentDev
	}
	return env
}

// resolveSettings overlays openevent.yaml values on the built-in runtime
// settings. Only provided fields override.
func resolveSettings(builtin models.Settings, y *OpenEventYAMLConfig) models.Settings {
	s := builtin

	if y.HILMode != nil && y.HILMode.Enabled != nil {
		s.HILMode.Enabled = *y.HILMode.Enabled
	}

	if y.Detection != "" {
		if mode := models.DetectionMode(y.Detection); mode.IsValid() {
			s.DetectionMode = mode
		} else {
			slog.Warn("Invalid detection_mode in openevent.yaml, keeping default",
				"value", y.Detection, "default", s.DetectionMode)
		}
	}

	if y.PreFilter != nil && y.PreFilter.Mode != "" {
		if mode := models.PreFilterMode(y.PreFilter.Mode); mode.IsValid() {
			s.PreFilter.Mode = mode
		} else {
			slog.Warn("Invalid pre_filter.mode in openevent.yaml, keeping default",
				"value", y.PreFilter.Mode, "default", s.PreFilter.Mode)
		}
	}

	if y.Routing != nil {
		// Unknown names pass through untouched; the validator reports
		// them instead of a silent fallback to the built-in default.
		if p := models.ProviderName(y.Routing.IntentProvider); p != "" {
			s.LLMProvider.IntentProvider = p
		}
		if p := models.ProviderName(y.Routing.EntityProvider); p != "" {
			s.LLMProvider.EntityProvider = p
		}
		if p := models.ProviderName(y.Routing.VerbalizationProvider); p != "" {
			s.LLMProvider.VerbalizationProvider = p
		}
	}

	if y.Deposit != nil {
		d := y.Deposit
		if d.DepositEnabled != nil {
			s.GlobalDeposit.DepositEnabled = *d.DepositEnabled
		}
		if d.DepositType != "" {
			if dt := models.DepositType(d.DepositType); dt.IsValid() {
				s.GlobalDeposit.DepositType = dt
			}
		}
		if d.DepositPercentage > 0 {
			s.GlobalDeposit.DepositPercentage = d.DepositPercentage
		}
		if d.DepositFixedAmount > 0 {
			s.GlobalDeposit.DepositFixedAmount = d.DepositFixedAmount
		}
		if d.DepositDeadlineDays > 0 {
			s.GlobalDeposit.DepositDeadlineDays = d.DepositDeadlineDays
		}
	}

	if y.Venue != nil {
		if y.Venue.Name != "" {
			s.Venue.Name = y.Venue.Name
		}
		if y.Venue.Timezone != "" {
			s.Venue.Timezone = y.Venue.Timezone
		}
		if y.Venue.OperatingHours != nil {
			s.Venue.OperatingHours = models.TimeRange{
				Start: y.Venue.OperatingHours.Start,
				End:   y.Venue.OperatingHours.End,
			}
		}
	}

	if y.SiteVisit != nil {
		sv := y.SiteVisit
		if len(sv.BlockedDates) > 0 {
			s.SiteVisit.BlockedDates = sv.BlockedDates
		}
		if len(sv.Slots) > 0 {
			s.SiteVisit.Slots = sv.Slots
		}
		if sv.WeekdaysOnly != nil {
			s.SiteVisit.WeekdaysOnly = *sv.WeekdaysOnly
		}
		if sv.MinDaysAhead != nil {
			s.SiteVisit.MinDaysAhead = *sv.MinDaysAhead
		}
	}

	if y.Managers != nil && len(y.Managers.Names) > 0 {
		s.Managers.Names = y.Managers.Names
	}

	if y.Retention != nil {
		if err := mergo.Merge(&s.Retention, models.RetentionSettings{
			TaskRetentionDays:      y.Retention.TaskRetentionDays,
			TraceLimit:             y.Retention.TraceLimit,
			CleanupIntervalMinutes: y.Retention.CleanupIntervalMinutes,
		}, mergo.WithOverride); err != nil {
			slog.Warn("Failed to merge retention config, keeping defaults", "error", err)
		}
	}

	return s
}
