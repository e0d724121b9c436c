// Package config loads the YAML bootstrap configuration, merges it over
// built-in defaults, and exposes thread-safe registries for rooms,
// products, and LLM providers. Runtime-tunable settings are seeded from
// here into the store's config object on first run.
package config

import (
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// OpenEventYAMLConfig represents the complete openevent.yaml file structure
type OpenEventYAMLConfig struct {
	Server    *ServerConfig        `yaml:"server"`
	Store     *StoreConfig         `yaml:"store"`
	Venue     *VenueYAMLConfig     `yaml:"venue"`
	HILMode   *HILModeYAMLConfig   `yaml:"hil_mode"`
	Detection string               `yaml:"detection_mode"`
	PreFilter *PreFilterYAMLConfig `yaml:"pre_filter"`
	Routing   *RoutingYAMLConfig   `yaml:"llm_provider"`
	Deposit   *DepositYAMLConfig   `yaml:"global_deposit"`
	SiteVisit *SiteVisitYAMLConfig `yaml:"site_visit"`
	Managers  *ManagersYAMLConfig  `yaml:"managers"`
	Retention *RetentionYAMLConfig `yaml:"retention"`
	Rooms     []RoomConfig         `yaml:"rooms"`
	Products  []ProductConfig      `yaml:"products"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig points at the persisted event store.
type StoreConfig struct {
	DBPath string `yaml:"db_path"`
}

// VenueYAMLConfig identifies the venue in openevent.yaml.
type VenueYAMLConfig struct {
	Name           string             `yaml:"name"`
	Timezone       string             `yaml:"timezone"`
	OperatingHours *TimeRangeYAML     `yaml:"operating_hours"`
	OperatingDays  []string           `yaml:"operating_days,omitempty"`
	BlockedDates   []string           `yaml:"blocked_dates,omitempty"`
}

// TimeRangeYAML is a start/end pair in openevent.yaml.
type TimeRangeYAML struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// HILModeYAMLConfig toggles the global approval gate in openevent.yaml.
type HILModeYAMLConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// PreFilterYAMLConfig selects the pre-filter mode in openevent.yaml.
type PreFilterYAMLConfig struct {
	Mode string `yaml:"mode"`
}

// RoutingYAMLConfig maps LLM operations to provider names in openevent.yaml.
type RoutingYAMLConfig struct {
	IntentProvider        string `yaml:"intent_provider"`
	EntityProvider        string `yaml:"entity_provider"`
	VerbalizationProvider string `yaml:"verbalization_provider"`
}

// DepositYAMLConfig is the venue deposit policy in openevent.yaml.
type DepositYAMLConfig struct {
	DepositEnabled      *bool   `yaml:"deposit_enabled"`
	DepositType         string  `yaml:"deposit_type"`
	DepositPercentage   float64 `yaml:"deposit_percentage"`
	DepositFixedAmount  float64 `yaml:"deposit_fixed_amount"`
	DepositDeadlineDays int     `yaml:"deposit_deadline_days"`
}

// SiteVisitYAMLConfig constrains site visits in openevent.yaml.
type SiteVisitYAMLConfig struct {
	BlockedDates []string `yaml:"blocked_dates"`
	Slots        []string `yaml:"slots"`
	WeekdaysOnly *bool    `yaml:"weekdays_only"`
	MinDaysAhead *int     `yaml:"min_days_ahead"`
}

// ManagersYAMLConfig lists escalation staff in openevent.yaml.
type ManagersYAMLConfig struct {
	Names []string `yaml:"names"`
}

// RetentionYAMLConfig bounds cleanup in openevent.yaml.
type RetentionYAMLConfig struct {
	TaskRetentionDays      int `yaml:"task_retention_days"`
	TraceLimit             int `yaml:"trace_limit"`
	CleanupIntervalMinutes int `yaml:"cleanup_interval_minutes"`
}

// LLMProvidersYAMLConfig represents the complete llm-providers.yaml file structure
type LLMProvidersYAMLConfig struct {
	LLMProviders map[string]LLMProviderConfig `yaml:"llm_providers"`
}

// VenueCalendar is the resolved operating calendar the date step
// validates against.
type VenueCalendar struct {
	OperatingDays []string
	BlockedDates  []string
}

// Config is the fully resolved configuration.
type Config struct {
	configDir string

	Environment Environment
	Server      ServerConfig
	Store       StoreConfig
	Calendar    VenueCalendar

	// Bootstrap seeds the store's runtime settings on first run.
	Bootstrap models.Settings

	Rooms        *RoomRegistry
	Products     *ProductRegistry
	LLMProviders *LLMProviderRegistry
}

// ConfigDir returns the directory configuration was loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Stats summarizes registry sizes for startup logging.
type Stats struct {
	Rooms        int
	Products     int
	LLMProviders int
}

// Stats returns registry counts.
func (c *Config) Stats() Stats {
	return Stats{
		Rooms:        c.Rooms.Len(),
		Products:     c.Products.Len(),
		LLMProviders: c.LLMProviders.Len(),
	}
}
