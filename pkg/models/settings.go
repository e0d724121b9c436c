package models

// DetectionMode selects how messages are classified.
type DetectionMode string

const (
	// DetectionUnified extracts intent, signals and entities in one call
	DetectionUnified DetectionMode = "unified"
	// DetectionLegacy runs keyword pre-scan, then intent, then entities
	DetectionLegacy DetectionMode = "legacy"
)

// IsValid checks if the detection mode is a known value.
func (m DetectionMode) IsValid() bool {
	return m == DetectionUnified || m == DetectionLegacy
}

// PreFilterMode selects the pre-detection scan depth.
type PreFilterMode string

const (
	// PreFilterEnhanced runs the full pattern groups
	PreFilterEnhanced PreFilterMode = "enhanced"
	// PreFilterLegacy runs only duplicate and billing scans
	PreFilterLegacy PreFilterMode = "legacy"
)

// IsValid checks if the pre-filter mode is a known value.
func (m PreFilterMode) IsValid() bool {
	return m == PreFilterEnhanced || m == PreFilterLegacy
}

// ProviderName routes one LLM operation to a configured provider.
type ProviderName string

const (
	// ProviderPrimary is the first-choice provider
	ProviderPrimary ProviderName = "primary"
	// ProviderFallback is tried when the primary fails
	ProviderFallback ProviderName = "fallback"
	// ProviderStub is the deterministic offline provider
	ProviderStub ProviderName = "stub"
)

// IsValid checks if the provider name is a known value.
func (p ProviderName) IsValid() bool {
	return p == ProviderPrimary || p == ProviderFallback || p == ProviderStub
}

// HILModeSettings controls the global approval gate.
type HILModeSettings struct {
	Enabled bool `json:"enabled"`
}

// ProviderRouting picks a provider per LLM operation.
type ProviderRouting struct {
	IntentProvider        ProviderName `json:"intent_provider"`
	EntityProvider        ProviderName `json:"entity_provider"`
	VerbalizationProvider ProviderName `json:"verbalization_provider"`
}

// PreFilterSettings selects the pre-filter mode.
type PreFilterSettings struct {
	Mode PreFilterMode `json:"mode"`
}

// DepositSettings is the venue-wide deposit policy.
type DepositSettings struct {
	DepositEnabled      bool        `json:"deposit_enabled"`
	DepositType         DepositType `json:"deposit_type"`
	DepositPercentage   float64     `json:"deposit_percentage"`
	DepositFixedAmount  float64     `json:"deposit_fixed_amount"`
	DepositDeadlineDays int         `json:"deposit_deadline_days"`
}

// VenueSettings identifies the venue and its working window.
type VenueSettings struct {
	Name           string    `json:"name"`
	Timezone       string    `json:"timezone"`
	OperatingHours TimeRange `json:"operating_hours"`
}

// SiteVisitSettings constrains when venue visits can be offered.
type SiteVisitSettings struct {
	BlockedDates []string `json:"blocked_dates,omitempty"`
	Slots        []string `json:"slots,omitempty"`
	WeekdaysOnly bool     `json:"weekdays_only"`
	MinDaysAhead int      `json:"min_days_ahead"`
}

// ManagerSettings lists staff recognized in escalation requests.
type ManagerSettings struct {
	Names []string `json:"names,omitempty"`
}

// RetentionSettings bounds what the cleanup pass keeps.
type RetentionSettings struct {
	TaskRetentionDays      int `json:"task_retention_days"`
	TraceLimit             int `json:"trace_limit"`
	CleanupIntervalMinutes int `json:"cleanup_interval_minutes"`
}

// Settings is the runtime configuration object persisted in the store.
// Admin updates bump ConfigVersion; readers reload when it moves.
type Settings struct {
	HILMode       HILModeSettings   `json:"hil_mode"`
	LLMProvider   ProviderRouting   `json:"llm_provider"`
	PreFilter     PreFilterSettings `json:"pre_filter"`
	DetectionMode DetectionMode     `json:"detection_mode"`
	GlobalDeposit DepositSettings   `json:"global_deposit"`
	Venue         VenueSettings     `json:"venue"`
	SiteVisit     SiteVisitSettings `json:"site_visit"`
	Managers      ManagerSettings   `json:"managers"`
	Retention     RetentionSettings `json:"retention"`
	ConfigVersion int               `json:"config_version"`
}
