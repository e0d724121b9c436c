package config

import (
	"sync"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// Default listener and store locations used when openevent.yaml leaves
// them unset.
const (
	DefaultHost   = "0.0.0.0"
	DefaultPort   = 8080
	DefaultDBPath = "data/events.json"
)

// BuiltinConfig holds all built-in configuration data.
// This provides a working venue out of the box: rooms, products,
// provider slots, and runtime settings a deployment can override.
type BuiltinConfig struct {
	Rooms        map[string]*RoomConfig
	Products     map[string]*ProductConfig
	LLMProviders map[string]*LLMProviderConfig
	Settings     models.Settings
	Calendar     VenueCalendar
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration (thread-safe, lazy-initialized)
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		Rooms:        initBuiltinRooms(),
		Products:     initBuiltinProducts(),
		LLMProviders: initBuiltinLLMProviders(),
		Settings:     initBuiltinSettings(),
		Calendar: VenueCalendar{
			OperatingDays: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		},
	}
}

func initBuiltinRooms() map[string]*RoomConfig {
	return map[string]*RoomConfig{
		"Room A": {
			Name:      "Room A",
			Capacity:  50,
			DayPrice:  800,
			Layouts:   []string{"theater", "u-shape", "banquet"},
			Amenities: []string{"projector", "whiteboard"},
		},
		"Room B": {
			Name:      "Room B",
			Capacity:  120,
			DayPrice:  1500,
			Layouts:   []string{"theater", "banquet", "standing"},
			Amenities: []string{"stage", "sound system", "projector"},
		},
		"Salon C": {
			Name:            "Salon C",
			Capacity:        20,
			MinParticipants: 4,
			DayPrice:        400,
			Layouts:         []string{"boardroom"},
			Amenities:       []string{"screen"},
		},
	}
}

func initBuiltinProducts() map[string]*ProductConfig {
	return map[string]*ProductConfig{
		"Business Lunch": {
			Name:     "Business Lunch",
			Price:    38,
			Unit:     models.UnitPerPerson,
			Category: ProductCategoryCatering,
			Aliases:  []string{"lunch", "lunch menu"},
		},
		"Coffee Break": {
			Name:     "Coffee Break",
			Price:    12,
			Unit:     models.UnitPerPerson,
			Category: ProductCategoryCatering,
			Aliases:  []string{"coffee", "coffee and snacks"},
		},
		"Apero Riche": {
			Name:     "Apero Riche",
			Price:    45,
			Unit:     models.UnitPerPerson,
			Category: ProductCategoryCatering,
			Aliases:  []string{"apero", "aperitif"},
		},
		"Projector": {
			Name:     "Projector",
			Price:    80,
			Unit:     models.UnitPerEvent,
			Category: ProductCategoryEquipment,
			Aliases:  []string{"beamer"},
		},
		"Stage Lighting": {
			Name:     "Stage Lighting",
			Price:    250,
			Unit:     models.UnitPerEvent,
			Category: ProductCategoryEquipment,
			Aliases:  []string{"lighting"},
		},
		"Event Support": {
			Name:     "Event Support",
			Price:    350,
			Unit:     models.UnitPerEvent,
			Category: ProductCategoryService,
			Aliases:  []string{"technician", "on-site support"},
		},
	}
}

func initBuiltinLLMProviders() map[string]*LLMProviderConfig {
	return map[string]*LLMProviderConfig{
		"primary": {
			Type:           LLMProviderTypeOpenAI,
			Model:          "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			TimeoutSeconds: 30,
			MaxTokens:      1024,
		},
		"fallback": {
			Type:           LLMProviderTypeAnthropic,
			Model:          "claude-3-5-haiku-latest",
			APIKeyEnv:      "ANTHROPIC_API_KEY",
			TimeoutSeconds: 30,
			MaxTokens:      1024,
		},
		"stub": {
			Type: LLMProviderTypeStub,
		},
	}
}

func initBuiltinSettings() models.Settings {
	return models.Settings{
		HILMode: models.HILModeSettings{Enabled: true},
		LLMProvider: models.ProviderRouting{
			IntentProvider:        models.ProviderPrimary,
			EntityProvider:        models.ProviderPrimary,
			VerbalizationProvider: models.ProviderPrimary,
		},
		PreFilter:     models.PreFilterSettings{Mode: models.PreFilterEnhanced},
		DetectionMode: models.DetectionUnified,
		GlobalDeposit: models.DepositSettings{
			DepositEnabled:      true,
			DepositType:         models.DepositTypePercentage,
			DepositPercentage:   30,
			DepositDeadlineDays: 14,
		},
		Venue: models.VenueSettings{
			Name:           "Seeblick Events",
			Timezone:       "Europe/Zurich",
			OperatingHours: models.TimeRange{Start: "08:00", End: "23:00"},
		},
		SiteVisit: models.SiteVisitSettings{
			Slots:        []string{"10:00", "14:00", "16:30"},
			WeekdaysOnly: true,
			MinDaysAhead: 2,
		},
		Retention: models.RetentionSettings{
			TaskRetentionDays:      30,
			TraceLimit:             500,
			CleanupIntervalMinutes: 60,
		},
	}
}
