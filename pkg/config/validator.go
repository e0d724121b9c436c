package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

var clockRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Validator checks a resolved Config for consistency.
type Validator struct {
	cfg  *Config
	errs []error
}

// NewValidator creates a validator for the config.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll runs every check and returns the collected errors, if any.
func (v *Validator) ValidateAll() error {
	v.validateRooms()
	v.validateProducts()
	v.validateProviders()
	v.validateSettings()

	if len(v.errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidationFailed, errors.Join(v.errs...))
	}
	return nil
}

func (v *Validator) addError(component, id, field string, err error) {
	v.errs = append(v.errs, NewValidationError(component, id, field, err))
}

func (v *Validator) validateRooms() {
	if v.cfg.Rooms.Len() == 0 {
		v.addError("room", "*", "", fmt.Errorf("%w: at least one room", ErrMissingRequiredField))
		return
	}
	for _, room := range v.cfg.Rooms.GetAll() {
		if room.Name == "" {
			v.addError("room", "?", "name", ErrMissingRequiredField)
		}
		if room.Capacity < 1 {
			v.addError("room", room.Name, "capacity", fmt.Errorf("%w: must be at least 1", ErrInvalidValue))
		}
		if room.MinParticipants > room.Capacity {
			v.addError("room", room.Name, "min_participants", fmt.Errorf("%w: exceeds capacity", ErrInvalidValue))
		}
		if room.DayPrice < 0 {
			v.addError("room", room.Name, "day_price", fmt.Errorf("%w: negative", ErrInvalidValue))
		}
	}
}

func (v *Validator) validateProducts() {
	for _, p := range v.cfg.Products.GetAll() {
		if p.Name == "" {
			v.addError("product", "?", "name", ErrMissingRequiredField)
		}
		if p.Price < 0 {
			v.addError("product", p.Name, "price", fmt.Errorf("%w: negative", ErrInvalidValue))
		}
		if !p.Unit.IsValid() {
			v.addError("product", p.Name, "unit",
				fmt.Errorf("%w: %q (want per_person or per_event)", ErrInvalidValue, p.Unit))
		}
		if p.Category != "" && !p.Category.IsValid() {
			v.addError("product", p.Name, "category", fmt.Errorf("%w: %q", ErrInvalidValue, p.Category))
		}
	}
}

func (v *Validator) validateProviders() {
	for name, p := range v.cfg.LLMProviders.GetAll() {
		if !p.Type.IsValid() {
			v.addError("llm_provider", name, "type", fmt.Errorf("%w: %q", ErrInvalidValue, p.Type))
			continue
		}
		if p.Type != LLMProviderTypeStub && p.Model == "" {
			v.addError("llm_provider", name, "model", ErrMissingRequiredField)
		}
		if p.TimeoutSeconds < 0 {
			v.addError("llm_provider", name, "timeout_seconds", fmt.Errorf("%w: negative", ErrInvalidValue))
		}
	}

	// routing must point at registered providers
	routing := v.cfg.Bootstrap.LLMProvider
	for field, name := range map[string]models.ProviderName{
		"intent_provider":        routing.IntentProvider,
		"entity_provider":        routing.EntityProvider,
		"verbalization_provider": routing.VerbalizationProvider,
	} {
		if !v.cfg.LLMProviders.Has(string(name)) {
			v.addError("settings", "llm_provider", field,
				fmt.Errorf("%w: provider %q is not configured", ErrInvalidValue, name))
		}
	}
}

func (v *Validator) validateSettings() {
	s := v.cfg.Bootstrap

	if s.GlobalDeposit.DepositEnabled {
		switch s.GlobalDeposit.DepositType {
		case models.DepositTypePercentage:
			if s.GlobalDeposit.DepositPercentage <= 0 || s.GlobalDeposit.DepositPercentage > 100 {
				v.addError("settings", "global_deposit", "deposit_percentage",
					fmt.Errorf("%w: must be in (0,100]", ErrInvalidValue))
			}
		case models.DepositTypeFixed:
			if s.GlobalDeposit.DepositFixedAmount <= 0 {
				v.addError("settings", "global_deposit", "deposit_fixed_amount",
					fmt.Errorf("%w: must be positive", ErrInvalidValue))
			}
		default:
			v.addError("settings", "global_deposit", "deposit_type",
				fmt.Errorf("%w: %q", ErrInvalidValue, s.GlobalDeposit.DepositType))
		}
	}

	for _, clock := range []struct{ field, value string }{
		{"operating_hours.start", s.Venue.OperatingHours.Start},
		{"operating_hours.end", s.Venue.OperatingHours.End},
	} {
		if clock.value != "" && !clockRe.MatchString(clock.value) {
			v.addError("settings", "venue", clock.field,
				fmt.Errorf("%w: %q is not HH:MM", ErrInvalidValue, clock.value))
		}
	}

	for _, slot := range s.SiteVisit.Slots {
		if !clockRe.MatchString(slot) {
			v.addError("settings", "site_visit", "slots",
				fmt.Errorf("%w: slot %q is not HH:MM", ErrInvalidValue, slot))
		}
	}
	if s.SiteVisit.MinDaysAhead < 0 {
		v.addError("settings", "site_visit", "min_days_ahead",
			fmt.Errorf("%w: negative", ErrInvalidValue))
	}
}
