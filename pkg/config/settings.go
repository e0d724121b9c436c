package config

import (
	"encoding/json"
	"fmt"
	"sync"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// ApplyMergePatch applies an RFC 7386 merge patch to the runtime settings.
// The caller persists the result through the store, which bumps the
// config version. Patches producing invalid enum values are rejected.
func ApplyMergePatch(current models.Settings, patch []byte) (models.Settings, error) {
	original, err := json.Marshal(current)
	if err != nil {
		return current, fmt.Errorf("failed to encode settings: %w", err)
	}

	merged, err := jsonpatch.MergePatch(original, patch)
	if err != nil {
		return current, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	var next models.Settings
	if err := json.Unmarshal(merged, &next); err != nil {
		return current, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	if err := checkSettings(next); err != nil {
		return current, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	// version is managed by the store, not the patch
	next.ConfigVersion = current.ConfigVersion
	return next, nil
}

func checkSettings(s models.Settings) error {
	if !s.DetectionMode.IsValid() {
		return fmt.Errorf("detection_mode %q", s.DetectionMode)
	}
	if !s.PreFilter.Mode.IsValid() {
		return fmt.Errorf("pre_filter.mode %q", s.PreFilter.Mode)
	}
	for field, name := range map[string]models.ProviderName{
		"intent_provider":        s.LLMProvider.IntentProvider,
		"entity_provider":        s.LLMProvider.EntityProvider,
		"verbalization_provider": s.LLMProvider.VerbalizationProvider,
	} {
		if !name.IsValid() {
			return fmt.Errorf("llm_provider.%s %q", field, name)
		}
	}
	if s.GlobalDeposit.DepositEnabled && !s.GlobalDeposit.DepositType.IsValid() {
		return fmt.Errorf("global_deposit.deposit_type %q", s.GlobalDeposit.DepositType)
	}
	return nil
}

// SettingsCache keeps the last seen runtime settings keyed by config
// version, so components outside the message cycle (cleanup, debug
// surface) read without hitting the store. The router refreshes it on
// every processed message.
type SettingsCache struct {
	mu       sync.RWMutex
	loaded   bool
	settings models.Settings
}

// NewSettingsCache creates an empty cache.
func NewSettingsCache() *SettingsCache {
	return &SettingsCache{}
}

// Refresh stores the settings when they are newer than the cached copy.
func (c *SettingsCache) Refresh(s models.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded || s.ConfigVersion >= c.settings.ConfigVersion {
		c.settings = s
		c.loaded = true
	}
}

// Current returns the cached settings and whether anything was cached yet.
func (c *SettingsCache) Current() (models.Settings, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings, c.loaded
}
