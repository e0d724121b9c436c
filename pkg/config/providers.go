package config

import (
	"fmt"
	"maps"
	"sync"
)

// LLMProviderConfig defines one named LLM provider the detection and
// verbalization routers can select per operation.
type LLMProviderConfig struct {
	// Provider type (required)
	Type LLMProviderType `yaml:"type"`

	// Model name (required for non-stub providers)
	Model string `yaml:"model"`

	// Environment variable name for API key
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// Optional custom endpoint/base URL
	BaseURL string `yaml:"base_url,omitempty"`

	// Per-call deadline in seconds; exceeding it triggers fallback
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	// Completion budget per call
	MaxTokens int `yaml:"max_tokens,omitempty"`

	// Sampling temperature; detection wants 0
	Temperature float64 `yaml:"temperature,omitempty"`
}

// LLMProviderRegistry holds the merged built-in plus user-defined
// provider set. Reads vastly outnumber the one write at bootstrap, so
// access goes through an RWMutex and copies leave the registry intact.
type LLMProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]*LLMProviderConfig
}

// NewLLMProviderRegistry copies the given set into a fresh registry.
func NewLLMProviderRegistry(providers map[string]*LLMProviderConfig) *LLMProviderRegistry {
	return &LLMProviderRegistry{providers: maps.Clone(providers)}
}

// Get returns the named provider or ErrLLMProviderNotFound.
func (r *LLMProviderRegistry) Get(name string) (*LLMProviderConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, name)
	}
	return p, nil
}

// GetAll returns a copy of the full provider map.
func (r *LLMProviderRegistry) GetAll() map[string]*LLMProviderConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.providers)
}

// Has reports whether a provider with the given name exists.
func (r *LLMProviderRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Len returns the number of registered providers.
func (r *LLMProviderRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
