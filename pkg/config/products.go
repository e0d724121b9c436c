package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// ProductConfig defines one orderable product or catering package.
type ProductConfig struct {
	// Product name, unique within the venue (required)
	Name string `yaml:"name"`

	// Unit price in venue currency (required)
	Price float64 `yaml:"price"`

	// How the price scales (required: per_person or per_event)
	Unit models.PricingUnit `yaml:"unit"`

	// Grouping for offer composition (catering, equipment, service)
	Category ProductCategory `yaml:"category"`

	// Alternative names clients use for this product
	Aliases []string `yaml:"aliases,omitempty"`
}

// Matches reports whether the free-text mention refers to this product.
func (p *ProductConfig) Matches(mention string) bool {
	mention = strings.TrimSpace(mention)
	if strings.EqualFold(p.Name, mention) {
		return true
	}
	for _, a := range p.Aliases {
		if strings.EqualFold(a, mention) {
			return true
		}
	}
	return false
}

// ProductRegistry stores product configurations in memory with thread-safe access
type ProductRegistry struct {
	products map[string]*ProductConfig
	mu       sync.RWMutex
}

// NewProductRegistry creates a new product registry
func NewProductRegistry(products map[string]*ProductConfig) *ProductRegistry {
	// Defensive copy to prevent external mutation
	copied := make(map[string]*ProductConfig, len(products))
	for k, v := range products {
		copied[k] = v
	}
	return &ProductRegistry{
		products: copied,
	}
}

// Get retrieves a product by name (thread-safe)
func (r *ProductRegistry) Get(name string) (*ProductConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, exists := r.products[name]; exists {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProductNotFound, name)
}

// Resolve finds the product a free-text mention refers to, trying exact
// names first, then aliases (thread-safe)
func (r *ProductRegistry) Resolve(mention string) (*ProductConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if strings.EqualFold(p.Name, mention) {
			return p, nil
		}
	}
	for _, p := range r.products {
		if p.Matches(mention) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProductNotFound, mention)
}

// GetAll returns all products sorted by name (thread-safe, returns copy)
func (r *ProductRegistry) GetAll() []*ProductConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*ProductConfig, 0, len(r.products))
	for _, p := range r.products {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Len returns the number of products in the registry (thread-safe)
func (r *ProductRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}
