package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// RoomConfig defines one bookable room. The name doubles as the room id
// in event records.
type RoomConfig struct {
	// Room name, unique within the venue (required)
	Name string `yaml:"name"`

	// Maximum seated participants (required, min 1)
	Capacity int `yaml:"capacity"`

	// Minimum participants for the room to be offered
	MinParticipants int `yaml:"min_participants,omitempty"`

	// Flat day price in venue currency
	DayPrice float64 `yaml:"day_price"`

	// Supported seating layouts; empty means any
	Layouts []string `yaml:"layouts,omitempty"`

	// Built-in amenities (projector, stage, ...)
	Amenities []string `yaml:"amenities,omitempty"`
}

// FitsParticipants reports whether the room can host the group.
func (r *RoomConfig) FitsParticipants(n int) bool {
	if n <= 0 {
		return true
	}
	if r.MinParticipants > 0 && n < r.MinParticipants {
		return false
	}
	return n <= r.Capacity
}

// SupportsLayout reports whether the room offers the seating layout.
func (r *RoomConfig) SupportsLayout(layout string) bool {
	if layout == "" || len(r.Layouts) == 0 {
		return true
	}
	for _, l := range r.Layouts {
		if strings.EqualFold(l, layout) {
			return true
		}
	}
	return false
}

// RoomRegistry stores room configurations in memory with thread-safe access
type RoomRegistry struct {
	rooms map[string]*RoomConfig
	mu    sync.RWMutex
}

// NewRoomRegistry creates a new room registry
func NewRoomRegistry(rooms map[string]*RoomConfig) *RoomRegistry {
	// Defensive copy to prevent external mutation
	copied := make(map[string]*RoomConfig, len(rooms))
	for k, v := range rooms {
		copied[k] = v
	}
	return &RoomRegistry{
		rooms: copied,
	}
}

// Get retrieves a room by name, case-insensitively (thread-safe)
func (r *RoomRegistry) Get(name string) (*RoomConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if room, exists := r.rooms[name]; exists {
		return room, nil
	}
	for _, room := range r.rooms {
		if strings.EqualFold(room.Name, name) {
			return room, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, name)
}

// GetAll returns all rooms sorted by name (thread-safe, returns copy)
func (r *RoomRegistry) GetAll() []*RoomConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*RoomConfig, 0, len(r.rooms))
	for _, room := range r.rooms {
		result = append(result, room)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Has checks if a room exists in the registry (thread-safe)
func (r *RoomRegistry) Has(name string) bool {
	_, err := r.Get(name)
	return err == nil
}

// Len returns the number of rooms in the registry (thread-safe)
func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
