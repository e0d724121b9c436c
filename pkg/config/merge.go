package config

// mergeRooms combines built-in and user-defined rooms; a user room with
// the same name replaces the built-in one.
func mergeRooms(builtin map[string]*RoomConfig, user []RoomConfig) map[string]*RoomConfig {
	merged := make(map[string]*RoomConfig, len(builtin)+len(user))
	for name, room := range builtin {
		merged[name] = room
	}
	for i := range user {
		room := user[i]
		merged[room.Name] = &room
	}
	return merged
}

// mergeProducts combines built-in and user-defined products; a user
// product with the same name replaces the built-in one.
func mergeProducts(builtin map[string]*ProductConfig, user []ProductConfig) map[string]*ProductConfig {
	merged := make(map[string]*ProductConfig, len(builtin)+len(user))
	for name, p := range builtin {
		merged[name] = p
	}
	for i := range user {
		p := user[i]
		merged[p.Name] = &p
	}
	return merged
}

// mergeLLMProviders combines built-in and user-defined providers; user
// definitions override built-ins of the same name.
func mergeLLMProviders(builtin map[string]*LLMProviderConfig, user map[string]LLMProviderConfig) map[string]*LLMProviderConfig {
	merged := make(map[string]*LLMProviderConfig, len(builtin)+len(user))
	for name, p := range builtin {
		merged[name] = p
	}
	for name := range user {
		p := user[name]
		merged[name] = &p
	}
	return merged
}
