package types

// OptionMap maps an option dimension name (e.g. "Size") to the chosen value.
// Stored as jsonb through GORM's json serializer.
type OptionMap map[string]string

// Equal reports whether both maps hold exactly the same pairs.
func (m OptionMap) Equal(other OptionMap) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Matches reports whether every pair in selections is present in m.
func (m OptionMap) Matches(selections OptionMap) bool {
	for k, v := range selections {
		if mv, ok := m[k]; !ok || mv != v {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the map.
func (m OptionMap) Clone() OptionMap {
	if m == nil {
		return nil
	}
	out := make(OptionMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
