package pos

import (
	"math"
	"strconv"

	"github.com/roach88/gpos/internal/integrity"
	"github.com/roach88/gpos/internal/model"
)

// UpdateSettings merges values into the current settings after checking
// the merged result against the settings schema. Nothing is stored when
// the check fails.
func (m *Manager) UpdateSettings(values model.Settings) error {
	merged := m.store.Settings()
	for k, v := range values {
		merged[k] = normalizeNumber(v)
	}
	if err := integrity.ValidateSettings(merged); err != nil {
		return err
	}
	m.store.SetSettings(values)
	return nil
}

// ParseSettingValue interprets command-line text as a setting value:
// true/false become booleans, numbers become float64, anything else stays
// a string.
func ParseSettingValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return raw
}

func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
