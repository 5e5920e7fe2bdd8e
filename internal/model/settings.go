package model

// Setting keys known to the store.
const (
	SettingTaxRate      = "taxRate"
	SettingStoreName    = "storeName"
	SettingStoreAddress = "storeAddress"
	SettingCurrency     = "currency"
	SettingUIScale      = "uiScale"
)

// Defaults for the required settings.
const (
	DefaultStoreName    = "GPOS-General"
	DefaultStoreAddress = "123 Main Street"
	DefaultCurrency     = "IDR"
)

// Settings maps keys to typed values: string, float64 or bool.
//
// Decoding from JSON yields exactly these dynamic types, which is why
// numeric settings are float64 even when they hold whole numbers.
type Settings map[string]any

// RequiredSettings returns the keys every settings map must carry, mapped to
// their defaults.
func RequiredSettings() Settings {
	return Settings{
		SettingTaxRate:      DefaultTaxRate,
		SettingStoreName:    DefaultStoreName,
		SettingStoreAddress: DefaultStoreAddress,
	}
}

// DefaultSettings is the first-run settings map: the required keys plus the
// default currency.
func DefaultSettings() Settings {
	s := RequiredSettings()
	s[SettingCurrency] = DefaultCurrency
	return s
}

// Clone returns a shallow copy (values are immutable scalars).
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}
	c := make(Settings, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// String returns the string value for key.
func (s Settings) String(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

// Float returns the numeric value for key. Integer values set
// programmatically are widened.
func (s Settings) Float(key string) (float64, bool) {
	switch v := s[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Bool returns the boolean value for key.
func (s Settings) Bool(key string) (bool, bool) {
	v, ok := s[key].(bool)
	return v, ok
}

// TaxRate returns the configured rate, or DefaultTaxRate when the value is
// missing, non-numeric or outside [0,1].
func (s Settings) TaxRate() float64 {
	rate, ok := s.Float(SettingTaxRate)
	if !ok || !(rate >= 0 && rate <= 1) {
		return DefaultTaxRate
	}
	return rate
}

// StoreName returns the store name setting, or its default.
func (s Settings) StoreName() string {
	if v, ok := s.String(SettingStoreName); ok {
		return v
	}
	return DefaultStoreName
}
