package resilience

import "time"

// CooldownConfig holds how long the upstream stays disabled per failure class.
type CooldownConfig struct {
	QuotaExceeded time.Duration
	Unauthorized  time.Duration
	Transient     time.Duration
	PayloadShape  time.Duration
}

func DefaultCooldownConfig() CooldownConfig {
	return CooldownConfig{
		QuotaExceeded: 6 * time.Hour,
		Unauthorized:  24 * time.Hour,
		Transient:     5 * time.Minute,
		PayloadShape:  10 * time.Minute,
	}
}

func NormalizeCooldownConfig(cfg CooldownConfig) CooldownConfig {
	defaults := DefaultCooldownConfig()
	if cfg.QuotaExceeded <= 0 {
		cfg.QuotaExceeded = defaults.QuotaExceeded
	}
	if cfg.Unauthorized <= 0 {
		cfg.Unauthorized = defaults.Unauthorized
	}
	if cfg.Transient <= 0 {
		cfg.Transient = defaults.Transient
	}
	if cfg.PayloadShape <= 0 {
		cfg.PayloadShape = defaults.PayloadShape
	}
	return cfg
}
