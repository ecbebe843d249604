package ratelimit

import "time"

// LimitConfig is one window/ceiling pair.
type LimitConfig struct {
	Window time.Duration
	Max    int64
}

// Policy maps scopes to the limits enforced for them.
type Policy struct {
	Limits map[Scope][]LimitConfig
}

// DefaultPolicy returns the baseline limits: resolve traffic is the
// product and runs hot; management calls come from dashboards and scripts
// and are kept modest.
func DefaultPolicy() *Policy {
	return &Policy{
		Limits: map[Scope][]LimitConfig{
			ScopeGlobal: {
				{Window: time.Minute, Max: 2000},
			},
			ScopeResolve: {
				{Window: time.Minute, Max: 1000},
			},
			ScopeManage: {
				{Window: time.Minute, Max: 60},
				{Window: time.Hour, Max: 600},
			},
		},
	}
}
