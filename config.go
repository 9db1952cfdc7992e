package r9y

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type (
	// ManagerConfig is the top-level configuration structure: a map of
	// policy name to policy configuration.
	ManagerConfig struct {
		Policies map[string]PolicyConfig `json:"policies" yaml:"policies"`
	}

	// PolicyConfig holds the decoded configuration for a single retry
	// policy. Export it to embed in your own app config structs for JSON
	// or YAML unmarshaling, then call [BuildPolicy] to obtain a policy
	// for [Manager.AddPolicy].
	PolicyConfig struct {
		// MaxAttempts is the attempt ceiling callers bound their retry
		// loops with.
		// Optional. Example: 5.
		MaxAttempts *int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
		// Strategy is the backoff strategy name.
		// Optional. One of: "linear", "exponential", "fibonacci",
		// "random". The "custom" strategy needs a function value and
		// cannot be configured from a file.
		Strategy *string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
		// InitialDelay is the base delay the strategy scales from.
		// Optional. Parsed via time.ParseDuration. Example: "100ms".
		InitialDelay *string `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
		// MaxDelay caps every computed delay.
		// Optional. Parsed via time.ParseDuration. Example: "30s".
		MaxDelay *string `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
		// Jitter scales computed delays by a random factor in [0.8, 1.2].
		// Optional. Example: true.
		Jitter *bool `json:"jitter,omitempty" yaml:"jitter,omitempty"`
		// ErrorKinds lists retryable error-kind tags.
		// Optional. Example: ["connection_error", "timeout_error"].
		ErrorKinds []string `json:"error_kinds,omitempty" yaml:"error_kinds,omitempty"`
		// ErrorPatterns lists substrings matched against failure
		// messages.
		// Optional. Example: ["connection refused"].
		ErrorPatterns []string `json:"error_patterns,omitempty" yaml:"error_patterns,omitempty"`
		// MaxTotalTime is the overall retry budget.
		// Optional. Parsed via time.ParseDuration. Example: "2m".
		MaxTotalTime *string `json:"max_total_time,omitempty" yaml:"max_total_time,omitempty"`
		// Breaker configures the policy's circuit breaker.
		// Optional. Example: {"failure_threshold": 3}.
		Breaker *BreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
	}

	// BreakerConfig holds circuit breaker configuration values. Embed it
	// (via [PolicyConfig]) in your own config struct for JSON or YAML
	// unmarshaling.
	BreakerConfig struct {
		// FailureThreshold is the consecutive-failure run that trips the
		// breaker.
		// Optional. Example: 5.
		FailureThreshold *int `json:"failure_threshold,omitempty" yaml:"failure_threshold,omitempty"`
		// ResetTimeout is how long the breaker stays open before probing.
		// Optional. Parsed via time.ParseDuration. Example: "60s".
		ResetTimeout *string `json:"reset_timeout,omitempty" yaml:"reset_timeout,omitempty"`
		// HalfOpenTimeout is how long a probe may stay unresolved before
		// the breaker reverts to open.
		// Optional. Parsed via time.ParseDuration. Example: "30s".
		HalfOpenTimeout *string `json:"half_open_timeout,omitempty" yaml:"half_open_timeout,omitempty"`
		// FailureRateThreshold is the failure fraction in [0, 1] that
		// trips the breaker once MinRequests outcomes are recorded.
		// Optional. Example: 0.5.
		FailureRateThreshold *float64 `json:"failure_rate_threshold,omitempty" yaml:"failure_rate_threshold,omitempty"`
		// MinRequests is the minimum sample size for the rate rule.
		// Optional. Example: 10.
		MinRequests *int `json:"min_requests,omitempty" yaml:"min_requests,omitempty"`
	}
)

// LoadConfig reads a policy configuration file. Files ending in .yaml or
// .yml are parsed as YAML, everything else as JSON. All policies are
// validated eagerly so malformed configuration surfaces at load time.
//
// Duration values (initial_delay, max_delay, max_total_time,
// reset_timeout, half_open_timeout) are parsed using
// [time.ParseDuration].
func LoadConfig(path string) (*ManagerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("r9y: read config: %w", err)
	}

	var cfg ManagerConfig

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("r9y: parse config: %w", err)
		}
	default:
		if err = json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("r9y: parse config: %w", err)
		}
	}

	for name, pc := range cfg.Policies {
		if _, buildErr := BuildPolicy(name, &pc); buildErr != nil {
			return nil, fmt.Errorf("r9y: policy %q: %w", name, buildErr)
		}
	}

	return &cfg, nil
}

// LoadManager reads a configuration file and returns a manager with every
// declared policy registered. Manager options (clock, hooks) are applied
// before policies are added so their breakers pick them up.
func LoadManager(path string, opts ...ManagerOption) (*Manager, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	m := NewManager(opts...)

	for name, pc := range cfg.Policies {
		p, buildErr := BuildPolicy(name, &pc)
		if buildErr != nil {
			return nil, fmt.Errorf("r9y: policy %q: %w", name, buildErr)
		}

		if addErr := m.AddPolicy(p); addErr != nil {
			return nil, fmt.Errorf("r9y: policy %q: %w", name, addErr)
		}
	}

	return m, nil
}

// BuildPolicy converts a [PolicyConfig] into a validated policy ready for
// [Manager.AddPolicy]. Use it directly when you embed [PolicyConfig] in
// your own configuration struct. Additional options are applied after the
// config-derived ones, so code-level options take precedence.
func BuildPolicy(
	name string,
	pc *PolicyConfig,
	opts ...PolicyOption,
) (*Policy, error) {
	var cfgOpts []PolicyOption

	if pc.MaxAttempts != nil {
		cfgOpts = append(cfgOpts, WithMaxAttempts(*pc.MaxAttempts))
	}

	if pc.Strategy != nil {
		s, err := ParseStrategy(*pc.Strategy)
		if err != nil {
			return nil, fmt.Errorf("strategy: %w", err)
		}

		if s == StrategyCustom {
			return nil, fmt.Errorf(
				"strategy: %q needs a delay function and cannot come from a file",
				s,
			)
		}

		cfgOpts = append(cfgOpts, WithStrategy(s))
	}

	if pc.InitialDelay != nil {
		d, err := time.ParseDuration(*pc.InitialDelay)
		if err != nil {
			return nil, fmt.Errorf("initial_delay: %w", err)
		}

		cfgOpts = append(cfgOpts, WithInitialDelay(d))
	}

	if pc.MaxDelay != nil {
		d, err := time.ParseDuration(*pc.MaxDelay)
		if err != nil {
			return nil, fmt.Errorf("max_delay: %w", err)
		}

		cfgOpts = append(cfgOpts, WithMaxDelay(d))
	}

	if pc.Jitter != nil && *pc.Jitter {
		cfgOpts = append(cfgOpts, WithJitter())
	}

	if len(pc.ErrorKinds) > 0 {
		cfgOpts = append(cfgOpts, WithErrorKinds(pc.ErrorKinds...))
	}

	if len(pc.ErrorPatterns) > 0 {
		cfgOpts = append(cfgOpts, WithErrorPatterns(pc.ErrorPatterns...))
	}

	if pc.MaxTotalTime != nil {
		d, err := time.ParseDuration(*pc.MaxTotalTime)
		if err != nil {
			return nil, fmt.Errorf("max_total_time: %w", err)
		}

		cfgOpts = append(cfgOpts, WithMaxTotalTime(d))
	}

	if pc.Breaker != nil {
		bOpts, err := buildBreakerOptions(pc.Breaker)
		if err != nil {
			return nil, err
		}

		cfgOpts = append(cfgOpts, WithBreaker(bOpts...))
	}

	// User opts come last so they can override config values.
	cfgOpts = append(cfgOpts, opts...)

	p := NewPolicy(name, cfgOpts...)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// buildBreakerOptions converts a [BreakerConfig] into breaker options.
func buildBreakerOptions(bc *BreakerConfig) ([]BreakerOption, error) {
	var opts []BreakerOption

	if bc.FailureThreshold != nil {
		opts = append(opts, FailureThreshold(*bc.FailureThreshold))
	}

	if bc.ResetTimeout != nil {
		d, err := time.ParseDuration(*bc.ResetTimeout)
		if err != nil {
			return nil, fmt.Errorf(
				"circuit_breaker.reset_timeout: %w",
				err,
			)
		}

		opts = append(opts, ResetTimeout(d))
	}

	if bc.HalfOpenTimeout != nil {
		d, err := time.ParseDuration(*bc.HalfOpenTimeout)
		if err != nil {
			return nil, fmt.Errorf(
				"circuit_breaker.half_open_timeout: %w",
				err,
			)
		}

		opts = append(opts, HalfOpenTimeout(d))
	}

	if bc.FailureRateThreshold != nil {
		opts = append(
			opts,
			FailureRateThreshold(*bc.FailureRateThreshold),
		)
	}

	if bc.MinRequests != nil {
		opts = append(opts, MinRequests(*bc.MinRequests))
	}

	return opts, nil
}
