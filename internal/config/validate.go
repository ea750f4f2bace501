package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFrame(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateExecutor(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFrame() error {
	w, h := c.Frame.Width, c.Frame.Height
	if w == 0 && h == 0 {
		return nil
	}
	if w <= 0 || h <= 0 {
		return errors.New("frame.width and frame.height must both be set, or both be 0 to follow the base video")
	}
	if w%2 != 0 || h%2 != 0 {
		return fmt.Errorf("frame %dx%d must have even dimensions", w, h)
	}
	return nil
}

func (c *Config) validateMatching() error {
	switch c.Matching.Strategy {
	case "slug", "positional":
	default:
		return fmt.Errorf("matching.strategy %q is not supported (use slug or positional)", c.Matching.Strategy)
	}
	if c.Matching.MinScore <= 0 || c.Matching.MinScore > 1 {
		return errors.New("matching.min_score must be greater than 0 and at most 1")
	}
	if c.Reconcile.EpsilonMS < 0 {
		return errors.New("reconcile.epsilon_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateProbe() error {
	if c.Probe.Concurrency <= 0 {
		return errors.New("probe.concurrency must be positive")
	}
	if c.Probe.TimeoutSeconds <= 0 {
		return errors.New("probe.timeout_seconds must be positive")
	}
	if c.Probe.RetryAttempts <= 0 {
		return errors.New("probe.retry_attempts must be positive")
	}
	if c.Probe.RetryInitialMS < 0 {
		return errors.New("probe.retry_initial_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateExecutor() error {
	if c.Executor.TimeoutSeconds < 0 {
		return errors.New("executor.timeout_seconds must be >= 0")
	}
	if c.Executor.CRF < 0 || c.Executor.CRF > 51 {
		return errors.New("executor.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", c.Logging.Level)
	}
	return nil
}
