package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeExecutor()
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMatching() {
	c.Matching.Strategy = strings.ToLower(strings.TrimSpace(c.Matching.Strategy))
	if c.Matching.Strategy == "" {
		c.Matching.Strategy = defaultMatchingStrategy
	}
	if c.Matching.MinScore == 0 {
		c.Matching.MinScore = defaultMinScore
	}
}

func (c *Config) normalizeExecutor() {
	if value, ok := os.LookupEnv("INLAY_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Executor.FFmpeg = value
	}
	if value, ok := os.LookupEnv("INLAY_FFPROBE"); ok && strings.TrimSpace(value) != "" {
		c.Executor.FFprobe = value
	}
	c.Executor.FFmpeg = strings.TrimSpace(c.Executor.FFmpeg)
	if c.Executor.FFmpeg == "" {
		c.Executor.FFmpeg = defaultFFmpeg
	}
	c.Executor.FFprobe = strings.TrimSpace(c.Executor.FFprobe)
	if c.Executor.FFprobe == "" {
		c.Executor.FFprobe = defaultFFprobe
	}
	c.Executor.VideoCodec = strings.TrimSpace(c.Executor.VideoCodec)
	if c.Executor.VideoCodec == "" {
		c.Executor.VideoCodec = defaultVideoCodec
	}
	c.Executor.Preset = strings.TrimSpace(c.Executor.Preset)
	c.Executor.AudioCodec = strings.ToLower(strings.TrimSpace(c.Executor.AudioCodec))
	if c.Executor.AudioCodec == "" {
		c.Executor.AudioCodec = defaultAudioCodec
	}
	c.Executor.AudioBitrate = strings.TrimSpace(c.Executor.AudioBitrate)
}

func (c *Config) normalizeLedger() error {
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = filepath.Join(c.Paths.StateDir, defaultLedgerName)
	}
	var err error
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
