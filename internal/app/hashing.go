package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bt-catalog/internal/bt"
	"bt-catalog/internal/config"
	"bt-catalog/internal/hasher"
)

// newHasher builds the content hasher from the [hashing] section. Missing
// seeds fall back to hasher.DefaultHashConfig.
func newHasher(cfg config.HashingConfig, logger bt.Logger) (*hasher.Hasher, error) {
	hc := hasher.DefaultHashConfig()
	var err error
	if cfg.Seed1 != "" {
		if hc.Seed1, err = parseSeed(cfg.Seed1); err != nil {
			return nil, fmt.Errorf("hashing.seed1: %w", err)
		}
	}
	if cfg.Seed2 != "" {
		if hc.Seed2, err = parseSeed(cfg.Seed2); err != nil {
			return nil, fmt.Errorf("hashing.seed2: %w", err)
		}
	}

	opts := hasher.Options{
		Config:             hc,
		EmptyOutputRetries: cfg.EmptyOutputRetries,
		Logger:             logger,
	}

	if cfg.AudioNormalization {
		var timeout time.Duration
		if cfg.AudioToolTimeout != "" {
			if timeout, err = time.ParseDuration(cfg.AudioToolTimeout); err != nil {
				return nil, fmt.Errorf("hashing.audio_tool_timeout: %w", err)
			}
		}
		tool := cfg.AudioTool
		if tool == "" {
			tool = "ffmpeg"
		}
		audio, err := hasher.NewAudioTagStrip(tool, cfg.AudioToolArgs, timeout)
		if err != nil {
			return nil, fmt.Errorf("configuring audio normalization: %w", err)
		}
		opts.Audio = audio
	}

	return hasher.New(opts), nil
}

// parseSeed reads a 64-bit seed written in hex, with or without 0x.
func parseSeed(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: seed %q is not a 64-bit hex value", bt.ErrInvalidArgument, s)
	}
	return v, nil
}
