package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig is the root configuration for pipeline tuning parameters.
// All fields are optional pointers: a partial JSON file overrides only
// what it names, and the Get* accessors supply documented defaults for
// the rest. The spectral thresholds in particular are deliberately
// configuration, not constants — they were inherited from the prototype
// and are expected to be recalibrated in the field.
type TuningConfig struct {
	// Tracker params
	IOUThreshold  *float64 `json:"iou_threshold,omitempty"`
	ActiveTTL     *string  `json:"active_ttl,omitempty"`     // duration string like "30s"
	PersistentTTL *string  `json:"persistent_ttl,omitempty"` // duration string like "5m"

	// Signal buffer params
	BreathingCapacity *int `json:"breathing_capacity,omitempty"`
	MovementCapacity  *int `json:"movement_capacity,omitempty"`

	// Spectral estimator params
	SpectralMinSamples    *int     `json:"spectral_min_samples,omitempty"`
	BandLowHz             *float64 `json:"band_low_hz,omitempty"`
	BandHighHz            *float64 `json:"band_high_hz,omitempty"`
	SpectralConfidenceMin *float64 `json:"spectral_confidence_min,omitempty"`
	AmplitudeMin          *float64 `json:"amplitude_min,omitempty"`
	SignalQFullScale      *float64 `json:"signal_q_full_scale,omitempty"`

	// Movement classifier params
	MovementMinSamples    *int     `json:"movement_min_samples,omitempty"`
	MovementPurposefulAvg *float64 `json:"movement_purposeful_avg,omitempty"`
	MovementPurposefulMax *float64 `json:"movement_purposeful_max,omitempty"`
	MovementLowAvg        *float64 `json:"movement_low_avg,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset, so
// every accessor yields its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are coherent.
func (c *TuningConfig) Validate() error {
	if c.IOUThreshold != nil {
		if *c.IOUThreshold < 0 || *c.IOUThreshold > 1 {
			return fmt.Errorf("iou_threshold must be between 0 and 1, got %f", *c.IOUThreshold)
		}
	}

	if c.ActiveTTL != nil && *c.ActiveTTL != "" {
		if _, err := time.ParseDuration(*c.ActiveTTL); err != nil {
			return fmt.Errorf("invalid active_ttl %q: %w", *c.ActiveTTL, err)
		}
	}
	if c.PersistentTTL != nil && *c.PersistentTTL != "" {
		if _, err := time.ParseDuration(*c.PersistentTTL); err != nil {
			return fmt.Errorf("invalid persistent_ttl %q: %w", *c.PersistentTTL, err)
		}
	}

	if c.BreathingCapacity != nil && *c.BreathingCapacity <= 0 {
		return fmt.Errorf("breathing_capacity must be positive, got %d", *c.BreathingCapacity)
	}
	if c.MovementCapacity != nil && *c.MovementCapacity <= 0 {
		return fmt.Errorf("movement_capacity must be positive, got %d", *c.MovementCapacity)
	}

	low, high := c.GetBandLowHz(), c.GetBandHighHz()
	if low <= 0 || high <= low {
		return fmt.Errorf("breathing band [%f, %f] Hz is not a valid band", low, high)
	}

	if c.SpectralConfidenceMin != nil && *c.SpectralConfidenceMin < 0 {
		return fmt.Errorf("spectral_confidence_min must be non-negative, got %f", *c.SpectralConfidenceMin)
	}
	if c.AmplitudeMin != nil && *c.AmplitudeMin < 0 {
		return fmt.Errorf("amplitude_min must be non-negative, got %f", *c.AmplitudeMin)
	}

	return nil
}

// GetIOUThreshold returns the iou_threshold value or the default.
func (c *TuningConfig) GetIOUThreshold() float64 {
	if c.IOUThreshold == nil {
		return 0.3
	}
	return *c.IOUThreshold
}

// GetActiveTTL parses and returns the active_ttl as a time.Duration.
func (c *TuningConfig) GetActiveTTL() time.Duration {
	if c.ActiveTTL == nil || *c.ActiveTTL == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(*c.ActiveTTL)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetPersistentTTL parses and returns the persistent_ttl as a time.Duration.
func (c *TuningConfig) GetPersistentTTL() time.Duration {
	if c.PersistentTTL == nil || *c.PersistentTTL == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(*c.PersistentTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// GetBreathingCapacity returns the breathing_capacity value or the default.
func (c *TuningConfig) GetBreathingCapacity() int {
	if c.BreathingCapacity == nil {
		return 150
	}
	return *c.BreathingCapacity
}

// GetMovementCapacity returns the movement_capacity value or the default.
func (c *TuningConfig) GetMovementCapacity() int {
	if c.MovementCapacity == nil {
		return 50
	}
	return *c.MovementCapacity
}

// GetSpectralMinSamples returns the spectral_min_samples value or the default.
func (c *TuningConfig) GetSpectralMinSamples() int {
	if c.SpectralMinSamples == nil {
		return 30
	}
	return *c.SpectralMinSamples
}

// GetBandLowHz returns the band_low_hz value or the default.
func (c *TuningConfig) GetBandLowHz() float64 {
	if c.BandLowHz == nil {
		return 0.1
	}
	return *c.BandLowHz
}

// GetBandHighHz returns the band_high_hz value or the default.
func (c *TuningConfig) GetBandHighHz() float64 {
	if c.BandHighHz == nil {
		return 0.7
	}
	return *c.BandHighHz
}

// GetSpectralConfidenceMin returns the spectral_confidence_min value or the default.
func (c *TuningConfig) GetSpectralConfidenceMin() float64 {
	if c.SpectralConfidenceMin == nil {
		return 0.3
	}
	return *c.SpectralConfidenceMin
}

// GetAmplitudeMin returns the amplitude_min value or the default.
func (c *TuningConfig) GetAmplitudeMin() float64 {
	if c.AmplitudeMin == nil {
		return 0.01
	}
	return *c.AmplitudeMin
}

// GetSignalQFullScale returns the signal_q_full_scale value or the default.
func (c *TuningConfig) GetSignalQFullScale() float64 {
	if c.SignalQFullScale == nil {
		return 5.0
	}
	return *c.SignalQFullScale
}

// GetMovementMinSamples returns the movement_min_samples value or the default.
func (c *TuningConfig) GetMovementMinSamples() int {
	if c.MovementMinSamples == nil {
		return 10
	}
	return *c.MovementMinSamples
}

// GetMovementPurposefulAvg returns the movement_purposeful_avg value or the default.
func (c *TuningConfig) GetMovementPurposefulAvg() float64 {
	if c.MovementPurposefulAvg == nil {
		return 0.01
	}
	return *c.MovementPurposefulAvg
}

// GetMovementPurposefulMax returns the movement_purposeful_max value or the default.
func (c *TuningConfig) GetMovementPurposefulMax() float64 {
	if c.MovementPurposefulMax == nil {
		return 0.02
	}
	return *c.MovementPurposefulMax
}

// GetMovementLowAvg returns the movement_low_avg value or the default.
func (c *TuningConfig) GetMovementLowAvg() float64 {
	if c.MovementLowAvg == nil {
		return 0.005
	}
	return *c.MovementLowAvg
}
