package triage

import "github.com/rescue-lens/triage.report/internal/config"

// PipelineConfigFromTuning derives the full pipeline configuration from
// a TuningConfig. Unset tuning fields fall back to the same defaults as
// DefaultPipelineConfig.
func PipelineConfigFromTuning(tuning *config.TuningConfig) PipelineConfig {
	if tuning == nil {
		return DefaultPipelineConfig()
	}
	return PipelineConfig{
		Tracker:          TrackerConfigFromTuning(tuning),
		Spectral:         SpectralConfigFromTuning(tuning),
		Movement:         MovementConfigFromTuning(tuning),
		SignalQFullScale: tuning.GetSignalQFullScale(),
	}
}

// TrackerConfigFromTuning derives tracker config from a TuningConfig.
func TrackerConfigFromTuning(tuning *config.TuningConfig) TrackerConfig {
	return TrackerConfig{
		IOUThreshold:      tuning.GetIOUThreshold(),
		ActiveTTL:         tuning.GetActiveTTL(),
		PersistentTTL:     tuning.GetPersistentTTL(),
		BreathingCapacity: tuning.GetBreathingCapacity(),
		MovementCapacity:  tuning.GetMovementCapacity(),
	}
}

// SpectralConfigFromTuning derives spectral estimator config from a TuningConfig.
func SpectralConfigFromTuning(tuning *config.TuningConfig) SpectralConfig {
	return SpectralConfig{
		MinSamples:    tuning.GetSpectralMinSamples(),
		BandLowHz:     tuning.GetBandLowHz(),
		BandHighHz:    tuning.GetBandHighHz(),
		ConfidenceMin: tuning.GetSpectralConfidenceMin(),
		AmplitudeMin:  tuning.GetAmplitudeMin(),
	}
}

// MovementConfigFromTuning derives movement classifier config from a TuningConfig.
func MovementConfigFromTuning(tuning *config.TuningConfig) MovementConfig {
	return MovementConfig{
		MinSamples:    tuning.GetMovementMinSamples(),
		PurposefulAvg: tuning.GetMovementPurposefulAvg(),
		PurposefulMax: tuning.GetMovementPurposefulMax(),
		LowAvg:        tuning.GetMovementLowAvg(),
	}
}
