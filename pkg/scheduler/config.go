package scheduler

// Config holds the noise-schedule parameters every scheduler variant is
// constructed from. Only the fields common to all variants are carried, so
// a variant-specific setting of one scheduler never leaks into the next.
type Config struct {
	NumTrainTimesteps int       `json:"num_train_timesteps,omitempty" yaml:"num_train_timesteps,omitempty"`
	BetaStart         float64   `json:"beta_start,omitempty" yaml:"beta_start,omitempty"`
	BetaEnd           float64   `json:"beta_end,omitempty" yaml:"beta_end,omitempty"`
	BetaSchedule      string    `json:"beta_schedule,omitempty" yaml:"beta_schedule,omitempty"`
	TrainedBetas      []float64 `json:"trained_betas,omitempty" yaml:"trained_betas,omitempty"`
	PredictionType    string    `json:"prediction_type,omitempty" yaml:"prediction_type,omitempty"`
	StepsOffset       int       `json:"steps_offset,omitempty" yaml:"steps_offset,omitempty"`
	TimestepSpacing   string    `json:"timestep_spacing,omitempty" yaml:"timestep_spacing,omitempty"`
}

// StableDiffusionConfig is the schedule Stable Diffusion 1.x checkpoints
// ship with.
func StableDiffusionConfig() Config {
	return Config{
		NumTrainTimesteps: 1000,
		BetaStart:         0.00085,
		BetaEnd:           0.012,
		BetaSchedule:      "scaled_linear",
		PredictionType:    "epsilon",
		StepsOffset:       1,
		TimestepSpacing:   "leading",
	}
}

func (c Config) IsZero() bool {
	return c.NumTrainTimesteps == 0 && c.BetaSchedule == "" && len(c.TrainedBetas) == 0
}
