package schema

import (
	"encoding/json"
	"reflect"
)

const (
	DefaultHeight        = 512
	DefaultWidth         = 512
	DefaultSteps         = 20
	DefaultGuidanceScale = 7.0
	DefaultScheduler     = "K_EULER_ANCESTRAL"
)

// InferenceRequest is the inpainting request mapping. Images are payload
// strings: bare base64, a base64 data URI, or an http(s) URL.
// @Description Inpainting request
type InferenceRequest struct {
	Prompt         string  `json:"prompt" yaml:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty" yaml:"negative_prompt,omitempty"`
	Height         int     `json:"height" yaml:"height"`
	Width          int     `json:"width" yaml:"width"`
	Steps          int     `json:"steps" yaml:"steps"`
	GuidanceScale  float64 `json:"guidance_scale" yaml:"guidance_scale"`
	Seed           *int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
	Scheduler      string  `json:"scheduler" yaml:"scheduler"`
	Mask           string  `json:"mask" yaml:"mask"`
	InitImage      string  `json:"init_image" yaml:"init_image"`
}

// NewInferenceRequest returns a request with every optional field set to its
// default. Decoding a mapping on top of it leaves absent fields at their
// defaults, which is how defaults are applied before validation.
func NewInferenceRequest() *InferenceRequest {
	return &InferenceRequest{
		Height:        DefaultHeight,
		Width:         DefaultWidth,
		Steps:         DefaultSteps,
		GuidanceScale: DefaultGuidanceScale,
		Scheduler:     DefaultScheduler,
	}
}

// UnmarshalJSON decodes on top of the current values. Falsy JSON values for
// prompt, mask and init_image (false, 0, null, "", [] and {}) read as empty
// strings so they reach the in-band validation messages.
func (r *InferenceRequest) UnmarshalJSON(data []byte) error {
	type plain InferenceRequest
	aux := struct {
		*plain
		Prompt    json.RawMessage `json:"prompt"`
		Mask      json.RawMessage `json:"mask"`
		InitImage json.RawMessage `json:"init_image"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	fields := []struct {
		name string
		raw  json.RawMessage
		dst  *string
	}{
		{"prompt", aux.Prompt, &r.Prompt},
		{"mask", aux.Mask, &r.Mask},
		{"init_image", aux.InitImage, &r.InitImage},
	}
	for _, f := range fields {
		if len(f.raw) == 0 {
			continue
		}
		v, err := falsyString(f.name, f.raw)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}

func falsyString(field string, raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		if !t {
			return "", nil
		}
	case float64:
		if t == 0 {
			return "", nil
		}
	case []any:
		if len(t) == 0 {
			return "", nil
		}
	case map[string]any:
		if len(t) == 0 {
			return "", nil
		}
	}
	return "", &json.UnmarshalTypeError{
		Value: string(raw),
		Type:  reflect.TypeOf(""),
		Field: field,
	}
}

// HasSeed reports whether a deterministic generator should be used.
func (r *InferenceRequest) HasSeed() bool {
	return r.Seed != nil && *r.Seed != 0
}

// Redacted returns the request as loggable fields with image payloads
// reduced to their length.
func (r *InferenceRequest) Redacted() map[string]any {
	fields := map[string]any{
		"prompt":          r.Prompt,
		"negative_prompt": r.NegativePrompt,
		"height":          r.Height,
		"width":           r.Width,
		"steps":           r.Steps,
		"guidance_scale":  r.GuidanceScale,
		"scheduler":       r.Scheduler,
		"mask":            len(r.Mask),
		"init_image":      len(r.InitImage),
	}
	if r.Seed != nil {
		fields["seed"] = *r.Seed
	}
	return fields
}

// InferenceResponse carries exactly one of Message or ImageBase64.
// @Description Inpainting response
type InferenceResponse struct {
	Message     string `json:"message,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

func MessageResponse(msg string) *InferenceResponse {
	return &InferenceResponse{Message: msg}
}

func (r *InferenceResponse) IsMessage() bool {
	return r.Message != ""
}
