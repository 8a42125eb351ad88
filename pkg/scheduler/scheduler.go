package scheduler

import (
	"errors"
	"fmt"
)

// Kind is one of the noise schedulers the inpainting pipeline can run with.
type Kind int

const (
	PNDM Kind = iota
	KLMS
	DDIM
	KEuler
	KEulerAncestral
	DPMSolverMultistep
)

// Default is the scheduler used when a request does not name one.
const Default = KEulerAncestral

var ErrUnknownScheduler = errors.New("unknown scheduler")

// LookupError is returned by Parse for names outside the known set.
type LookupError struct {
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownScheduler.Error(), e.Name)
}

func (e *LookupError) Unwrap() error {
	return ErrUnknownScheduler
}

// Kinds returns every scheduler in declaration order.
func Kinds() []Kind {
	return []Kind{PNDM, KLMS, DDIM, KEuler, KEulerAncestral, DPMSolverMultistep}
}

// Parse maps a request-level scheduler name to its Kind. Names are case
// sensitive and there is no fallback: unknown names return a *LookupError.
func Parse(name string) (Kind, error) {
	switch name {
	case "PNDM":
		return PNDM, nil
	case "KLMS":
		return KLMS, nil
	case "DDIM":
		return DDIM, nil
	case "K_EULER":
		return KEuler, nil
	case "K_EULER_ANCESTRAL":
		return KEulerAncestral, nil
	case "DPMSolverMultistep":
		return DPMSolverMultistep, nil
	}
	return 0, &LookupError{Name: name}
}

// String returns the request-level name of the scheduler.
func (k Kind) String() string {
	switch k {
	case PNDM:
		return "PNDM"
	case KLMS:
		return "KLMS"
	case DDIM:
		return "DDIM"
	case KEuler:
		return "K_EULER"
	case KEulerAncestral:
		return "K_EULER_ANCESTRAL"
	case DPMSolverMultistep:
		return "DPMSolverMultistep"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Class returns the sampler class name the diffusion runtime instantiates
// for this scheduler.
func (k Kind) Class() string {
	switch k {
	case PNDM:
		return "PNDMScheduler"
	case KLMS:
		return "LMSDiscreteScheduler"
	case DDIM:
		return "DDIMScheduler"
	case KEuler:
		return "EulerDiscreteScheduler"
	case KEulerAncestral:
		return "EulerAncestralDiscreteScheduler"
	case DPMSolverMultistep:
		return "DPMSolverMultistepScheduler"
	}
	return ""
}

// FromClass is the inverse of Class, used to report which scheduler the
// runtime currently has attached.
func FromClass(class string) (Kind, bool) {
	for _, k := range Kinds() {
		if k.Class() == class {
			return k, true
		}
	}
	return 0, false
}

func (k Kind) MarshalText() ([]byte, error) {
	if k.Class() == "" {
		return nil, fmt.Errorf("invalid scheduler kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
