package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is wrapped by every *ConfigError.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrArithmeticFault is wrapped by every *ArithmeticFault.
	ErrArithmeticFault = errors.New("arithmetic fault")
	// ErrAlreadyCompleted is returned by Run on a clock that has finished.
	ErrAlreadyCompleted = errors.New("simulation already completed")
	// ErrRunning is returned by Run while another Run is in progress.
	ErrRunning = errors.New("simulation already running")
)

// ConfigError reports one invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// ArithmeticFault reports a NaN or infinite value produced during a tick.
type ArithmeticFault struct {
	Tick       int
	ParticleID uint64
	Phase      string
	Err        error
}

func (e *ArithmeticFault) Error() string {
	return fmt.Sprintf("%v at tick %d (%s, particle %d): %v", ErrArithmeticFault, e.Tick, e.Phase, e.ParticleID, e.Err)
}

func (e *ArithmeticFault) Unwrap() []error {
	return []error{ErrArithmeticFault, e.Err}
}
