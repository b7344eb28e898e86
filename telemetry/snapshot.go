package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// StateVersion is incremented when the state format changes.
const StateVersion = 1

// State holds the final simulation state of a run.
type State struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`
	Tick    int   `json:"tick"` // Ticks completed

	Anemone [3]float64 `json:"anemone"`

	Particles []ParticleState `json:"particles"`
}

// ParticleState holds one particle's state.
type ParticleState struct {
	ID     uint64  `json:"id"`
	Status string  `json:"status"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
}

// SaveState writes a state file to dir and returns its path.
func SaveState(state *State, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("state_%d.json", state.Tick))

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write state: %w", err)
	}

	return path, nil
}

// LoadState reads a state file from disk.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	if state.Version != StateVersion {
		return nil, fmt.Errorf("unsupported state version %d", state.Version)
	}

	return &state, nil
}
