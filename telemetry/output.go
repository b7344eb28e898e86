package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/anemone/config"
)

// csvFile is an append-only CSV table that writes its header once.
type csvFile struct {
	name          string
	file          *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{name: name, file: f}, nil
}

// write appends records, a slice of csv-tagged structs.
func (c *csvFile) write(records interface{}) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.file); err != nil {
			return fmt.Errorf("writing %s: %w", c.name, err)
		}
		c.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, c.file); err != nil {
		return fmt.Errorf("writing %s: %w", c.name, err)
	}
	return nil
}

func (c *csvFile) close() error {
	if c == nil || c.file == nil {
		return nil
	}
	return c.file.Close()
}

// OutputManager handles structured run output with CSV logging.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir       string
	snapshots *csvFile
	windows   *csvFile
	perf      *csvFile
	positions *csvFile // opened on first position dump
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	var err error
	if om.snapshots, err = createCSV(dir, "snapshots.csv"); err != nil {
		return nil, err
	}
	if om.windows, err = createCSV(dir, "windows.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.perf, err = createCSV(dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}

	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteSnapshot writes a tick snapshot to snapshots.csv and its positions,
// if any, to positions.csv.
func (om *OutputManager) WriteSnapshot(s Snapshot) error {
	if om == nil {
		return nil
	}

	if err := om.snapshots.write([]Snapshot{s}); err != nil {
		return err
	}

	if len(s.Positions) == 0 {
		return nil
	}
	if om.positions == nil {
		f, err := createCSV(om.dir, "positions.csv")
		if err != nil {
			return err
		}
		om.positions = f
	}
	return om.positions.write(s.Positions)
}

// WriteWindow writes a window stats record to windows.csv.
func (om *OutputManager) WriteWindow(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.windows.write([]WindowStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// RunReport is the content of summary.json.
type RunReport struct {
	Seed      int64          `json:"seed"`
	Status    string         `json:"status"`
	Error     string         `json:"error,omitempty"`
	Summary   Summary        `json:"summary"`
	Residence ResidenceStats `json:"residence"`
	Bookmarks []Bookmark     `json:"bookmarks,omitempty"`
}

// WriteSummary saves the run report as JSON.
func (om *OutputManager) WriteSummary(report RunReport) error {
	if om == nil {
		return nil
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "summary.json"), data, 0644); err != nil {
		return fmt.Errorf("writing summary.json: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes all output files and returns the first error.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*csvFile{om.snapshots, om.windows, om.perf, om.positions} {
		if err := f.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
