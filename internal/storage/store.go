// Package storage records headless runs as a metadata file plus a CSV trace.
// Traces are output for plotting; nothing here is ever loaded back into a
// simulator.
package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"

	"github.com/san-kum/cartpole/internal/config"
	"github.com/san-kum/cartpole/internal/dynamo"
	"github.com/san-kum/cartpole/internal/sim"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

var traceHeader = []string{"tick", "angle", "angular_velocity", "force", "cart_x", "bob_x", "bob_y"}

type Store struct {
	baseDir string
}

// New expands a leading ~ in baseDir.
func New(baseDir string) (*Store, error) {
	dir, err := homedir.Expand(baseDir)
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", baseDir, err)
	}
	return &Store{baseDir: dir}, nil
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Preset       string             `json:"preset,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
	Dt           float64            `json:"dt"`
	Ticks        int                `json:"ticks"`
	PGain        float64            `json:"p_gain"`
	DGain        float64            `json:"d_gain"`
	InitialAngle float64            `json:"initial_angle"`
	Iterations   int                `json:"solver_iterations"`
	WorldWidth   float64            `json:"world_width"`
	WorldHeight  float64            `json:"world_height"`
	FinalAngle   float64            `json:"final_angle"`
	Metrics      map[string]float64 `json:"metrics"`
}

type TraceRow struct {
	Tick            uint64  `json:"tick"`
	Angle           float64 `json:"angle"`
	AngularVelocity float64 `json:"angular_velocity"`
	Force           float64 `json:"force"`
	CartX           float64 `json:"cart_x"`
	BobX            float64 `json:"bob_x"`
	BobY            float64 `json:"bob_y"`
}

func TraceFromFrames(frames []dynamo.Frame) []TraceRow {
	rows := make([]TraceRow, len(frames))
	for i, f := range frames {
		rows[i] = TraceRow{
			Tick:            f.Tick,
			Angle:           f.Angle,
			AngularVelocity: f.AngularVelocity,
			Force:           f.Force,
			CartX:           f.Cart.Position.X,
			BobX:            f.Bob.Position.X,
			BobY:            f.Bob.Position.Y,
		}
	}
	return rows
}

// Save writes a recorded run under a fresh id and returns that id.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Preset:       cfg.Preset,
		Timestamp:    time.Now(),
		Dt:           cfg.Dt,
		Ticks:        result.TicksTaken,
		PGain:        result.Final.PGain,
		DGain:        result.Final.DGain,
		InitialAngle: cfg.InitialAngle,
		Iterations:   cfg.SolverIterations,
		WorldWidth:   cfg.World.Width,
		WorldHeight:  cfg.World.Height,
		FinalAngle:   result.Final.Angle,
		Metrics:      result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteTraceCSV(csvFile, TraceFromFrames(result.Frames)); err != nil {
		return "", err
	}
	return runID, nil
}

func WriteTraceCSV(out io.Writer, rows []TraceRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(traceHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatUint(r.Tick, 10),
			strconv.FormatFloat(r.Angle, 'g', -1, 64),
			strconv.FormatFloat(r.AngularVelocity, 'g', -1, 64),
			strconv.FormatFloat(r.Force, 'g', -1, 64),
			strconv.FormatFloat(r.CartX, 'g', -1, 64),
			strconv.FormatFloat(r.BobX, 'g', -1, 64),
			strconv.FormatFloat(r.BobY, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// runDir resolves a run id to its directory. Ids are uuids, which keeps
// them inside the data dir.
func (s *Store) runDir(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) ([]TraceRow, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, traceFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(traceHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s trace: %w", runID, err)
	}
	if len(records) < 2 {
		return []TraceRow{}, nil
	}

	rows := make([]TraceRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		tick, err := strconv.ParseUint(rec[0], 10, 64)
		if err != nil {
			continue
		}
		var vals [6]float64
		ok := true
		for j := range vals {
			v, err := strconv.ParseFloat(rec[j+1], 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			continue
		}
		rows = append(rows, TraceRow{
			Tick:            tick,
			Angle:           vals[0],
			AngularVelocity: vals[1],
			Force:           vals[2],
			CartX:           vals[3],
			BobX:            vals[4],
			BobY:            vals[5],
		})
	}
	return rows, nil
}

type exportData struct {
	Run   RunMetadata `json:"run"`
	Trace []TraceRow  `json:"trace"`
}

// ExportJSON writes a run's metadata and trace as one JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, trace []TraceRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportData{Run: *meta, Trace: trace})
}
