package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/json-iterator/go"

	"github.com/labcitrus/avagen-runner/pkg/core"
)

// IndexFile is the index file name inside the report directory.
const IndexFile = "report.json"

// RunsDir is the subdirectory holding run detail files.
const RunsDir = "runs"

// Writer records runs into a report directory. It is safe for concurrent
// use; every write replaces files atomically.
type Writer struct {
	mu        sync.Mutex
	outputDir string
	index     *Index
}

// NewWriter opens outputDir, loading an existing index when present.
func NewWriter(outputDir string) (*Writer, error) {
	index, err := LoadIndex(outputDir)
	if err != nil {
		return nil, err
	}
	return &Writer{outputDir: outputDir, index: index}, nil
}

// OutputDir returns the report directory.
func (w *Writer) OutputDir() string { return w.outputDir }

// Record writes the detail file for result, appends it to the index and
// returns the run report and the detail file path.
func (w *Writer) Record(result *core.RunResult) (*Run, string, error) {
	if result == nil {
		return nil, "", fmt.Errorf("nil run result")
	}
	run := FromResult(result)
	rel := filepath.Join(RunsDir, "run-"+run.ID+".json")
	path := filepath.Join(w.outputDir, rel)

	if err := atomicWriteJSON(path, run); err != nil {
		return nil, "", fmt.Errorf("failed to write run report: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.index.Runs = append(w.index.Runs, run.Entry(filepath.ToSlash(rel)))
	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	if err := atomicWriteJSON(filepath.Join(w.outputDir, IndexFile), w.index); err != nil {
		return nil, "", fmt.Errorf("failed to write report index: %w", err)
	}
	return run, path, nil
}

// GetIndex returns a copy of the current index.
func (w *Writer) GetIndex() Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := *w.index
	cp.Runs = append([]RunEntry(nil), w.index.Runs...)
	return cp
}

// LoadIndex reads the index in dir. A missing index yields an empty one.
func LoadIndex(dir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return &Index{Version: Version}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report index: %w", err)
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse report index: %w", err)
	}
	if index.Version == "" {
		index.Version = Version
	}
	return &index, nil
}

// LoadRun reads a run detail file.
func LoadRun(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run report: %w", err)
	}
	return &run, nil
}
