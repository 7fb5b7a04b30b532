// Package file provides file-based persistence for processes, one JSON
// document per process.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/leanflow/leanflow/pkg/models"
	"github.com/leanflow/leanflow/pkg/persistence"
)

const processDirPerm = 0o755

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a file-backed store rooted at the given directory.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	if err := os.MkdirAll(filepath.Join(cleanRoot, "processes"), processDirPerm); err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	return &Persistence{root: cleanRoot}, nil
}

func (fp *Persistence) processPath(id string) string {
	return filepath.Join(fp.root, "processes", id+".json")
}

// Processes loads every stored process, sorted by creation time, newest first.
func (fp *Persistence) Processes(ctx context.Context) ([]*models.Process, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	root := os.DirFS(filepath.Join(fp.root, "processes"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list process files: %w", err)
	}

	processes := make([]*models.Process, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		process, err := fp.readProcess(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load process %s: %w", id, err)
		}

		processes = append(processes, process)
	}

	sort.Slice(processes, func(i, j int) bool {
		return processes[i].CreatedAt.After(processes[j].CreatedAt)
	})

	return processes, nil
}

// SaveProcess writes the process document, replacing any previous version.
// The write goes through a temporary file so readers never see a partial
// document.
func (fp *Persistence) SaveProcess(_ context.Context, process *models.Process) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	data, err := json.MarshalIndent(process, "", "  ")
	if err != nil {
		return persistence.NewProcessError("Save", process.ID, err)
	}

	target := fp.processPath(process.ID)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return persistence.NewProcessError("Save", process.ID, err)
	}

	if err := os.Rename(tmp, target); err != nil {
		return persistence.NewProcessError("Save", process.ID, err)
	}

	return nil
}

// ProcessByID retrieves one process, or persistence.ErrProcessNotFound.
func (fp *Persistence) ProcessByID(_ context.Context, id string) (*models.Process, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.readProcess(id)
}

func (fp *Persistence) readProcess(id string) (*models.Process, error) {
	data, err := os.ReadFile(fp.processPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewProcessError("GetByID", id, persistence.ErrProcessNotFound)
		}

		return nil, persistence.NewProcessError("GetByID", id, err)
	}

	var process models.Process
	if err := json.Unmarshal(data, &process); err != nil {
		return nil, persistence.NewProcessError("GetByID", id, err)
	}

	return &process, nil
}

// DeleteProcess removes a stored process, or persistence.ErrProcessNotFound.
func (fp *Persistence) DeleteProcess(_ context.Context, id string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	err := os.Remove(fp.processPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewProcessError("Delete", id, persistence.ErrProcessNotFound)
	}

	if err != nil {
		return persistence.NewProcessError("Delete", id, err)
	}

	return nil
}

// HealthCheck verifies the data directory is still reachable.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}
