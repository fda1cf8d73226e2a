// Package transaction records install runs and serializes them across
// processes with a lock file.
package transaction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// State is the recorded result for one package entry.
type State string

const (
	StatePending          State = "pending"
	StateInstalled        State = "installed"
	StateDownloadFailed   State = "download_failed"
	StateChecksumMismatch State = "checksum_mismatch"
	StateExtractionFailed State = "extraction_failed"
)

// Operation is the kind of run being recorded.
type Operation string

const (
	OperationInstall   Operation = "install"
	OperationRemoveAll Operation = "remove-all"
)

const journalFileName = "last-run.json"

// Journal is the persisted record of the most recent run.
type Journal struct {
	Version    int            `json:"version"`
	ID         string         `json:"id"`
	Operation  Operation      `json:"operation"`
	InstallDir string         `json:"install_dir"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitzero"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	Packages   []PackageEntry `json:"packages,omitempty"`
}

// PackageEntry is the record for one selected package. Entries follow the
// selection order, so a package selected twice appears twice.
type PackageEntry struct {
	ID        string   `json:"id"`
	State     State    `json:"state"`
	Files     []string `json:"files,omitempty"`
	LastError string   `json:"last_error,omitempty"`
}

// NewInstall creates a journal for installing ids in order.
func NewInstall(installDir string, ids []string, started time.Time) *Journal {
	entries := make([]PackageEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, PackageEntry{ID: id, State: StatePending})
	}

	return &Journal{
		Version:    1,
		ID:         uuid.New().String(),
		Operation:  OperationInstall,
		InstallDir: installDir,
		StartedAt:  started.UTC(),
		Packages:   entries,
	}
}

// NewRemoveAll creates a journal for removing the install directory.
func NewRemoveAll(installDir string, started time.Time) *Journal {
	return &Journal{
		Version:    1,
		ID:         uuid.New().String(),
		Operation:  OperationRemoveAll,
		InstallDir: installDir,
		StartedAt:  started.UTC(),
	}
}

// UpdatePackage records the result of the entry at index.
func (j *Journal) UpdatePackage(index int, state State, files []string, err error) {
	if index < 0 || index >= len(j.Packages) {
		return
	}
	p := &j.Packages[index]
	p.State = state
	p.Files = files
	if err != nil {
		p.LastError = err.Error()
	} else {
		p.LastError = ""
	}
}

// Finish stamps the end of the run.
func (j *Journal) Finish(finished time.Time, success bool, err error) {
	j.FinishedAt = finished.UTC()
	j.Success = success
	if err != nil {
		j.Error = err.Error()
	}
}

// InstalledIDs returns the distinct package IDs installed by this run.
func (j *Journal) InstalledIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, p := range j.Packages {
		if p.State == StateInstalled {
			ids[p.ID] = true
		}
	}
	return ids
}

// Save writes the journal to dir atomically, replacing the previous one.
// Uses write-then-rename pattern for atomicity.
func (j *Journal) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	finalPath := filepath.Join(dir, journalFileName)
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temporary journal file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename journal file: %w", err)
	}

	return nil
}

// LoadLast reads the journal saved in dir. A missing journal is reported
// with an error satisfying errors.Is(err, fs.ErrNotExist).
func LoadLast(dir string) (*Journal, error) {
	data, err := os.ReadFile(filepath.Join(dir, journalFileName))
	if err != nil {
		return nil, fmt.Errorf("read journal file: %w", err)
	}

	var j Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("unmarshal journal: %w", err)
	}

	return &j, nil
}
