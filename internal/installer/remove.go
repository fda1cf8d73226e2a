package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HarveyDevel/fonts-installer/internal/transaction"
)

// ErrNothingToRemove is returned by RemoveAll when the install directory
// does not exist.
var ErrNothingToRemove = errors.New("install directory does not exist")

// RemoveAll deletes the install directory and refreshes the font cache of
// its parent. Unlike an install run, a cache refresh failure is returned.
func (p *Pipeline) RemoveAll(ctx context.Context) (err error) {
	if !p.mu.TryLock() {
		return ErrRunInProgress
	}
	defer p.mu.Unlock()

	if _, err := os.Stat(p.installDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNothingToRemove, p.installDir)
		}
		return fmt.Errorf("stat install directory: %w", err)
	}

	if p.stateDir != "" {
		lock, lockErr := transaction.AcquireLock(ctx, p.stateDir)
		if lockErr != nil {
			return fmt.Errorf("acquire run lock: %w", lockErr)
		}
		defer func() { _ = lock.Release() }()

		journal := transaction.NewRemoveAll(p.installDir, p.clock.Now())
		defer func() {
			journal.Finish(p.clock.Now(), err == nil, err)
			if serr := journal.Save(p.stateDir); serr != nil {
				p.logger.Warn("failed to save run journal", "dir", p.stateDir, "error", serr)
			}
		}()
	}

	p.logger.Info("removing install directory", "dir", p.installDir)
	if err := os.RemoveAll(p.installDir); err != nil {
		return fmt.Errorf("remove install directory: %w", err)
	}

	parent := filepath.Dir(p.installDir)
	if _, err := p.cache.Refresh(ctx, parent); err != nil {
		p.logger.Error("font cache refresh failed", "dir", parent, "error", err)
		return fmt.Errorf("refresh font cache: %w", err)
	}

	return nil
}
