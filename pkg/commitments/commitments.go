// Package commitments manages a directory of per-salt TagIndex databases,
// the on-disk lifecycle (in-progress build, atomic finish, removal) that
// backs the plot engine's commitment state machine.
package commitments

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cuemby/plotengine/pkg/log"
	"github.com/cuemby/plotengine/pkg/tagindex"
	"github.com/cuemby/plotengine/pkg/types"
)

const (
	finishedSuffix   = ".db"
	inProgressSuffix = ".db.inprogress"
)

// Commitments is a directory of TagIndex instances keyed by salt. Every
// salt's TagIndex lives at <baseDir>/<hex(salt)>.db once finished, or
// <hex(salt)>.db.inprogress while a batched build is underway. Finish
// renames the latter to the former, which is what makes a salt durable: a
// crash mid-build leaves only the .inprogress file behind, never something
// that could be mistaken for a complete index.
type Commitments struct {
	baseDir string

	mu   sync.Mutex
	open map[types.Salt]*tagindex.TagIndex
}

// Open prepares the commitments directory under dataDir, creating it if
// necessary. It does not itself enumerate existing salts — call
// OpenExisting for that.
func Open(dataDir string) (*Commitments, error) {
	baseDir := filepath.Join(dataDir, "commitments")
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create commitments directory: %w", err)
	}
	return &Commitments{
		baseDir: baseDir,
		open:    make(map[types.Salt]*tagindex.TagIndex),
	}, nil
}

func (c *Commitments) finishedPath(salt types.Salt) string {
	return filepath.Join(c.baseDir, hex.EncodeToString(salt[:])+finishedSuffix)
}

func (c *Commitments) inProgressPath(salt types.Salt) string {
	return filepath.Join(c.baseDir, hex.EncodeToString(salt[:])+inProgressSuffix)
}

// OpenExisting enumerates the commitments directory and returns every salt
// with a durable (finished) TagIndex. Any *.db.inprogress entry is a crash
// leftover from a build that never finished; it is logged and left in
// place rather than auto-deleted, so an operator can inspect it.
func OpenExisting(dataDir string) ([]types.Salt, error) {
	baseDir := filepath.Join(dataDir, "commitments")
	entries, err := os.ReadDir(baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read commitments directory: %w", err)
	}

	var salts []types.Salt
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, inProgressSuffix):
			log.Warn(fmt.Sprintf("skipping orphaned in-progress commitment: %s", name))
		case strings.HasSuffix(name, finishedSuffix):
			raw := strings.TrimSuffix(name, finishedSuffix)
			decoded, err := hex.DecodeString(raw)
			if err != nil || len(decoded) != len(types.Salt{}) {
				log.Warn(fmt.Sprintf("skipping unrecognized commitments entry: %s", name))
				continue
			}
			var salt types.Salt
			copy(salt[:], decoded)
			salts = append(salts, salt)
		}
	}

	return salts, nil
}

// GetOrCreate returns the TagIndex for salt, opening the durable file if
// one exists, otherwise opening (and implicitly creating) the in-progress
// file. The handle is cached; repeated calls for the same salt return the
// same *tagindex.TagIndex.
func (c *Commitments) GetOrCreate(salt types.Salt) (*tagindex.TagIndex, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.open[salt]; ok {
		return idx, nil
	}

	path := c.finishedPath(salt)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = c.inProgressPath(salt)
	}

	idx, err := tagindex.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag index for salt %x: %w", salt, err)
	}

	c.open[salt] = idx
	return idx, nil
}

// Finish atomically renames the salt's in-progress file to its durable
// name. After Finish returns, the salt survives a crash.
func (c *Commitments) Finish(salt types.Salt) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.open[salt]; ok {
		if err := idx.Close(); err != nil {
			return fmt.Errorf("failed to close in-progress tag index for salt %x: %w", salt, err)
		}
		delete(c.open, salt)
	}

	if err := os.Rename(c.inProgressPath(salt), c.finishedPath(salt)); err != nil {
		return fmt.Errorf("failed to finish commitment for salt %x: %w", salt, err)
	}

	return nil
}

// Remove closes any open handle for salt and deletes both its
// in-progress and finished files, whichever exist.
func (c *Commitments) Remove(salt types.Salt) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx, ok := c.open[salt]; ok {
		if err := idx.Close(); err != nil {
			return fmt.Errorf("failed to close tag index for salt %x: %w", salt, err)
		}
		delete(c.open, salt)
	}

	for _, path := range []string{c.finishedPath(salt), c.inProgressPath(salt)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove commitment file for salt %x: %w", salt, err)
		}
	}

	return nil
}

// Close closes every currently open TagIndex handle.
func (c *Commitments) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for salt, idx := range c.open {
		if err := idx.Close(); err != nil {
			return fmt.Errorf("failed to close tag index for salt %x: %w", salt, err)
		}
		delete(c.open, salt)
	}

	return nil
}
