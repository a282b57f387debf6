package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-versions/internal/logger"
	"github.com/jonathan/resume-versions/internal/types"
)

const (
	fileExt            = ".json"
	defaultReadWorkers = 8
	filePerm           = 0o644
	dirPerm            = 0o755
)

// FileStore keeps one JSON file per company in a directory. Writes go to a temp file in the
// same directory and are renamed into place, so a reader sees either the old or the new record.
type FileStore struct {
	dir         string
	log         *logger.Logger
	readWorkers int
}

// NewFileStore creates a store rooted at dir. The directory is created on first write.
func NewFileStore(dir string, log *logger.Logger) *FileStore {
	if log == nil {
		log = logger.NewNop()
	}
	return &FileStore{
		dir:         dir,
		log:         log.With("component", "file_store"),
		readWorkers: defaultReadWorkers,
	}
}

// Dir returns the root directory
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(companyID string) string {
	return filepath.Join(s.dir, companyID+fileExt)
}

// Put atomically replaces the record for companyID
func (s *FileStore) Put(ctx context.Context, companyID string, history *types.CompanyVersionHistory) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "put", Key: companyID, Message: "context done", Cause: err}
	}

	data, err := EncodeHistory(companyID, history)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return &StorageError{Op: "put", Key: companyID, Message: "failed to create data directory", Cause: err}
	}

	tmp, err := os.CreateTemp(s.dir, companyID+".*.tmp")
	if err != nil {
		return &StorageError{Op: "put", Key: companyID, Message: "failed to create temp file", Cause: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &StorageError{Op: "put", Key: companyID, Message: "failed to write temp file", Cause: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &StorageError{Op: "put", Key: companyID, Message: "failed to sync temp file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &StorageError{Op: "put", Key: companyID, Message: "failed to close temp file", Cause: err}
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return &StorageError{Op: "put", Key: companyID, Message: "failed to set file mode", Cause: err}
	}
	if err := os.Rename(tmpName, s.path(companyID)); err != nil {
		return &StorageError{Op: "put", Key: companyID, Message: "failed to replace record", Cause: err}
	}
	committed = true
	return nil
}

// Get reads the record for companyID
func (s *FileStore) Get(ctx context.Context, companyID string) (*types.CompanyVersionHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "get", Key: companyID, Message: "context done", Cause: err}
	}
	if !ValidKey(companyID) {
		return nil, nil
	}

	data, err := os.ReadFile(s.path(companyID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &StorageError{Op: "get", Key: companyID, Message: "failed to read record", Cause: err}
	}
	return DecodeHistory("get", companyID, data)
}

// Delete removes the record file
func (s *FileStore) Delete(ctx context.Context, companyID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, &StorageError{Op: "delete", Key: companyID, Message: "context done", Cause: err}
	}
	if !ValidKey(companyID) {
		return false, nil
	}

	if err := os.Remove(s.path(companyID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &StorageError{Op: "delete", Key: companyID, Message: "failed to remove record", Cause: err}
	}
	return true, nil
}

// ListAll reads every record file with bounded parallelism. Corrupt records are skipped; any
// other read failure, cancellation included, fails the whole listing.
func (s *FileStore) ListAll(ctx context.Context) ([]*types.CompanyVersionHistory, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*types.CompanyVersionHistory{}, nil
		}
		return nil, &StorageError{Op: "list", Message: "failed to read data directory", Cause: err}
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}

	results := make([]*types.CompanyVersionHistory, len(keys))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.readWorkers)
	for i, key := range keys {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			history, err := s.Get(gCtx, key)
			if err != nil {
				if !IsCorrupt(err) {
					return err
				}
				s.log.Warn("skipping corrupt history record", "key", key, "error", err)
				return nil
			}
			results[i] = history
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &StorageError{Op: "list", Message: "listing interrupted", Cause: err}
	}

	histories := make([]*types.CompanyVersionHistory, 0, len(results))
	for _, h := range results {
		if h != nil {
			histories = append(histories, h)
		}
	}
	return histories, nil
}
