// Package csvstore provides row storage over a single CSV file with a fixed
// header, serialized by an advisory file lock so that goroutines and separate
// processes sharing the file never interleave their reads and writes.
package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/renameio/v2"
)

const (
	// DefaultIDColumn is the primary key column unless WithIDColumn is given.
	DefaultIDColumn = "id"

	lockSuffix = ".lock"
	filePerm   = 0o644
	dirPerm    = 0o755
)

// Row maps column names to values. Rows read from a store carry every
// declared column; keys outside the declared columns are ignored on write.
type Row map[string]string

// Store is a CSV file with a fixed set of columns, one of which is the primary key.
// Every operation holds the file lock from start to finish and re-reads the file;
// nothing is cached in memory.
//
// Update and Delete scan and rewrite the whole file, which is fine for the
// hundreds to low thousands of rows this store is meant for.
type Store struct {
	path     string
	columns  []string
	idColumn string
	lock     *fileLock
}

type options struct {
	idColumn       string
	lockRetryDelay time.Duration
}

// Option configures a Store.
type Option func(*options)

// WithIDColumn sets the primary key column.
func WithIDColumn(name string) Option {
	return func(o *options) {
		o.idColumn = name
	}
}

// WithLockRetryDelay sets how often a contended OS lock is polled.
func WithLockRetryDelay(d time.Duration) Option {
	return func(o *options) {
		o.lockRetryDelay = d
	}
}

// New opens the store at path, creating the directory and a header-only file
// if the file does not exist yet.
func New(path string, columns []string, opts ...Option) (*Store, error) {
	o := options{
		idColumn:       DefaultIDColumn,
		lockRetryDelay: defaultLockRetryDelay,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(columns) == 0 {
		return nil, errors.New("csvstore: no columns")
	}
	if !slices.Contains(columns, o.idColumn) {
		return nil, fmt.Errorf("csvstore: id column %q is not one of %v", o.idColumn, columns)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("os.MkdirAll(%s) > %w", filepath.Dir(path), err)
	}

	s := &Store{
		path:     path,
		columns:  slices.Clone(columns),
		idColumn: o.idColumn,
		lock:     newFileLock(path+lockSuffix, o.lockRetryDelay),
	}
	if err := s.ensureFile(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the data file path.
func (s *Store) Path() string {
	return s.path
}

// Columns returns the declared columns in file order.
func (s *Store) Columns() []string {
	return slices.Clone(s.columns)
}

// IDColumn returns the primary key column.
func (s *Store) IDColumn() string {
	return s.idColumn
}

func (s *Store) ensureFile(ctx context.Context) error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("os.Stat(%s) > %w", s.path, err)
	}

	return s.withLock(ctx, func() error {
		// another process may have created it while we waited
		if _, err := os.Stat(s.path); err == nil {
			return nil
		}
		return s.writeAllLocked(nil)
	})
}

func (s *Store) withLock(ctx context.Context, fn func() error) error {
	release, err := s.lock.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// ReadAll returns every row in file order.
// A data file removed after construction reads as empty.
func (s *Store) ReadAll(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := s.withLock(ctx, func() error {
		var err error
		rows, err = s.readAllLocked()
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Append writes row after the last row. Primary keys are not checked for collisions.
func (s *Store) Append(ctx context.Context, row Row) error {
	return s.withLock(ctx, func() error {
		return s.appendLocked(row)
	})
}

// Get returns the first row whose primary key is id.
func (s *Store) Get(ctx context.Context, id string) (Row, bool, error) {
	var (
		found Row
		ok    bool
	)
	err := s.withLock(ctx, func() error {
		rows, err := s.readAllLocked()
		if err != nil {
			return err
		}
		idx := s.indexOf(rows, id)
		if idx < 0 {
			return nil
		}
		found, ok = rows[idx], true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return found, ok, nil
}

// Update replaces the first row whose primary key is id, keeping its position.
// When no row matches, the file is not touched and false is returned.
func (s *Store) Update(ctx context.Context, id string, row Row) (bool, error) {
	var replaced bool
	err := s.withLock(ctx, func() error {
		rows, err := s.readAllLocked()
		if err != nil {
			return err
		}
		idx := s.indexOf(rows, id)
		if idx < 0 {
			return nil
		}
		rows[idx] = row
		if err := s.writeAllLocked(rows); err != nil {
			return err
		}
		replaced = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return replaced, nil
}

// Delete removes every row whose primary key is id.
// When no row matches, the file is not touched and false is returned.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.withLock(ctx, func() error {
		rows, err := s.readAllLocked()
		if err != nil {
			return err
		}
		kept := slices.DeleteFunc(slices.Clone(rows), func(r Row) bool {
			return r[s.idColumn] == id
		})
		if len(kept) == len(rows) {
			return nil
		}
		if err := s.writeAllLocked(kept); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// ReplaceAll rewrites the file with exactly rows.
func (s *Store) ReplaceAll(ctx context.Context, rows []Row) error {
	return s.withLock(ctx, func() error {
		return s.writeAllLocked(rows)
	})
}

func (s *Store) indexOf(rows []Row, id string) int {
	return slices.IndexFunc(rows, func(r Row) bool {
		return r[s.idColumn] == id
	})
}

func (s *Store) readAllLocked() ([]Row, error) {
	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s) > %w", s.path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	rows, err := decodeRows(file, s.columns)
	if err != nil {
		return nil, fmt.Errorf("decodeRows(%s) > %w", s.path, err)
	}
	return rows, nil
}

func (s *Store) appendLocked(row Row) error {
	info, err := os.Stat(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("os.Stat(%s) > %w", s.path, err)
	}
	needsHeader := err != nil || info.Size() == 0

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if needsHeader {
		if err := w.Write(s.columns); err != nil {
			return fmt.Errorf("csv.Write(header) > %w", err)
		}
	}
	if err := w.Write(s.record(row)); err != nil {
		return fmt.Errorf("csv.Write > %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv.Flush > %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, filePerm)
	if err != nil {
		return fmt.Errorf("os.OpenFile(%s) > %w", s.path, err)
	}
	if _, err := file.Write(buf.Bytes()); err != nil {
		_ = file.Close()
		return fmt.Errorf("file.Write(%s) > %w", s.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("file.Close(%s) > %w", s.path, err)
	}
	return nil
}

// writeAllLocked replaces the file through a temporary sibling and a rename,
// so readers in other processes never observe a half-written table.
func (s *Store) writeAllLocked(rows []Row) error {
	pending, err := renameio.NewPendingFile(s.path,
		renameio.WithTempDir(filepath.Dir(s.path)),
		renameio.WithPermissions(filePerm),
		renameio.WithExistingPermissions(),
	)
	if err != nil {
		return fmt.Errorf("renameio.NewPendingFile(%s) > %w", s.path, err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if err := encodeRows(pending, s.columns, rows, s.record); err != nil {
		return fmt.Errorf("encodeRows(%s) > %w", s.path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("CloseAtomicallyReplace(%s) > %w", s.path, err)
	}
	return nil
}

func (s *Store) record(row Row) []string {
	record := make([]string, len(s.columns))
	for i, column := range s.columns {
		record[i] = row[column]
	}
	return record
}

// decodeRows maps records to columns by position. The first line is the
// header and is skipped; short records read "" for the trailing columns and
// extra fields are dropped.
func decodeRows(r io.Reader, columns []string) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows := []Row{}
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if header {
			header = false
			continue
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			if i < len(record) {
				row[column] = record[i]
			} else {
				row[column] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func encodeRows(w io.Writer, columns []string, rows []Row, record func(Row) []string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(record(row)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
