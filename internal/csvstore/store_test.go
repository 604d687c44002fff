package csvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = []string{"id", "name", "note"}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "data", "rows.csv"), testColumns)
	require.NoError(t, err)
	return store
}

func row(id, name, note string) Row {
	return Row{"id": id, "name": name, "note": note}
}

func seedRows(t *testing.T, store *Store, rows ...Row) {
	t.Helper()
	for _, r := range rows {
		require.NoError(t, store.Append(context.Background(), r))
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		columns     []string
		opts        []Option
		wantErr     bool
		wantContent string
	}{
		{
			name:        "creates directory and header only file",
			columns:     testColumns,
			wantContent: "id,name,note\n",
		},
		{
			name:        "custom id column",
			columns:     []string{"key", "value"},
			opts:        []Option{WithIDColumn("key")},
			wantContent: "key,value\n",
		},
		{
			name:    "id column must be declared",
			columns: []string{"name"},
			wantErr: true,
		},
		{
			name:    "no columns",
			columns: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "dir", "table.csv")
			store, err := New(path, tt.columns, tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, path, store.Path())
			assert.Equal(t, tt.columns, store.Columns())

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantContent, string(content))
		})
	}
}

func TestNew_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	existing := "id,name,note\n1,a,b\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	store, err := New(path, testColumns)
	require.NoError(t, err)

	rows, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Row{row("1", "a", "b")}, rows)
}

func TestStore_AppendThenReadAll(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
	}{
		{
			name: "no rows",
			rows: []Row{},
		},
		{
			name: "rows come back in append order",
			rows: []Row{row("1", "first", ""), row("2", "second", "x"), row("3", "third", "y")},
		},
		{
			name: "values needing quotes",
			rows: []Row{
				row("1", "a, b", "line one\nline two"),
				row("2", `say "bonjour"`, "你好"),
				row("3", "", ""),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			seedRows(t, store, tt.rows...)

			got, err := store.ReadAll(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.rows, got)
		})
	}
}

func TestStore_AppendFillsMissingColumns(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Append(context.Background(), Row{"id": "1", "unknown": "ignored"}))

	got, err := store.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Row{row("1", "", "")}, got)
}

func TestStore_Get(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		want   Row
		wantOK bool
	}{
		{
			name:   "existing id",
			id:     "2",
			want:   row("2", "b", ""),
			wantOK: true,
		},
		{
			name:   "first match wins for duplicated ids",
			id:     "dup",
			want:   row("dup", "first", ""),
			wantOK: true,
		},
		{
			name:   "missing id",
			id:     "404",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			seedRows(t, store,
				row("1", "a", ""),
				row("2", "b", ""),
				row("dup", "first", ""),
				row("dup", "second", ""),
			)

			got, ok, err := store.Get(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_Update(t *testing.T) {
	initial := []Row{row("1", "a", ""), row("2", "b", ""), row("3", "c", "")}

	tests := []struct {
		name     string
		id       string
		newRow   Row
		wantOK   bool
		wantRows []Row
	}{
		{
			name:     "replaces in place",
			id:       "2",
			newRow:   row("2", "B", "updated"),
			wantOK:   true,
			wantRows: []Row{row("1", "a", ""), row("2", "B", "updated"), row("3", "c", "")},
		},
		{
			name:     "first row",
			id:       "1",
			newRow:   row("1", "A", ""),
			wantOK:   true,
			wantRows: []Row{row("1", "A", ""), row("2", "b", ""), row("3", "c", "")},
		},
		{
			name:     "missing id",
			id:       "404",
			newRow:   row("404", "x", ""),
			wantOK:   false,
			wantRows: initial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t)
			seedRows(t, store, initial...)

			ok, err := store.Update(ctx, tt.id, tt.newRow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)

			got, err := store.ReadAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, got)

			if tt.wantOK {
				updated, found, err := store.Get(ctx, tt.id)
				require.NoError(t, err)
				assert.True(t, found)
				assert.Equal(t, tt.newRow, updated)
			}
		})
	}
}

func TestStore_MissingIDLeavesFileUntouched(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedRows(t, store, row("1", "a", "x,y"), row("2", "b", "\"q\""))

	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	beforeInfo, err := os.Stat(store.Path())
	require.NoError(t, err)

	ok, err := store.Update(ctx, "missing", row("missing", "", ""))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Delete(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	afterInfo, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, os.SameFile(beforeInfo, afterInfo), "the file must not be replaced")
}

func TestStore_Delete(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		wantOK   bool
		wantRows []Row
	}{
		{
			name:     "removes one row",
			id:       "2",
			wantOK:   true,
			wantRows: []Row{row("1", "a", ""), row("dup", "x", ""), row("3", "c", ""), row("dup", "y", "")},
		},
		{
			name:     "removes every row with the id",
			id:       "dup",
			wantOK:   true,
			wantRows: []Row{row("1", "a", ""), row("2", "b", ""), row("3", "c", "")},
		},
		{
			name: "missing id",
			id:   "404",
			wantRows: []Row{
				row("1", "a", ""), row("2", "b", ""), row("dup", "x", ""), row("3", "c", ""), row("dup", "y", ""),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t)
			seedRows(t, store,
				row("1", "a", ""), row("2", "b", ""), row("dup", "x", ""), row("3", "c", ""), row("dup", "y", ""),
			)

			ok, err := store.Delete(ctx, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)

			got, err := store.ReadAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, got)
		})
	}
}

func TestStore_ReplaceAll(t *testing.T) {
	tests := []struct {
		name  string
		prior []Row
		rows  []Row
	}{
		{
			name:  "discards prior rows",
			prior: []Row{row("1", "a", ""), row("2", "b", "")},
			rows:  []Row{row("9", "z", "imported")},
		},
		{
			name:  "empty table",
			prior: nil,
			rows:  []Row{row("1", "a", ""), row("2", "b", "")},
		},
		{
			name:  "replace with nothing",
			prior: []Row{row("1", "a", "")},
			rows:  []Row{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := newTestStore(t)
			seedRows(t, store, tt.prior...)

			require.NoError(t, store.ReplaceAll(ctx, tt.rows))

			got, err := store.ReadAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.rows, got)

			content, err := os.ReadFile(store.Path())
			require.NoError(t, err)
			assert.Contains(t, string(content), "id,name,note\n")
		})
	}
}

func TestStore_FileRemovedAfterConstruction(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedRows(t, store, row("1", "a", ""))
	require.NoError(t, os.Remove(store.Path()))

	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, ok, err := store.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Append(ctx, row("2", "b", "")))
	rows, err = store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Row{row("2", "b", "")}, rows)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rows.csv")

	// two instances on one path stand in for two processes
	first, err := New(path, testColumns)
	require.NoError(t, err)
	second, err := New(path, testColumns, WithLockRetryDelay(time.Millisecond))
	require.NoError(t, err)

	const writers = 16
	const perWriter = 20

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			store := first
			if w%2 == 1 {
				store = second
			}
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("%d-%d", w, i)
				assert.NoError(t, store.Append(ctx, row(id, "name "+id, "a \"quoted\", multi\nline note")))
			}
		}(w)
	}
	wg.Wait()

	rows, err := first.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, writers*perWriter)

	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		assert.False(t, seen[r["id"]], "duplicated row %s", r["id"])
		seen[r["id"]] = true
		assert.Equal(t, "name "+r["id"], r["name"])
		assert.Equal(t, "a \"quoted\", multi\nline note", r["note"])
	}
}

func TestStore_ConcurrentUpdatesAndDeletes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	const n = 30
	for i := 0; i < n; i++ {
		seedRows(t, store, row(fmt.Sprint(i), "v0", ""))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprint(i)
			if i%3 == 0 {
				ok, err := store.Delete(ctx, id)
				assert.NoError(t, err)
				assert.True(t, ok)
				return
			}
			ok, err := store.Update(ctx, id, row(id, "v1", ""))
			assert.NoError(t, err)
			assert.True(t, ok)
		}(i)
	}
	wg.Wait()

	rows, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, n-n/3)
	prev := -1
	for _, r := range rows {
		assert.Equal(t, "v1", r["name"])
		var id int
		_, err := fmt.Sscan(r["id"], &id)
		require.NoError(t, err)
		assert.Greater(t, id, prev, "relative order must be preserved")
		prev = id
	}
}

func TestStore_CancelledWhileWaitingForLock(t *testing.T) {
	store := newTestStore(t)

	release, err := store.lock.acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = store.ReadAll(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStore_IndependentFilesDoNotBlock(t *testing.T) {
	dir := t.TempDir()
	sentences, err := New(filepath.Join(dir, "sentences.csv"), testColumns)
	require.NoError(t, err)
	attempts, err := New(filepath.Join(dir, "attempts.csv"), testColumns)
	require.NoError(t, err)

	release, err := sentences.lock.acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, attempts.Append(ctx, row("1", "a", "")))
}

func TestStore_LockFileIsSibling(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, store.Path()+".lock", store.lock.file.Path())
}
