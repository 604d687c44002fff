package sentence

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/ecoute/internal/csvstore"
)

//go:generate mockgen -source=repository.go -destination=../mocks/sentence/mock_repository.go -package=mock_sentence

// Repository stores sentences.
type Repository interface {
	FindAll(ctx context.Context) ([]Sentence, error)
	// FindByID returns nil without an error when no sentence has the id.
	FindByID(ctx context.Context, id string) (*Sentence, error)
	Create(ctx context.Context, sentence *Sentence) error
	// Update reports false when no sentence has the id.
	Update(ctx context.Context, sentence *Sentence) (bool, error)
	// Delete reports false when no sentence has the id.
	Delete(ctx context.Context, id string) (bool, error)
	// ReplaceAll discards every stored sentence and stores sentences instead.
	ReplaceAll(ctx context.Context, sentences []Sentence) error
}

// CSVRepository implements Repository on top of a csvstore.Store.
type CSVRepository struct {
	store *csvstore.Store
}

// NewCSVRepository opens the sentences file at path.
func NewCSVRepository(path string) (*CSVRepository, error) {
	store, err := csvstore.New(path, Columns, csvstore.WithIDColumn(ColumnID))
	if err != nil {
		return nil, fmt.Errorf("csvstore.New(%s) > %w", path, err)
	}
	return &CSVRepository{store: store}, nil
}

// FindAll returns every sentence in file order.
func (r *CSVRepository) FindAll(ctx context.Context) ([]Sentence, error) {
	rows, err := r.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.ReadAll() > %w", err)
	}
	sentences := make([]Sentence, len(rows))
	for i, row := range rows {
		sentences[i] = FromRow(row)
	}
	return sentences, nil
}

// FindByID returns the sentence with id, or nil if there is none.
func (r *CSVRepository) FindByID(ctx context.Context, id string) (*Sentence, error) {
	row, ok, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("store.Get(%s) > %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	s := FromRow(row)
	return &s, nil
}

// Create appends the sentence.
func (r *CSVRepository) Create(ctx context.Context, sentence *Sentence) error {
	if err := r.store.Append(ctx, ToRow(*sentence)); err != nil {
		return fmt.Errorf("store.Append(%s) > %w", sentence.ID, err)
	}
	return nil
}

// Update replaces the stored sentence with the same id.
func (r *CSVRepository) Update(ctx context.Context, sentence *Sentence) (bool, error) {
	ok, err := r.store.Update(ctx, sentence.ID, ToRow(*sentence))
	if err != nil {
		return false, fmt.Errorf("store.Update(%s) > %w", sentence.ID, err)
	}
	return ok, nil
}

// Delete removes the sentence with id.
func (r *CSVRepository) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("store.Delete(%s) > %w", id, err)
	}
	return ok, nil
}

// ReplaceAll rewrites the file with sentences.
func (r *CSVRepository) ReplaceAll(ctx context.Context, sentences []Sentence) error {
	rows := make([]csvstore.Row, len(sentences))
	for i, s := range sentences {
		rows[i] = ToRow(s)
	}
	if err := r.store.ReplaceAll(ctx, rows); err != nil {
		return fmt.Errorf("store.ReplaceAll(%d rows) > %w", len(rows), err)
	}
	return nil
}
