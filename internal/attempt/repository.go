package attempt

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/ecoute/internal/csvstore"
)

//go:generate mockgen -source=repository.go -destination=../mocks/attempt/mock_repository.go -package=mock_attempt

// Repository stores attempts. There is no update or delete.
type Repository interface {
	FindAll(ctx context.Context) ([]Attempt, error)
	Create(ctx context.Context, attempt *Attempt) error
}

type CSVRepository struct {
	store *csvstore.Store
}

// NewCSVRepository opens the attempts file at path.
func NewCSVRepository(path string) (*CSVRepository, error) {
	store, err := csvstore.New(path, Columns, csvstore.WithIDColumn(ColumnID))
	if err != nil {
		return nil, fmt.Errorf("csvstore.New(%s) > %w", path, err)
	}
	return &CSVRepository{store: store}, nil
}

func (r *CSVRepository) FindAll(ctx context.Context) ([]Attempt, error) {
	rows, err := r.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.ReadAll() > %w", err)
	}
	attempts := make([]Attempt, len(rows))
	for i, row := range rows {
		attempts[i] = FromRow(row)
	}
	return attempts, nil
}

func (r *CSVRepository) Create(ctx context.Context, attempt *Attempt) error {
	if err := r.store.Append(ctx, ToRow(*attempt)); err != nil {
		return fmt.Errorf("store.Append(%s) > %w", attempt.ID, err)
	}
	return nil
}
