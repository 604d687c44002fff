// Package datasync mirrors the CSV record stores into MySQL.
package datasync

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	"github.com/at-ishikawa/ecoute/internal/database"
	"github.com/at-ishikawa/ecoute/internal/sentence"
	"github.com/at-ishikawa/ecoute/schemas"
)

const (
	upsertSentence = `INSERT INTO sentences (id, target_lang, sentence_text, translation_lang, translation_text, difficulty, tags, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE target_lang = VALUES(target_lang), sentence_text = VALUES(sentence_text),
	translation_lang = VALUES(translation_lang), translation_text = VALUES(translation_text),
	difficulty = VALUES(difficulty), tags = VALUES(tags), updated_at = VALUES(updated_at)`
	upsertAttempt = `INSERT INTO attempts (id, sentence_id, target_lang, asr_lang, asr_text, score, words_total, words_correct, diff_json, duration_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE sentence_id = VALUES(sentence_id)`
)

// SyncResult holds the number of records written per table.
type SyncResult struct {
	Sentences       int
	Attempts        int
	SentencesPruned int64
	AttemptsPruned  int64
}

type SyncOptions struct {
	DryRun bool
}

// Mirror copies every sentence and attempt into MySQL and removes rows
// that no longer exist in the CSV files.
type Mirror struct {
	db        *sqlx.DB
	sentences sentence.Repository
	attempts  attempt.Repository
	writer    io.Writer
}

func NewMirror(db *sqlx.DB, sentences sentence.Repository, attempts attempt.Repository, writer io.Writer) *Mirror {
	return &Mirror{
		db:        db,
		sentences: sentences,
		attempts:  attempts,
		writer:    writer,
	}
}

// Sync runs in one transaction. With DryRun nothing is written and
// only the counts are reported.
func (m *Mirror) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	sentences, err := m.sentences.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("sentences.FindAll() > %w", err)
	}
	attempts, err := m.attempts.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("attempts.FindAll() > %w", err)
	}

	result := SyncResult{
		Sentences: len(sentences),
		Attempts:  len(attempts),
	}
	if opts.DryRun {
		fmt.Fprintf(m.writer, "[DRY RUN] %d sentences and %d attempts would be synced\n", result.Sentences, result.Attempts)
		return &result, nil
	}

	if err := database.RunInTx(ctx, m.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := migrate(ctx, tx); err != nil {
			return err
		}

		ids := make([]string, 0, len(sentences))
		for _, s := range sentences {
			if err := upsertSentenceRow(ctx, tx, s); err != nil {
				return err
			}
			ids = append(ids, s.ID)
		}
		pruned, err := prune(ctx, tx, "sentences", ids)
		if err != nil {
			return err
		}
		result.SentencesPruned = pruned

		ids = make([]string, 0, len(attempts))
		for _, a := range attempts {
			if err := upsertAttemptRow(ctx, tx, a); err != nil {
				return err
			}
			ids = append(ids, a.ID)
		}
		pruned, err = prune(ctx, tx, "attempts", ids)
		if err != nil {
			return err
		}
		result.AttemptsPruned = pruned
		return nil
	}); err != nil {
		return nil, fmt.Errorf("database.RunInTx() > %w", err)
	}

	fmt.Fprintf(m.writer, "synced %d sentences (%d removed) and %d attempts (%d removed)\n",
		result.Sentences, result.SentencesPruned, result.Attempts, result.AttemptsPruned)
	return &result, nil
}

// migrate applies every embedded migration in file name order.
// Migrations must be idempotent since they run on every sync.
func migrate(ctx context.Context, tx *sqlx.Tx) error {
	names, err := fs.Glob(schemas.Migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("fs.Glob(migrations) > %w", err)
	}
	for _, name := range names {
		statement, err := fs.ReadFile(schemas.Migrations, name)
		if err != nil {
			return fmt.Errorf("fs.ReadFile(%s) > %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, string(statement)); err != nil {
			return fmt.Errorf("tx.ExecContext(%s) > %w", name, err)
		}
	}
	return nil
}

func upsertSentenceRow(ctx context.Context, tx *sqlx.Tx, s sentence.Sentence) error {
	var translation sql.NullString
	if s.TranslationText != nil {
		translation = sql.NullString{String: *s.TranslationText, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, upsertSentence,
		s.ID, s.TargetLang, s.SentenceText, s.TranslationLang, translation,
		string(s.Difficulty), s.Tags, s.CreatedAt, s.UpdatedAt,
	); err != nil {
		return fmt.Errorf("tx.ExecContext(upsert sentence %s) > %w", s.ID, err)
	}
	return nil
}

func upsertAttemptRow(ctx context.Context, tx *sqlx.Tx, a attempt.Attempt) error {
	row := attempt.ToRow(a)
	if _, err := tx.ExecContext(ctx, upsertAttempt,
		a.ID, a.SentenceID, a.TargetLang, a.ASRLang, a.ASRText, a.Score,
		a.WordsTotal, a.WordsCorrect, row[attempt.ColumnDiffJSON], a.DurationMS, a.CreatedAt,
	); err != nil {
		return fmt.Errorf("tx.ExecContext(upsert attempt %s) > %w", a.ID, err)
	}
	return nil
}

// prune deletes the rows of table whose id is not in keep.
func prune(ctx context.Context, tx *sqlx.Tx, table string, keep []string) (int64, error) {
	query := "DELETE FROM " + table
	var args []any
	if len(keep) > 0 {
		var err error
		query, args, err = sqlx.In(query+" WHERE id NOT IN (?)", keep)
		if err != nil {
			return 0, fmt.Errorf("sqlx.In(%s) > %w", table, err)
		}
		query = tx.Rebind(query)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("tx.ExecContext(prune %s) > %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("result.RowsAffected() > %w", err)
	}
	return n, nil
}
