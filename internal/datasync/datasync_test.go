package datasync

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/ecoute/internal/attempt"
	mock_attempt "github.com/at-ishikawa/ecoute/internal/mocks/attempt"
	mock_sentence "github.com/at-ishikawa/ecoute/internal/mocks/sentence"
	"github.com/at-ishikawa/ecoute/internal/sentence"
)

func ptr[T any](v T) *T {
	return &v
}

var (
	testSentences = []sentence.Sentence{
		{
			ID: "s1", TargetLang: "fr-FR", SentenceText: "Bonjour", TranslationLang: "zh-CN",
			TranslationText: ptr("你好"), Difficulty: sentence.DifficultyEasy, Tags: "salutation",
			CreatedAt: "2025-01-01T00:00:00", UpdatedAt: "2025-01-02T00:00:00",
		},
		{
			ID: "s2", TargetLang: "fr-FR", SentenceText: "Merci", TranslationLang: "zh-CN",
			Difficulty: sentence.DifficultyMedium,
			CreatedAt: "2025-01-01T00:00:00", UpdatedAt: "2025-01-01T00:00:00",
		},
	}
	testAttempts = []attempt.Attempt{
		{
			ID: "a1", SentenceID: "s1", TargetLang: "fr-FR", ASRLang: "fr-FR", ASRText: "bonjour",
			Score: 1, WordsTotal: 1, WordsCorrect: 1,
			Diff:       []attempt.DiffToken{{Op: attempt.DiffOpMatch, Ref: ptr("bonjour"), Hyp: ptr("bonjour")}},
			DurationMS: 800, CreatedAt: "2025-01-03T00:00:00",
		},
	}
)

func expectSentenceUpserts(mock sqlmock.Sqlmock) {
	mock.ExpectExec("INSERT INTO sentences").
		WithArgs("s1", "fr-FR", "Bonjour", "zh-CN", "你好", "easy", "salutation", "2025-01-01T00:00:00", "2025-01-02T00:00:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sentences").
		WithArgs("s2", "fr-FR", "Merci", "zh-CN", nil, "medium", "", "2025-01-01T00:00:00", "2025-01-01T00:00:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestMirror_Sync(t *testing.T) {
	errDB := errors.New("connection refused")

	tests := []struct {
		name       string
		opts       SyncOptions
		sentences  []sentence.Sentence
		attempts   []attempt.Attempt
		setupMock  func(mock sqlmock.Sqlmock)
		want       *SyncResult
		wantOutput string
		wantErr    error
	}{
		{
			name:      "upserts and prunes in one transaction",
			sentences: testSentences,
			attempts:  testAttempts,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS sentences").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS attempts").WillReturnResult(sqlmock.NewResult(0, 0))
				expectSentenceUpserts(mock)
				mock.ExpectExec("DELETE FROM sentences WHERE id NOT IN \\(\\?, \\?\\)").
					WithArgs("s1", "s2").
					WillReturnResult(sqlmock.NewResult(0, 3))
				mock.ExpectExec("INSERT INTO attempts").
					WithArgs("a1", "s1", "fr-FR", "fr-FR", "bonjour", 1.0, 1, 1,
						`[{"op":"match","ref":"bonjour","hyp":"bonjour"}]`, 800, "2025-01-03T00:00:00").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("DELETE FROM attempts WHERE id NOT IN \\(\\?\\)").
					WithArgs("a1").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			want:       &SyncResult{Sentences: 2, Attempts: 1, SentencesPruned: 3},
			wantOutput: "synced 2 sentences (3 removed) and 1 attempts (0 removed)\n",
		},
		{
			name:      "empty stores clear the tables",
			sentences: []sentence.Sentence{},
			attempts:  []attempt.Attempt{},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS sentences").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS attempts").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("DELETE FROM sentences").WithArgs().WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectExec("DELETE FROM attempts").WithArgs().WillReturnResult(sqlmock.NewResult(0, 5))
				mock.ExpectCommit()
			},
			want:       &SyncResult{SentencesPruned: 2, AttemptsPruned: 5},
			wantOutput: "synced 0 sentences (2 removed) and 0 attempts (5 removed)\n",
		},
		{
			name:       "dry run does not touch the database",
			opts:       SyncOptions{DryRun: true},
			sentences:  testSentences,
			attempts:   testAttempts,
			setupMock:  func(mock sqlmock.Sqlmock) {},
			want:       &SyncResult{Sentences: 2, Attempts: 1},
			wantOutput: "[DRY RUN] 2 sentences and 1 attempts would be synced\n",
		},
		{
			name:      "failed upsert rolls back",
			sentences: testSentences,
			attempts:  testAttempts,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS sentences").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS attempts").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("INSERT INTO sentences").WillReturnError(errDB)
				mock.ExpectRollback()
			},
			wantErr: errDB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.setupMock(mock)

			ctrl := gomock.NewController(t)
			sentences := mock_sentence.NewMockRepository(ctrl)
			sentences.EXPECT().FindAll(gomock.Any()).Return(tt.sentences, nil)
			attempts := mock_attempt.NewMockRepository(ctrl)
			attempts.EXPECT().FindAll(gomock.Any()).Return(tt.attempts, nil)

			var output bytes.Buffer
			mirror := NewMirror(sqlx.NewDb(db, "mysql"), sentences, attempts, &output)

			got, err := mirror.Sync(context.Background(), tt.opts)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.wantOutput, output.String())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMirror_Sync_RepositoryErrors(t *testing.T) {
	errDisk := errors.New("input/output error")

	tests := []struct {
		name    string
		setup   func(sentences *mock_sentence.MockRepository, attempts *mock_attempt.MockRepository)
		wantErr string
	}{
		{
			name: "sentences",
			setup: func(sentences *mock_sentence.MockRepository, _ *mock_attempt.MockRepository) {
				sentences.EXPECT().FindAll(gomock.Any()).Return(nil, errDisk)
			},
			wantErr: "sentences.FindAll() > input/output error",
		},
		{
			name: "attempts",
			setup: func(sentences *mock_sentence.MockRepository, attempts *mock_attempt.MockRepository) {
				sentences.EXPECT().FindAll(gomock.Any()).Return(nil, nil)
				attempts.EXPECT().FindAll(gomock.Any()).Return(nil, errDisk)
			},
			wantErr: "attempts.FindAll() > input/output error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			ctrl := gomock.NewController(t)
			sentences := mock_sentence.NewMockRepository(ctrl)
			attempts := mock_attempt.NewMockRepository(ctrl)
			tt.setup(sentences, attempts)

			_, err = NewMirror(sqlx.NewDb(db, "mysql"), sentences, attempts, &bytes.Buffer{}).
				Sync(context.Background(), SyncOptions{})
			assert.EqualError(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
