package sentence

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

var (
	ErrNotUTF8       = errors.New("file must be UTF-8 encoded")
	ErrMissingHeader = errors.New("CSV missing header row")
	ErrNoValidRows   = errors.New("no valid sentences found in CSV")
)

// RequiredImportColumns must be present in the header of an imported file.
var RequiredImportColumns = []string{ColumnSentenceText, ColumnTargetLang}

// MissingColumnsError is returned when an imported header lacks required columns.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("CSV missing required columns: %s", strings.Join(e.Columns, ", "))
}

// InvalidRowError is returned when an imported row has a value that cannot be stored.
type InvalidRowError struct {
	Line   int
	Column string
	Value  string
}

func (e *InvalidRowError) Error() string {
	return fmt.Sprintf("line %d: invalid %s %q", e.Line, e.Column, e.Value)
}

// WriteCSV writes a header and one line per sentence.
func WriteCSV(w io.Writer, sentences []Sentence) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("csv.Write(header) > %w", err)
	}
	for _, s := range sentences {
		row := ToRow(s)
		record := make([]string, len(Columns))
		for i, column := range Columns {
			record[i] = row[column]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("csv.Write(%s) > %w", s.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv.Flush > %w", err)
	}
	return nil
}

// ParseImport reads an uploaded CSV file. Columns are matched by header name,
// values are trimmed, rows without sentence text are skipped and empty values
// take the row defaults. Ids and timestamps in the file are kept.
func ParseImport(data []byte, now string, newID func() string) ([]Sentence, error) {
	if !utf8.Valid(data) {
		return nil, ErrNotUTF8
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("csv.Read(header) > %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, column := range RequiredImportColumns {
		if _, ok := index[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &MissingColumnsError{Columns: missing}
	}

	var sentences []Sentence
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv.Read > %w", err)
		}
		line, _ := reader.FieldPos(0)

		value := func(column string) string {
			i, ok := index[column]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		text := value(ColumnSentenceText)
		if text == "" {
			continue
		}

		difficulty := Difficulty(orDefault(value(ColumnDifficulty), string(DefaultDifficulty)))
		if !difficulty.Valid() {
			return nil, &InvalidRowError{Line: line, Column: ColumnDifficulty, Value: string(difficulty)}
		}

		s := Sentence{
			ID:              value(ColumnID),
			TargetLang:      orDefault(value(ColumnTargetLang), DefaultTargetLang),
			SentenceText:    text,
			TranslationLang: orDefault(value(ColumnTranslationLang), DefaultTranslationLang),
			Difficulty:      difficulty,
			Tags:            value(ColumnTags),
			CreatedAt:       orDefault(value(ColumnCreatedAt), now),
			UpdatedAt:       orDefault(value(ColumnUpdatedAt), now),
		}
		if s.ID == "" {
			s.ID = newID()
		}
		if translation := value(ColumnTranslationText); translation != "" {
			s.TranslationText = &translation
		}
		sentences = append(sentences, s)
	}

	if len(sentences) == 0 {
		return nil, ErrNoValidRows
	}
	return sentences, nil
}
