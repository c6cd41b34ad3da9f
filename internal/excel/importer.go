package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/wordreview/pkg/models"
)

// WordStore stores imported vocabulary
type WordStore interface {
	Create(ctx context.Context, entry *models.VocabularyEntry) error
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	WordColumn        string // Column with the word
	TranslationColumn string // Column with the translation
	PhoneticColumn    string // Column with the transcription
	ExampleColumn     string // Column with an example sentence
	WordbookColumn    string // Column naming the wordbook, overrides Source
	SheetName         string // Name of the sheet to import, first sheet when empty
	StartRow          int    // The row to start importing from (1-based index)
	Language          string // ISO 639-1 code of the imported words
	Source            models.Source
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:        "A",
		TranslationColumn: "B",
		PhoneticColumn:    "C",
		ExampleColumn:     "D",
		WordbookColumn:    "E",
		StartRow:          2, // skip header
		Language:          "en",
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// Importer loads vocabulary from Excel and CSV files
type Importer struct {
	store WordStore
}

// NewImporter creates an importer writing to store
func NewImporter(store WordStore) *Importer {
	return &Importer{store: store}
}

// ImportFile imports words from an .xlsx or .csv file. Without an explicit
// source the words go to a wordbook named after the file.
func (im *Importer) ImportFile(ctx context.Context, path string, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if config.Source.Type == "" {
		base := filepath.Base(path)
		config.Source = models.Source{
			Type: models.SourceTypeWordbook,
			ID:   strings.TrimSuffix(base, filepath.Ext(base)),
		}
	}
	return im.Import(ctx, file, filepath.Ext(path), config)
}

// Import reads words from r; ext selects the format (".csv" or Excel otherwise)
func (im *Importer) Import(ctx context.Context, r io.Reader, ext string, config ImportConfig) (*ImportResult, error) {
	if strings.EqualFold(ext, ".csv") {
		return im.importFromCSV(ctx, r, config)
	}
	return im.importFromExcel(ctx, r, config)
}

func (im *Importer) importFromExcel(ctx context.Context, r io.Reader, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}
		result.TotalProcessed++

		entry := models.VocabularyEntry{
			Word:        cell(row, config.WordColumn),
			Translation: cell(row, config.TranslationColumn),
			Phonetic:    cell(row, config.PhoneticColumn),
			Example:     cell(row, config.ExampleColumn),
			Language:    config.Language,
			Source:      config.Source,
		}
		if wordbook := cell(row, config.WordbookColumn); wordbook != "" {
			entry.Source = models.Source{Type: models.SourceTypeWordbook, ID: wordbook}
		}
		im.storeEntry(ctx, entry, result, i+1)
	}
	return result, nil
}

// importFromCSV reads rows of the form: word,[transcription],translation[,example].
// A row with only its first cell set starts a new wordbook.
func (im *Importer) importFromCSV(ctx context.Context, r io.Reader, config ImportConfig) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	source := config.Source
	rowNum := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++

		if rowNum < config.StartRow || isBlank(row) {
			continue
		}

		// section header, e.g. "Motion,,"
		if strings.TrimSpace(row[0]) != "" && isBlank(row[1:]) {
			source = models.Source{Type: models.SourceTypeWordbook, ID: strings.Trim(strings.TrimSpace(row[0]), `"`)}
			continue
		}

		result.TotalProcessed++
		if len(row) < 3 {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: expected word, transcription and translation", rowNum))
			continue
		}

		entry := models.VocabularyEntry{
			Word:        row[0],
			Phonetic:    strings.Trim(strings.TrimSpace(row[1]), "[]"),
			Translation: row[2],
			Language:    config.Language,
			Source:      source,
		}
		if len(row) > 3 {
			entry.Example = strings.TrimSpace(row[3])
		}
		im.storeEntry(ctx, entry, result, rowNum)
	}
	return result, nil
}

// storeEntry cleans and stores one entry, recording the outcome in result
func (im *Importer) storeEntry(ctx context.Context, entry models.VocabularyEntry, result *ImportResult, rowNum int) {
	entry.Word = cleanWord(entry.Word)
	entry.Translation = strings.TrimSpace(entry.Translation)

	if entry.Word == "" || entry.Translation == "" {
		result.Skipped++
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: word and translation cannot be empty", rowNum))
		return
	}

	if err := im.store.Create(ctx, &entry); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		return
	}
	if entry.CreatedAt.Equal(entry.UpdatedAt) {
		result.Created++
	} else {
		result.Updated++
	}
}

// cleanWord drops extra forms in brackets, e.g. "go (went, gone)"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// Template returns an empty workbook with the expected header row
func Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, title := range []string{"Word", "Translation", "Transcription", "Example", "Wordbook"} {
		name, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, name, title); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
