package core

// importer.go turns a text blob or a line stream into a populated DataImport.
//
// Every entry point runs the same loop:
//  1. Split the input into lines (text: all at once; readers/files: lazily)
//  2. Skip the first line if it is blank (once only, counted as skipped)
//  3. Skip the header line when HasHeader is set (counted as skipped)
//  4. Tokenize each remaining line and hand it to DataImport.ImportRaw
//     with its precomputed source line number; stop on StopRequested
//  5. FinalizeImport
//
// Any tokenizer or ImportRaw error aborts the whole import.

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/text/encoding"
)

// ContextCheckInterval is how often (in lines) reader-based imports check for
// context cancellation.
var ContextCheckInterval = 100

// Importer holds the layout and policies of an import. The zero value reads
// comma-delimited text without declared columns.
type Importer struct {
	Columns    []*Column
	Delimiter  rune // Delimited mode only; 0 means ','
	FixedWidth bool
	HasHeader  bool

	AutoTrunc  AutoTruncate
	BlankRows  BlankRowPolicy
	DataErrors DataErrorPolicy

	Encoding      encoding.Encoding // Reader and file input; nil means UTF-8
	MaxLineLength int               // 0 means DefaultMaxLineLength
	Logger        *slog.Logger      // nil means slog.Default()
	ID            string            // Labels log lines; empty means a fresh UUID per import
}

// lineSource yields lines one at a time.
type lineSource interface {
	Next() (string, bool)
	Err() error
}

type sliceLines struct {
	lines []string
	pos   int
}

func (s *sliceLines) Next() (string, bool) {
	if s.pos >= len(s.lines) {
		return "", false
	}
	line := s.lines[s.pos]
	s.pos++
	return line, true
}

func (s *sliceLines) Err() error { return nil }

type scannerLines struct {
	sc *bufio.Scanner
}

func (s scannerLines) Next() (string, bool) {
	if !s.sc.Scan() {
		return "", false
	}
	return sanitizeLine(s.sc.Text()), true
}

func (s scannerLines) Err() error { return s.sc.Err() }

// ImportText imports an in-memory text blob.
func (im *Importer) ImportText(text string) (*DataImport, error) {
	return im.run(context.Background(), &sliceLines{lines: SplitLines(text)}, nil)
}

// ImportReader imports r line by line, decoding it from im.Encoding.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader) (*DataImport, error) {
	counter := NewCountingReader(r)
	br := bufio.NewReader(decodeInput(counter, im.Encoding))
	if err := skipBOM(br); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	src := scannerLines{sc: newLineScanner(br, im.MaxLineLength)}
	return im.run(ctx, src, counter)
}

// ImportFile imports the file at path. The file is closed before ImportFile
// returns, including when the import stops early or fails.
func (im *Importer) ImportFile(ctx context.Context, path string) (*DataImport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := im.ImportReader(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return d, nil
}

// ImportTextToStrings imports text and returns the raw string rows.
func (im *Importer) ImportTextToStrings(text string) ([][]pgtype.Text, error) {
	d, err := im.ImportText(text)
	if err != nil {
		return nil, err
	}
	return d.ExportToStringArrays(), nil
}

// ImportTextToObjects imports text and returns typed rows plus any embedded
// cell errors.
func (im *Importer) ImportTextToObjects(text string) ([][]any, []*CellError, error) {
	d, err := im.ImportText(text)
	if err != nil {
		return nil, nil, err
	}
	return d.ExportToObjectArrays()
}

// ImportFileToStrings imports a file and returns the raw string rows.
func (im *Importer) ImportFileToStrings(ctx context.Context, path string) ([][]pgtype.Text, error) {
	d, err := im.ImportFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.ExportToStringArrays(), nil
}

// ImportFileToObjects imports a file and returns typed rows plus any
// embedded cell errors.
func (im *Importer) ImportFileToObjects(ctx context.Context, path string) ([][]any, []*CellError, error) {
	d, err := im.ImportFile(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return d.ExportToObjectArrays()
}

// NewDataImport creates an empty DataImport carrying im's columns and
// policies.
func (im *Importer) NewDataImport() (*DataImport, error) {
	d, err := NewDataImport(im.Columns...)
	if err != nil {
		return nil, err
	}
	d.AutoTrunc = im.AutoTrunc
	d.BlankRows = im.BlankRows
	d.DataErrors = im.DataErrors
	return d, nil
}

// Tokenizer returns the tokenizer matching im's layout.
func (im *Importer) Tokenizer() (Tokenizer, error) {
	if im.FixedWidth {
		if !hasMappedColumn(im.Columns) {
			return nil, fmt.Errorf("fixed-width layout: %w", ErrNoMappedColumns)
		}
		return FixedWidthTokenizer{Columns: im.Columns}, nil
	}
	delim := im.Delimiter
	if delim == 0 {
		delim = ','
	}
	if err := ValidateDelimiter(delim); err != nil {
		return nil, err
	}
	return DelimitedTokenizer{
		Delimiter:          delim,
		Columns:            im.Columns,
		EnforceColumnCount: len(im.Columns) > 0,
	}, nil
}

func (im *Importer) logger() *slog.Logger {
	if im.Logger != nil {
		return im.Logger
	}
	return slog.Default()
}

func (im *Importer) run(ctx context.Context, src lineSource, counter *CountingReader) (*DataImport, error) {
	start := time.Now()

	d, err := im.NewDataImport()
	if err != nil {
		return nil, err
	}
	tok, err := im.Tokenizer()
	if err != nil {
		return nil, err
	}

	id := im.ID
	if id == "" {
		id = uuid.NewString()
	}
	logger := im.logger().With("import_id", id)
	logger.Debug("import started",
		"fixed_width", im.FixedWidth,
		"columns", len(im.Columns),
		"blank_rows", im.BlankRows.String(),
	)

	var (
		consumed      int
		firstChecked  bool
		headerPending = im.HasHeader
		stopped       bool
	)
	for {
		if consumed%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("import cancelled at line %d: %w", d.NextLineNumber(), err)
			}
		}
		line, ok := src.Next()
		if !ok {
			break
		}
		consumed++

		// A single stray blank first line is tolerated regardless of policy
		if !firstChecked {
			firstChecked = true
			if strings.TrimSpace(line) == "" {
				d.SkipLine()
				continue
			}
		}
		if headerPending {
			headerPending = false
			d.SkipLine()
			continue
		}

		lineNo := d.NextLineNumber()
		fields, err := tok.Tokenize(line, lineNo)
		if err != nil {
			return nil, err
		}
		outcome, err := d.ImportRaw(fields, lineNo)
		if err != nil {
			return nil, err
		}
		if outcome == StopRequested {
			stopped = true
			break
		}
	}
	if err := src.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", d.NextLineNumber(), err)
	}

	if err := d.FinalizeImport(); err != nil {
		return nil, err
	}

	attrs := []any{
		"rows", d.RowCount(),
		"skipped", d.SkippedRows(),
		"stopped", stopped,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if counter != nil {
		attrs = append(attrs, "bytes", counter.BytesRead())
	}
	logger.Debug("import finished", attrs...)
	return d, nil
}
