package core

import "fmt"

// PreviewSummary contains the summary counts of an import.
type PreviewSummary struct {
	TotalRows   int `json:"totalRows"`
	BlankRows   int `json:"blankRows"`
	SkippedRows int `json:"skippedRows"`
	ErrorCells  int `json:"errorCells"`
}

// RowPreview represents a single row for display.
type RowPreview struct {
	LineNumber int      `json:"lineNumber"`
	Blank      bool     `json:"blank,omitempty"`
	Values     []string `json:"values"`
}

// ErrorPreview represents a cell that failed conversion.
type ErrorPreview struct {
	LineNumber int    `json:"lineNumber"`
	Column     int    `json:"column"`
	ColumnName string `json:"columnName"`
	Raw        string `json:"raw"`
	Message    string `json:"message"`
}

// PreviewResponse is a display-ready view of a finished import.
type PreviewResponse struct {
	Columns          []string       `json:"columns"`
	Summary          PreviewSummary `json:"summary"`
	Rows             []RowPreview   `json:"rows"`
	Errors           []ErrorPreview `json:"errors"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
}

const maxErrorSamples = 20

// BuildPreview renders up to maxRows rows of d (all rows when maxRows <= 0).
//
// With declared columns values are converted and formatted through each
// mapped column under d's DataErrorPolicy, so a DataErrorThrow import fails
// on its first bad cell. Without columns the raw text is shown and headers
// are numbered.
func BuildPreview(d *DataImport, maxRows int) (*PreviewResponse, error) {
	resp := &PreviewResponse{
		Summary: PreviewSummary{
			TotalRows:   d.RowCount(),
			SkippedRows: d.SkippedRows(),
		},
		Rows:   []RowPreview{},
		Errors: []ErrorPreview{},
	}

	rows := d.Rows()
	var formatted [][]string
	if d.EnforceColumnCount {
		objects, cellErrs, err := d.ExportToObjectArrays()
		if err != nil {
			return nil, err
		}
		formatted, err = d.ExportToFormattedObjectStringArrays(objects)
		if err != nil {
			return nil, err
		}
		for _, c := range d.MappedColumns() {
			resp.Columns = append(resp.Columns, c.Name())
		}

		resp.Summary.ErrorCells = len(cellErrs)
		for _, ce := range cellErrs {
			if len(resp.Errors) >= maxErrorSamples {
				break
			}
			resp.Errors = append(resp.Errors, ErrorPreview{
				LineNumber: ce.Line,
				Column:     ce.Column,
				ColumnName: ce.ColumnName,
				Raw:        ce.Raw,
				Message:    ce.Err.Error(),
			})
		}
	} else {
		width := 0
		formatted = make([][]string, len(rows))
		for i, row := range rows {
			formatted[i] = row.Strings()
			width = max(width, row.Len())
		}
		for i := 1; i <= width; i++ {
			resp.Columns = append(resp.Columns, fmt.Sprintf("Column %d", i))
		}
	}

	for i, row := range rows {
		if row.IsBlank() {
			resp.Summary.BlankRows++
		}
		if maxRows > 0 && len(resp.Rows) >= maxRows {
			continue
		}
		resp.Rows = append(resp.Rows, RowPreview{
			LineNumber: row.LineNumber(),
			Blank:      row.IsBlank(),
			Values:     formatted[i],
		})
	}
	return resp, nil
}
