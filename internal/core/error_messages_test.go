package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "too many fields inside import error",
			err:         &ImportError{Line: 3, Err: fmt.Errorf("%w: got 4, expected 3", ErrTooManyFields)},
			wantCode:    "IMP001",
			wantMessage: "A row has more fields than the layout declares",
		},
		{
			name:        "unclosed quote",
			err:         &ImportError{Line: 1, Err: ErrUnclosedQuote},
			wantCode:    "IMP002",
			wantMessage: "A quoted field is never closed",
		},
		{
			name:        "cell error maps to invalid value",
			err:         &CellError{Line: 2, Column: 1, Raw: "x", Err: fmt.Errorf("%w: not a number", ErrParse)},
			wantCode:    "IMP005",
			wantMessage: "A value could not be converted to its column type",
		},
		{
			name:        "wrapped layout error",
			err:         fmt.Errorf("import data.txt: %w", ErrNoMappedColumns),
			wantCode:    "LAY001",
			wantMessage: "The layout has no columns producing values",
		},
		{
			name:        "context cancellation",
			err:         fmt.Errorf("import cancelled at line 9: %w", context.Canceled),
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "unknown policy name",
			err:         fmt.Errorf("IMPORT_BLANK_ROWS: %w", fmt.Errorf("unknown blank row policy %q: %w", "sometimes", ErrUnknownOption)),
			wantCode:    "IMP007",
			wantMessage: "An import option is not recognized",
		},
		{
			name:        "import slots exhausted",
			err:         fmt.Errorf("acquire import slot: %w", ErrTooManyImports),
			wantCode:    "REQ003",
			wantMessage: "The server is busy with other imports",
		},
		{
			name:        "unknown layout pattern",
			err:         errors.New(`unknown layout "payroll"`),
			wantCode:    "LAY006",
			wantMessage: "No layout is registered under that name",
		},
		{
			name:        "body limit pattern",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum size limit",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("Unknown Encoding \"klingon\""),
			wantCode:    "FILE003",
			wantMessage: "The character encoding is not supported",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := &ImportError{Line: 7, Err: ErrBlankRow}
	result := FormatUserError(err)

	expected := "Blank rows are not allowed for this import (Code: IMP004). Remove blank lines or choose another blank row policy"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrEmbeddedLineBreak,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &ImportError{Line: 2, Err: ErrUnclosedQuote}
		userErr := NewUserError(techErr)

		if userErr.Error() != "A quoted field is never closed" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrUnclosedQuote) {
			t.Error("Unwrap() should expose the original error chain")
		}
	})
}
