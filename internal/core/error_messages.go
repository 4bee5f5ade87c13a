// Package core provides the tabular text import engine.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Import Errors (IMP001-IMP099)
//
// Errors raised while tokenizing rows or converting values:
//
//	IMP001 - Too many fields: A row has more fields than the layout declares
//	         Action: Check the delimiter and quote any field containing it
//
//	IMP002 - Unclosed quote: A quoted field is never closed
//	         Action: Close the quote or double embedded quotes ("")
//
//	IMP003 - Line break in field: A field contains a line break
//	         Action: Remove line breaks from field values
//
//	IMP004 - Blank row: Blank rows are not allowed for this import
//	         Action: Remove blank lines or choose another blank row policy
//
//	IMP005 - Invalid value: A value could not be converted to its column type
//	         Action: Correct the value at the reported line and column
//
//	IMP006 - Invalid delimiter: The delimiter cannot separate fields
//	         Action: Use a delimiter other than quote or line break
//
//	IMP007 - Unknown option: A policy, mode or field type name is not recognized
//	         Action: Check the spelling against the documented values
//
// # Layout Errors (LAY001-LAY099)
//
// Errors in the column layout itself:
//
//	LAY001 - No mapped columns: The layout has no columns producing values
//	LAY002 - Invalid column: A column name is blank or a width is negative
//	LAY003 - Missing parser: A typed column has no converter
//	LAY004 - Row length mismatch: A row does not match the column count
//	LAY005 - Enforcement required: Typed export needs a fixed column count
//	LAY006 - Unknown layout: No layout is registered under the requested name
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: Request body exceeds the size limit
//	FILE002 - No file: No file or text was provided
//	FILE003 - Encoding error: Unknown character encoding
//	FILE004 - Line too long: A line exceeds the maximum line length
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timeout
//	REQ003 - Server busy: Every import slot stayed in use
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the original
// technical error.
//
// # Matching
//
// Sentinel errors are matched with errors.Is first, so wrapped errors map
// to their root cause. Remaining errors are matched case-insensitively using
// strings.Contains; the first matching pattern wins.
package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// Sentinel and pattern-based lookups share these messages.
var (
	msgTooManyFields = UserMessage{
		Message: "A row has more fields than the layout declares",
		Action:  "Check the delimiter and quote any field containing it",
		Code:    "IMP001",
	}
	msgUnclosedQuote = UserMessage{
		Message: "A quoted field is never closed",
		Action:  `Close the quote or double embedded quotes ("")`,
		Code:    "IMP002",
	}
	msgLineBreak = UserMessage{
		Message: "A field contains a line break",
		Action:  "Remove line breaks from field values",
		Code:    "IMP003",
	}
	msgBlankRow = UserMessage{
		Message: "Blank rows are not allowed for this import",
		Action:  "Remove blank lines or choose another blank row policy",
		Code:    "IMP004",
	}
	msgInvalidValue = UserMessage{
		Message: "A value could not be converted to its column type",
		Action:  "Correct the value at the reported line and column",
		Code:    "IMP005",
	}
	msgInvalidDelimiter = UserMessage{
		Message: "The delimiter cannot separate fields",
		Action:  "Use a delimiter other than quote or line break",
		Code:    "IMP006",
	}
	msgNoMappedColumns = UserMessage{
		Message: "The layout has no columns producing values",
		Action:  "Declare at least one mapped column",
		Code:    "LAY001",
	}
	msgInvalidColumn = UserMessage{
		Message: "The layout contains an invalid column",
		Action:  "Give every column a name and a non-negative width",
		Code:    "LAY002",
	}
	msgNoParser = UserMessage{
		Message: "A typed column has no converter",
		Action:  "Register a converter or a custom parser for the column type",
		Code:    "LAY003",
	}
	msgLengthMismatch = UserMessage{
		Message: "A row does not match the column count",
		Action:  "Re-export rows produced by the same import",
		Code:    "LAY004",
	}
	msgEnforcement = UserMessage{
		Message: "Typed export needs declared columns",
		Action:  "Declare the layout's columns before importing",
		Code:    "LAY005",
	}
	msgLineTooLong = UserMessage{
		Message: "A line exceeds the maximum line length",
		Action:  "Check the line endings of the file or raise the limit",
		Code:    "FILE004",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "REQ002",
	}
	msgUnknownOption = UserMessage{
		Message: "An import option is not recognized",
		Action:  "Check the option value against the documented names",
		Code:    "IMP007",
	}
	msgBusy = UserMessage{
		Message: "The server is busy with other imports",
		Action:  "Wait a moment and try again",
		Code:    "REQ003",
	}
)

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrTooManyFields, msgTooManyFields},
	{ErrUnclosedQuote, msgUnclosedQuote},
	{ErrEmbeddedLineBreak, msgLineBreak},
	{ErrBlankRow, msgBlankRow},
	{ErrParse, msgInvalidValue},
	{ErrInvalidDelimiter, msgInvalidDelimiter},
	{ErrUnknownOption, msgUnknownOption},
	{ErrNoMappedColumns, msgNoMappedColumns},
	{ErrNilColumn, msgInvalidColumn},
	{ErrInvalidColumn, msgInvalidColumn},
	{ErrNoParser, msgNoParser},
	{ErrLengthMismatch, msgLengthMismatch},
	{ErrEnforcementRequired, msgEnforcement},
	{bufio.ErrTooLong, msgLineTooLong},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
	{ErrTooManyImports, msgBusy},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages
// for errors that carry no sentinel, typically from other layers.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file or text was provided",
			Action:  "Please select a file to import",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unknown encoding",
		msg: UserMessage{
			Message: "The character encoding is not supported",
			Action:  "Use an encoding name such as utf-8, windows-1252 or iso-8859-1",
			Code:    "FILE003",
		},
	},
	{
		pattern: "unknown layout",
		msg: UserMessage{
			Message: "No layout is registered under that name",
			Action:  "Pick one of the layouts listed by the server",
			Code:    "LAY006",
		},
	},
	{pattern: "token too long", msg: msgLineTooLong},
	{pattern: "context canceled", msg: msgCancelled},
	{pattern: "context deadline exceeded", msg: msgTimeout},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels are found anywhere in the wrap chain; otherwise the error
// text is searched for known patterns. Unknown errors map to ERR000.
//
// Example:
//
//	_, err := imp.ImportText(`a,"b`)
//	msg := MapError(err)
//	// msg.Code == "IMP002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
