package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // save, backup, restore or export failed
	ExitCommandError = 2 // bad arguments or an unusable data directory
)

// Codes carried in the error object of JSON output.
const (
	ErrCodeGeneric        = "E001"
	ErrCodeInvalidInput   = "E002"
	ErrCodeNotFound       = "E003" // product, transaction or backup
	ErrCodeOpenFailed     = "E004"
	ErrCodeSaveFailed     = "E005"
	ErrCodeBackupFailed   = "E006"
	ErrCodeExportFailed   = "E007"
	ErrCodeConfirmMissing = "E008" // clear without --yes
)

// ExitError carries the process exit code of a failed command up to main.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return WrapExitError(code, message, nil)
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not an
// ExitError exit with ExitFailure.
func GetExitCode(err error) int {
	if exitErr := (*ExitError)(nil); errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the envelope every JSON command output is wrapped in.
type Response struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failed command in JSON output.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// OutputFormatter renders command results as text or as a JSON Response.
// Diagnostics go to ErrWriter so they never mix with JSON on Writer.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

func (f *OutputFormatter) jsonMode() bool { return f.Format == "json" }

func (f *OutputFormatter) emit(resp Response) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success writes data. Text mode prints it with fmt.Println semantics.
func (f *OutputFormatter) Success(data any) error {
	if !f.jsonMode() {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return f.emit(Response{Status: "ok", Data: data})
}

// Error writes an error report. Details are shown in text mode only when
// verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.jsonMode() {
		return f.emit(Response{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog prints a diagnostic line when verbose.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.diagnostics(), format+"\n", args...)
	}
}

// Fail returns the ExitError a command should return. In JSON mode it also
// writes the error envelope; text errors are printed once by main.
func (f *OutputFormatter) Fail(exitCode int, code, message string, err error) error {
	if f.jsonMode() {
		var details any
		if err != nil {
			details = err.Error()
		}
		_ = f.Error(code, message, details)
	}
	return WrapExitError(exitCode, message, err)
}

func (f *OutputFormatter) diagnostics() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}
