package classfile

import (
	"errors"
	"fmt"
)

// ErrClassFormat is matched by every structural error the package reports.
// I/O failures are wrapped as-is and do not match it.
var ErrClassFormat = errors.New("class format error")

// FormatError reports a malformed or self-inconsistent class file.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return "class format error: " + e.Msg
}

func (e *FormatError) Unwrap() error { return ErrClassFormat }

func formatErrorf(format string, args ...any) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// DescriptorError reports a malformed type descriptor or generic signature.
// It is fatal for that one string only.
type DescriptorError struct {
	Descriptor string
	Offset     int
	Reason     string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("invalid descriptor %q at offset %d: %s", e.Descriptor, e.Offset, e.Reason)
}

func (e *DescriptorError) Unwrap() error { return ErrClassFormat }
