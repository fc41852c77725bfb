package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
	watermark "github.com/yyyoichi/watermark_desk"
)

var (
	ErrMissingField   = errors.New("missing field")
	ErrMalformedBits  = errors.New("malformed bit list")
	ErrMalformedShape = errors.New("malformed shape")
	// ErrCollaborator wraps every failure raised by the watermark engine.
	ErrCollaborator = errors.New("watermark operation failed")
)

// Field names reported by ValidationError.
const (
	FieldImagePath          = "imagePath"
	FieldContent            = "content"
	FieldWatermarkImagePath = "watermarkImagePath"
	FieldShape              = "shape"
	FieldOutputPath         = "outputPath"
)

// Request describes one embed or extract operation. Which of Content,
// WatermarkImagePath and Shape is read depends on Mode and the operation.
type Request struct {
	Mode        watermark.Mode
	ImagePath   string
	PasswordImg int
	PasswordWm  int
	OutputPath  string

	// Content is the text (text mode) or comma-separated 0/1 list (bits
	// mode) to embed.
	Content string
	// WatermarkImagePath is the image to embed in image mode.
	WatermarkImagePath string
	// Shape is "w,h" in image mode and the bit length otherwise.
	Shape string
}

// Payload is set for text and bits operations.
type Payload struct {
	// BitLength is what a later extract needs as Shape.
	BitLength int
	// Content is the recovered text or 0/1 list.
	Content string
}

type Result struct {
	OK      bool
	Message string
	Payload *Payload
	// Err keeps the cause of a failure.
	Err error
}

// ValidationError reports the first invalid request field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func fail(err error, message string) Result {
	return Result{Message: message, Err: err}
}
