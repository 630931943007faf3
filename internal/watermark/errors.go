package watermark

import "fmt"

// DecodeError is returned when the source bytes cannot be read as an image
type DecodeError struct {
	Filename string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %q: %v", e.Filename, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when compositing or export produces no output
type EncodeError struct {
	Filename string
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode image %q: %v", e.Filename, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
