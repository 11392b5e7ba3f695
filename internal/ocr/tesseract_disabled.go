//go:build !tesseract

package ocr

import (
	"context"
	"errors"
)

// ErrTesseractUnavailable is returned when the binary was built without the
// tesseract tag (libtesseract needs cgo).
var ErrTesseractUnavailable = errors.New("tesseract support not compiled in, rebuild with -tags tesseract")

type Tesseract struct{}

func NewTesseract(...string) (*Tesseract, error) {
	return nil, ErrTesseractUnavailable
}

func (*Tesseract) Detect(context.Context, []byte) (string, error) {
	return "", ErrTesseractUnavailable
}

func (*Tesseract) Close() error {
	return nil
}
