//go:build tesseract

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract runs OCR locally through libtesseract. A client is created per
// call since gosseract clients are not safe for concurrent use.
type Tesseract struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseract returns a local engine. languages defaults to "eng".
func NewTesseract(languages ...string) (*Tesseract, error) {
	return &Tesseract{languages: languages, clientFactory: gosseract.NewClient}, nil
}

func (t *Tesseract) Detect(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := t.clientFactory()
	defer c.Close()

	if len(t.languages) > 0 {
		if err := c.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}

	return strings.TrimSpace(text), nil
}

func (t *Tesseract) Close() error {
	return nil
}
