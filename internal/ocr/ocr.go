package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
)

var (
	// ErrNoText is returned when the engine found no text in the image.
	ErrNoText = errors.New("no text detected")
	// ErrMissingCredentials is returned when GOOGLE_APPLICATION_CREDENTIALS is unset.
	ErrMissingCredentials = errors.New("GOOGLE_APPLICATION_CREDENTIALS environment variable not set")
	// ErrEmptyImage is returned for zero-length input.
	ErrEmptyImage = errors.New("empty image")
)

// CredentialsEnv names the variable pointing at a service account key file.
const CredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"

// Engine detects text in an encoded image (PNG, JPEG, ...).
type Engine interface {
	Detect(ctx context.Context, image []byte) (string, error)
	Close() error
}

// Service reads images and hands them to an Engine.
type Service struct {
	engine Engine
}

func NewService(engine Engine) *Service {
	return &Service{engine: engine}
}

// ExtractText returns the full text found in the image at path.
func (s *Service) ExtractText(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	return s.ExtractTextFromBytes(ctx, content)
}

// ExtractTextFromBytes is ExtractText for an image already in memory.
func (s *Service) ExtractTextFromBytes(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}

	text, err := s.engine.Detect(ctx, image)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	slog.DebugContext(ctx, "ocr text extracted", "bytes", len(image), "chars", len(text))
	return text, nil
}

// Close releases the engine.
func (s *Service) Close() error {
	return s.engine.Close()
}

// Supported values of ocr.engine.
const (
	EngineVision    = "vision"
	EngineTesseract = "tesseract"
)

// NewEngine builds the engine named by ocr.engine (vision when unset).
func NewEngine(ctx context.Context, cfg pkgconfig.Config) (Engine, error) {
	switch name := strings.ToLower(cfg.GetString("ocr.engine")); name {
	case "", EngineVision:
		v, err := NewVision(ctx)
		if err != nil {
			return nil, err
		}
		return v, nil
	case EngineTesseract:
		t, err := NewTesseract(cfg.GetArray("ocr.languages")...)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", name)
	}
}
