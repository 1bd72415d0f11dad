package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultDesignStyle is used when the client sends none.
const DefaultDesignStyle = "modern"

// ImageGenerator renders a design from a source image.
type ImageGenerator interface {
	Generate(ctx context.Context, image []byte) ([]byte, error)
}

// DesignService produces AI design previews. The uploaded image is kept on
// disk only for the duration of the call.
type DesignService struct {
	Generator ImageGenerator
	Files     FileStore
}

// Generate returns the rendered image as a PNG data URL.
func (s *DesignService) Generate(ctx context.Context, style string, image *Upload) (string, error) {
	if image == nil {
		return "", ErrMissingFile
	}
	style = strings.TrimSpace(style)
	if style == "" {
		style = DefaultDesignStyle
	}

	tr := otel.Tracer("services/DesignService")
	ctx, span := tr.Start(ctx, "Generate", trace.WithAttributes(attribute.String("design.style", style)))
	defer span.End()

	f, err := s.Files.Save(image.Name, image.Body)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	defer func() { _ = s.Files.Remove(f.Path) }()

	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(raw) == 0 {
		return "", ErrMissingFile
	}

	out, err := s.Generator.Generate(ctx, raw)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(out), nil
}
