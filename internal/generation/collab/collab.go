// Package collab declares the narrow contracts of the external generative
// collaborators the pipeline consumes. Implementations (model APIs, search
// providers, extraction services) live outside this core.
package collab

import (
	"context"
	"errors"

	"github.com/lunagrove/landingforge/internal/generation/domain"
)

// GeneratedImage is the output of one image-generation call. Either Data or
// URL is set; Data wins when both are present.
type GeneratedImage struct {
	Data []byte
	URL  string
}

// Analyzer derives a structured game description from free text and an
// optional reference image. Failure here is fatal to the run.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, referenceImage []byte) (domain.Analysis, error)
}

// ReferenceFinder looks up a branded reference image by name. Failure is
// non-fatal; the pipeline continues with the default palette.
type ReferenceFinder interface {
	FindReference(ctx context.Context, name string) (domain.Reference, error)
}

// PaletteExtractor pulls a color scheme from an image. Failure is non-fatal;
// the pipeline substitutes the fixed default palette.
type PaletteExtractor interface {
	ExtractPalette(ctx context.Context, image []byte) (domain.Palette, error)
}

// ImageGenerator produces one asset image. conversationID threads a shared
// generation context across a session's calls so the visual style stays
// consistent; that is why asset generation is sequential by design.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, conversationID string) (GeneratedImage, error)
}

// BackgroundRemover strips the background from an image. Per-call failure is
// non-fatal; the opaque original is kept.
type BackgroundRemover interface {
	RemoveBackground(ctx context.Context, image []byte) ([]byte, error)
}

// CodeGenerator renders the landing markup from the analysis, the final
// asset map (key → placeholder path), and the resolved palette. Failure is
// fatal to the run.
type CodeGenerator interface {
	GenerateMarkup(ctx context.Context, analysis domain.Analysis, assetPaths map[string]string, palette domain.Palette) (string, error)
}

// Set groups the collaborators a pipeline run needs.
type Set struct {
	Analyzer          Analyzer
	ReferenceFinder   ReferenceFinder
	PaletteExtractor  PaletteExtractor
	ImageGenerator    ImageGenerator
	BackgroundRemover BackgroundRemover
	CodeGenerator     CodeGenerator
}

// Validate ensures the collaborators on the fatal path are present. The
// degraded-mode collaborators (reference finder, palette extractor,
// background remover) may be nil; the pipeline then skips their phases.
func (s Set) Validate() error {
	if s.Analyzer == nil {
		return errors.New("analyzer collaborator is required")
	}
	if s.ImageGenerator == nil {
		return errors.New("image generator collaborator is required")
	}
	if s.CodeGenerator == nil {
		return errors.New("code generator collaborator is required")
	}
	return nil
}
