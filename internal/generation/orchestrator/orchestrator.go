// Package orchestrator drives one generation session through the full
// pipeline: analysis, reference lookup, palette extraction, asset
// generation, background removal, code generation, and assembly.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lunagrove/landingforge/internal/assembly"
	"github.com/lunagrove/landingforge/internal/generation/collab"
	"github.com/lunagrove/landingforge/internal/generation/domain"
	"github.com/lunagrove/landingforge/internal/generation/planner"
	"github.com/lunagrove/landingforge/internal/platform/errors"
)

// Progress checkpoints per phase. Asset generation spreads its share evenly
// across the plan between progressAssetsStart and progressAssetsEnd.
const (
	progressAnalyzing   = 5
	progressAnalyzed    = 15
	progressReference   = 20
	progressPalette     = 30
	progressAssetsStart = 35
	progressAssetsEnd   = 70
	progressBackgrounds = 75
	progressCode        = 85
	progressAssembling  = 90
)

// minGeneratedAssets is the floor under which a run is aborted before code
// generation: with fewer images the landing cannot render its mechanic.
const minGeneratedAssets = 2

// Request carries the caller's input for one generation run. Explicit fields
// override the corresponding analysis output.
type Request struct {
	Prompt         string
	ReferenceImage []byte
	Prizes         []string
	OfferURL       string
	Language       string
	Sounds         []domain.Sound
}

// Result summarizes a completed run.
type Result struct {
	ArchivePath string
	PreviewPath string
	Analysis    domain.Analysis
	Palette     domain.Palette
}

// Orchestrator runs the generation pipeline against a session.
type Orchestrator struct {
	collaborators collab.Set
	assembler     *assembly.Assembler
	tracer        trace.Tracer
}

// New validates the collaborator set and returns an Orchestrator.
func New(collaborators collab.Set, assembler *assembly.Assembler) (*Orchestrator, error) {
	if err := collaborators.Validate(); err != nil {
		return nil, err
	}
	if assembler == nil {
		return nil, fmt.Errorf("assembler is required")
	}
	return &Orchestrator{
		collaborators: collaborators,
		assembler:     assembler,
		tracer:        otel.Tracer("landingforge/generation"),
	}, nil
}

// Run executes the pipeline for session. On a fatal phase failure the
// session is moved to ERROR with a detail message and the wrapped error is
// returned; degraded phases (reference, palette, background removal, single
// asset failures) log and continue.
func (o *Orchestrator) Run(ctx context.Context, session *domain.Session, req Request) (Result, error) {
	ctx, span := o.tracer.Start(ctx, "generation.run", trace.WithAttributes(
		attribute.String("session.id", session.ID()),
		attribute.Int64("owner.id", session.OwnerID()),
	))
	defer span.End()

	if strings.TrimSpace(req.Prompt) == "" {
		err := errors.New(errors.CodeEmptyPrompt, "prompt is required")
		o.fail(session, err)
		return Result{}, err
	}

	analysis, err := o.analyze(ctx, session, req)
	if err != nil {
		o.fail(session, err)
		return Result{}, err
	}

	reference := o.fetchReference(ctx, session, analysis)
	palette := o.extractPalette(ctx, session, reference)

	generated, err := o.generateAssets(ctx, session, analysis, palette)
	if err != nil {
		o.fail(session, err)
		return Result{}, err
	}

	o.removeBackgrounds(ctx, session)

	markup, err := o.generateCode(ctx, session, analysis, palette)
	if err != nil {
		o.fail(session, err)
		return Result{}, err
	}

	output, err := o.assemble(ctx, session, markup, analysis, req.Sounds)
	if err != nil {
		o.fail(session, err)
		return Result{}, err
	}

	if err := session.SetState(domain.StateComplete, domain.Update{Message: "landing ready"}); err != nil {
		return Result{}, err
	}

	log.Printf("generation complete session_id=%s owner_id=%d mechanic=%s assets=%d archive=%s",
		session.ID(), session.OwnerID(), analysis.MechanicType, generated, output.ArchivePath)

	return Result{
		ArchivePath: output.ArchivePath,
		PreviewPath: output.PreviewPath,
		Analysis:    analysis,
		Palette:     palette,
	}, nil
}

// analyze runs the fatal analysis phase and applies the request's explicit
// overrides on top of the analysis output.
func (o *Orchestrator) analyze(ctx context.Context, session *domain.Session, req Request) (domain.Analysis, error) {
	ctx, span := o.tracer.Start(ctx, "generation.analyze")
	defer span.End()

	if err := session.SetState(domain.StateAnalyzing, domain.Update{Progress: progressAnalyzing, Message: "analyzing prompt"}); err != nil {
		return domain.Analysis{}, err
	}

	analysis, err := o.collaborators.Analyzer.Analyze(ctx, req.Prompt, req.ReferenceImage)
	if err != nil {
		return domain.Analysis{}, errors.Wrap(errors.CodeAnalysisFailed, "prompt analysis failed", err)
	}

	// Explicit request fields win over whatever the analyzer inferred.
	if len(req.Prizes) > 0 {
		analysis.Prizes = append([]string(nil), req.Prizes...)
	}
	if strings.TrimSpace(req.OfferURL) != "" {
		analysis.OfferURL = req.OfferURL
	}
	if strings.TrimSpace(req.Language) != "" {
		analysis.Language = req.Language
	}
	analysis.Language = domain.NormalizeLanguage(analysis.Language)
	analysis.MechanicType = domain.ParseMechanicType(string(analysis.MechanicType))

	if err := session.SetAnalysis(analysis); err != nil {
		return domain.Analysis{}, err
	}
	_ = session.SetState(domain.StateAnalyzing, domain.Update{Progress: progressAnalyzed, Message: "analysis complete"})
	return analysis, nil
}

// fetchReference runs the optional branded-reference lookup. Any failure
// degrades to running without a reference image.
func (o *Orchestrator) fetchReference(ctx context.Context, session *domain.Session, analysis domain.Analysis) []byte {
	if !analysis.Branded || o.collaborators.ReferenceFinder == nil {
		return nil
	}

	ctx, span := o.tracer.Start(ctx, "generation.fetch_reference")
	defer span.End()

	if err := session.SetState(domain.StateFetchingReference, domain.Update{Progress: progressReference, Message: "fetching brand reference"}); err != nil {
		return nil
	}

	reference, err := o.collaborators.ReferenceFinder.FindReference(ctx, analysis.BrandName)
	if err != nil {
		log.Printf("reference lookup degraded session_id=%s brand=%s err=%v", session.ID(), analysis.BrandName, err)
		return nil
	}
	if err := session.SetReference(reference); err != nil {
		return nil
	}
	return reference.ImageData
}

// extractPalette resolves the session palette, substituting the default on
// any failure or when no reference image exists.
func (o *Orchestrator) extractPalette(ctx context.Context, session *domain.Session, referenceImage []byte) domain.Palette {
	palette := domain.DefaultPalette()

	if len(referenceImage) > 0 && o.collaborators.PaletteExtractor != nil {
		ctx, span := o.tracer.Start(ctx, "generation.extract_palette")
		defer span.End()

		if err := session.SetState(domain.StateExtractingPalette, domain.Update{Progress: progressPalette, Message: "extracting palette"}); err == nil {
			extracted, err := o.collaborators.PaletteExtractor.ExtractPalette(ctx, referenceImage)
			switch {
			case err != nil:
				log.Printf("palette extraction degraded session_id=%s err=%v", session.ID(), err)
			case extracted.Empty():
				log.Printf("palette extraction degraded session_id=%s err=empty palette", session.ID())
			default:
				palette = extracted
			}
		}
	}

	_ = session.SetPalette(palette)
	return palette
}

// generateAssets requests every planned image sequentially, threading the
// session id as the shared conversation so the style stays consistent.
// Per-asset failures are tolerated; fewer than minGeneratedAssets successes
// aborts the run before any code generation spend.
func (o *Orchestrator) generateAssets(ctx context.Context, session *domain.Session, analysis domain.Analysis, palette domain.Palette) (int, error) {
	ctx, span := o.tracer.Start(ctx, "generation.generate_assets")
	defer span.End()

	plan := planner.Plan(analysis.MechanicType)
	if err := session.SetState(domain.StateGeneratingAssets, domain.Update{Progress: progressAssetsStart, Message: "generating assets"}); err != nil {
		return 0, err
	}

	step := (progressAssetsEnd - progressAssetsStart) / len(plan)
	generated := 0
	for i, descriptor := range plan {
		if err := ctx.Err(); err != nil {
			return generated, errors.Wrap(errors.CodeUnknown, "generation cancelled", err)
		}

		prompt := assetPrompt(descriptor, analysis, palette)
		image, err := o.collaborators.ImageGenerator.GenerateImage(ctx, prompt, session.ID())
		if err != nil {
			log.Printf("asset generation skipped session_id=%s asset_key=%s err=%v", session.ID(), descriptor.Key, err)
			continue
		}

		asset := domain.Asset{
			Key:      descriptor.Key,
			Data:     image.Data,
			Location: image.URL,
			Width:    descriptor.Width,
			Height:   descriptor.Height,
		}
		if err := session.PutAsset(asset); err != nil {
			return generated, err
		}
		generated++

		progress := progressAssetsStart + step*(i+1)
		_ = session.SetState(domain.StateGeneratingAssets, domain.Update{
			Progress: progress,
			Message:  fmt.Sprintf("generated %s", descriptor.DisplayName),
		})
	}

	if generated < minGeneratedAssets {
		return generated, errors.WithMetadata(errors.CodeAssetsBelowMinimum, "too few assets generated", map[string]string{
			"generated": fmt.Sprintf("%d", generated),
			"minimum":   fmt.Sprintf("%d", minGeneratedAssets),
		})
	}
	return generated, nil
}

// removeBackgrounds post-processes assets whose plan entry asks for
// transparency. Per-asset failure keeps the opaque original.
func (o *Orchestrator) removeBackgrounds(ctx context.Context, session *domain.Session) {
	if o.collaborators.BackgroundRemover == nil {
		return
	}
	analysis, _ := session.Analysis()
	wantsTransparency := make(map[string]bool)
	for _, descriptor := range planner.Plan(analysis.MechanicType) {
		if descriptor.NeedsTransparentBackground {
			wantsTransparency[descriptor.Key] = true
		}
	}

	ctx, span := o.tracer.Start(ctx, "generation.remove_backgrounds")
	defer span.End()

	if err := session.SetState(domain.StateRemovingBackgrounds, domain.Update{Progress: progressBackgrounds, Message: "removing backgrounds"}); err != nil {
		return
	}

	for _, asset := range session.Assets() {
		if !wantsTransparency[asset.Key] || len(asset.Data) == 0 {
			continue
		}
		processed, err := o.collaborators.BackgroundRemover.RemoveBackground(ctx, asset.Data)
		if err != nil {
			log.Printf("background removal skipped session_id=%s asset_key=%s err=%v", session.ID(), asset.Key, err)
			continue
		}
		asset.Data = processed
		asset.Transparent = true
		_ = session.PutAsset(asset)
	}
}

// generateCode runs the fatal markup-generation phase. The generator is
// handed delimited placeholder paths; the assembler substitutes the final
// file locations after assets land on disk.
func (o *Orchestrator) generateCode(ctx context.Context, session *domain.Session, analysis domain.Analysis, palette domain.Palette) (string, error) {
	ctx, span := o.tracer.Start(ctx, "generation.generate_code")
	defer span.End()

	if err := session.SetState(domain.StateGeneratingCode, domain.Update{Progress: progressCode, Message: "generating landing code"}); err != nil {
		return "", err
	}

	assetPaths := make(map[string]string)
	for _, asset := range session.Assets() {
		assetPaths[asset.Key] = assembly.AssetToken(asset.Key)
	}
	for _, key := range planner.SoundKeys(analysis.MechanicType) {
		assetPaths["sound:"+key] = assembly.SoundToken(key)
	}

	markup, err := o.collaborators.CodeGenerator.GenerateMarkup(ctx, analysis, assetPaths, palette)
	if err != nil {
		return "", errors.Wrap(errors.CodeCodeGenerationFailed, "markup generation failed", err)
	}
	if strings.TrimSpace(markup) == "" {
		return "", errors.New(errors.CodeCodeGenerationFailed, "markup generation returned empty document")
	}
	if err := session.SetMarkup(markup); err != nil {
		return "", err
	}
	return markup, nil
}

// assemble materializes the final artifacts through the assembler.
func (o *Orchestrator) assemble(ctx context.Context, session *domain.Session, markup string, analysis domain.Analysis, sounds []domain.Sound) (assembly.Output, error) {
	ctx, span := o.tracer.Start(ctx, "generation.assemble")
	defer span.End()

	if err := session.SetState(domain.StateAssembling, domain.Update{Progress: progressAssembling, Message: "assembling landing"}); err != nil {
		return assembly.Output{}, err
	}

	output, err := o.assembler.Assemble(ctx, assembly.Input{
		SessionID: session.ID(),
		OwnerID:   session.OwnerID(),
		Markup:    markup,
		Assets:    session.Assets(),
		Sounds:    sounds,
		Analysis:  analysis,
		CreatedAt: session.CreatedAt(),
	})
	if err != nil {
		return assembly.Output{}, err
	}
	if err := session.SetArtifacts(output.ArchivePath, output.PreviewPath); err != nil {
		return assembly.Output{}, err
	}
	return output, nil
}

// fail records err on the session and moves it to ERROR. Transition failures
// are logged but never mask the original error.
func (o *Orchestrator) fail(session *domain.Session, err error) {
	detail := err.Error()
	if setErr := session.SetState(domain.StateError, domain.Update{ErrorDetail: detail}); setErr != nil {
		log.Printf("error transition failed session_id=%s err=%v original=%v", session.ID(), setErr, err)
	}
	log.Printf("generation failed session_id=%s owner_id=%d code=%s err=%v",
		session.ID(), session.OwnerID(), errors.CodeOf(err), err)
}

// assetPrompt renders the image-generation prompt for one descriptor.
func assetPrompt(descriptor planner.AssetDescriptor, analysis domain.Analysis, palette domain.Palette) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for a %s promotional game", descriptor.DisplayName, analysis.MechanicType)
	if analysis.Theme != "" {
		fmt.Fprintf(&b, ", theme: %s", analysis.Theme)
	}
	if analysis.Branded && analysis.BrandName != "" {
		fmt.Fprintf(&b, ", brand: %s", analysis.BrandName)
	}
	fmt.Fprintf(&b, ", colors: %s %s %s", palette.Primary, palette.Secondary, palette.Accent)
	fmt.Fprintf(&b, ", %dx%d", descriptor.Width, descriptor.Height)
	if descriptor.NeedsTransparentBackground {
		b.WriteString(", isolated subject on plain background")
	}
	return b.String()
}
