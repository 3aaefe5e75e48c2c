// Package assembly materializes generated content into a per-owner sandboxed
// directory and bundles it into a deployable archive.
package assembly

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lunagrove/landingforge/internal/assembly/defaults"
	"github.com/lunagrove/landingforge/internal/generation/domain"
	"github.com/lunagrove/landingforge/internal/pathsafe"
	"github.com/lunagrove/landingforge/internal/platform/errors"
)

const (
	landingsDirName = "landings"
	markupFileName  = "index.html"
	previewFileName = "preview.png"
)

// ErrAssemblyInFlight indicates another assembly already holds the lock for
// the same (owner, session) pair.
var ErrAssemblyInFlight = errors.New(errors.CodeAssemblyInFlight, "assembly already in progress for this landing")

// Config configures an Assembler.
type Config struct {
	// Root is the storage root under which all landings are written.
	Root string
	// Clock overrides the time source, for tests.
	Clock func() time.Time
}

// Assembler writes final artifacts into a sandboxed directory and produces
// the landing archive. One assembly may be in flight per (owner, session).
type Assembler struct {
	root  string
	clock func() time.Time
	locks *keyedLock
}

// Input carries everything needed to materialize one landing.
type Input struct {
	SessionID string
	OwnerID   int64
	Markup    string
	Assets    []domain.Asset
	Sounds    []domain.Sound
	Analysis  domain.Analysis
	CreatedAt time.Time
}

// Output reports where the landing was materialized.
type Output struct {
	Dir         string
	ArchivePath string
	PreviewPath string
}

// New creates an Assembler rooted at cfg.Root.
func New(cfg Config) (*Assembler, error) {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Assembler{
		root:  absRoot,
		clock: clock,
		locks: newKeyedLock(),
	}, nil
}

// Assemble validates identifiers, claims the per-landing lock, writes all
// artifacts, and bundles the archive. Individual asset or sound copy
// failures are logged and the item is omitted; identifier, markup-write and
// archive failures are fatal.
func (a *Assembler) Assemble(ctx context.Context, in Input) (Output, error) {
	// Identifier validation happens before any filesystem access.
	if !pathsafe.ValidSessionID(in.SessionID) {
		return Output{}, errors.WithMetadata(errors.CodeInvalidSessionID, "malformed session id", map[string]string{
			"session_id": in.SessionID,
		})
	}
	if !pathsafe.ValidOwnerID(in.OwnerID) {
		return Output{}, errors.WithMetadata(errors.CodeInvalidOwnerID, "malformed owner id", map[string]string{
			"owner_id": strconv.FormatInt(in.OwnerID, 10),
		})
	}

	lockKey := strconv.FormatInt(in.OwnerID, 10) + "/" + in.SessionID
	release, ok := a.locks.TryAcquire(lockKey)
	if !ok {
		return Output{}, ErrAssemblyInFlight
	}
	defer release()

	dir, err := a.landingDir(in.OwnerID, in.SessionID)
	if err != nil {
		return Output{}, errors.Wrap(errors.CodeAssemblyFailed, "resolve landing directory", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		return Output{}, errors.Wrap(errors.CodeAssemblyFailed, "create assets directory", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sounds"), 0o755); err != nil {
		return Output{}, errors.Wrap(errors.CodeAssemblyFailed, "create sounds directory", err)
	}

	assetPaths := a.writeAssets(ctx, dir, in)
	soundPaths := a.writeSounds(ctx, dir, in)

	markup := rewriteMarkup(in.Markup, assetPaths, soundPaths)
	if err := os.WriteFile(filepath.Join(dir, markupFileName), []byte(markup), 0o644); err != nil {
		return Output{}, errors.Wrap(errors.CodeAssemblyFailed, "write markup", err)
	}

	if err := a.writeMetadata(dir, in, assetPaths, soundPaths); err != nil {
		return Output{}, errors.Wrap(errors.CodeAssemblyFailed, "write metadata", err)
	}

	archivePath := filepath.Join(dir, in.SessionID+".zip")
	if err := writeArchive(archivePath, dir); err != nil {
		return Output{}, errors.Wrap(errors.CodeAssemblyFailed, "write archive", err)
	}

	return Output{
		Dir:         dir,
		ArchivePath: archivePath,
		PreviewPath: filepath.Join(dir, previewFileName),
	}, nil
}

// landingDir builds <root>/landings/<ownerID>/<sessionID>, passing every
// caller-influenced segment through the path validator.
func (a *Assembler) landingDir(ownerID int64, sessionID string) (string, error) {
	landings, err := pathsafe.SanitizeJoin(a.root, landingsDirName)
	if err != nil {
		return "", err
	}
	ownerDir, err := pathsafe.SanitizeJoin(landings, strconv.FormatInt(ownerID, 10))
	if err != nil {
		return "", err
	}
	return pathsafe.SanitizeJoin(ownerDir, sessionID)
}

// writeAssets copies each asset into assets/, returning key → relative path
// for every item that landed. Copy failures are logged and skipped.
func (a *Assembler) writeAssets(ctx context.Context, dir string, in Input) map[string]string {
	paths := make(map[string]string, len(in.Assets))
	for _, asset := range in.Assets {
		if ctx.Err() != nil {
			break
		}
		data, err := itemBytes(asset.Data, asset.Location)
		if err != nil {
			log.Printf("assembly asset skipped session_id=%s asset_key=%s err=%v", in.SessionID, asset.Key, err)
			continue
		}
		fileName := asset.Key + assetExtension(asset, data)
		if err := os.WriteFile(filepath.Join(dir, "assets", fileName), data, 0o644); err != nil {
			log.Printf("assembly asset skipped session_id=%s asset_key=%s err=%v", in.SessionID, asset.Key, err)
			continue
		}
		paths[asset.Key] = relativeAssetPath(fileName)
	}
	return paths
}

// writeSounds copies each sound into sounds/, falling back to the bundled
// default set when the session supplied none.
func (a *Assembler) writeSounds(ctx context.Context, dir string, in Input) map[string]string {
	if len(in.Sounds) == 0 {
		return a.writeDefaultSounds(dir, in.SessionID)
	}

	paths := make(map[string]string, len(in.Sounds))
	for _, sound := range in.Sounds {
		if ctx.Err() != nil {
			break
		}
		data, err := itemBytes(sound.Data, sound.Location)
		if err != nil {
			log.Printf("assembly sound skipped session_id=%s sound_key=%s err=%v", in.SessionID, sound.Key, err)
			continue
		}
		fileName := sound.Key + ".mp3"
		if err := os.WriteFile(filepath.Join(dir, "sounds", fileName), data, 0o644); err != nil {
			log.Printf("assembly sound skipped session_id=%s sound_key=%s err=%v", in.SessionID, sound.Key, err)
			continue
		}
		paths[sound.Key] = relativeSoundPath(fileName)
	}
	return paths
}

func (a *Assembler) writeDefaultSounds(dir, sessionID string) map[string]string {
	paths := make(map[string]string)
	entries, err := fs.ReadDir(defaults.Sounds, "sounds")
	if err != nil {
		log.Printf("assembly default sounds unavailable session_id=%s err=%v", sessionID, err)
		return paths
	}
	for _, entry := range entries {
		data, err := fs.ReadFile(defaults.Sounds, "sounds/"+entry.Name())
		if err != nil {
			log.Printf("assembly default sound skipped session_id=%s sound=%s err=%v", sessionID, entry.Name(), err)
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, "sounds", entry.Name()), data, 0o644); err != nil {
			log.Printf("assembly default sound skipped session_id=%s sound=%s err=%v", sessionID, entry.Name(), err)
			continue
		}
		key := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		paths[key] = relativeSoundPath(entry.Name())
	}
	return paths
}

// metadataDocument summarizes the session for downstream tooling.
type metadataDocument struct {
	SessionID string           `json:"sessionId"`
	OwnerID   int64            `json:"ownerId"`
	CreatedAt time.Time        `json:"createdAt"`
	Analysis  metadataAnalysis `json:"analysis"`
	AssetKeys []string         `json:"assetKeys"`
	SoundKeys []string         `json:"soundKeys"`
}

type metadataAnalysis struct {
	MechanicName string   `json:"mechanicName"`
	Language     string   `json:"language"`
	Prizes       []string `json:"prizes,omitempty"`
}

func (a *Assembler) writeMetadata(dir string, in Input, assetPaths, soundPaths map[string]string) error {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = a.clock()
	}

	doc := metadataDocument{
		SessionID: in.SessionID,
		OwnerID:   in.OwnerID,
		CreatedAt: createdAt.UTC(),
		Analysis: metadataAnalysis{
			MechanicName: in.Analysis.MechanicName(),
			Language:     in.Analysis.Language,
			Prizes:       in.Analysis.Prizes,
		},
		AssetKeys: sortedKeys(assetPaths),
		SoundKeys: sortedKeys(soundPaths),
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "metadata.json"), encoded, 0o644)
}

// writeArchive bundles index.html plus the assets/ and sounds/ subtrees into
// a zip at archivePath. A partially written archive is removed on failure so
// a disk-full or permission error never leaves a truncated artifact behind.
func writeArchive(archivePath, dir string) (err error) {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}

	zipWriter := zip.NewWriter(out)
	defer func() {
		if closeErr := zipWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(archivePath)
		}
	}()

	if err = addFileToArchive(zipWriter, filepath.Join(dir, markupFileName), markupFileName); err != nil {
		return err
	}
	for _, sub := range []string{"assets", "sounds"} {
		if err = addDirToArchive(zipWriter, filepath.Join(dir, sub), sub); err != nil {
			return err
		}
	}
	return nil
}

func addDirToArchive(zipWriter *zip.Writer, dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := addFileToArchive(zipWriter, filepath.Join(dir, entry.Name()), prefix+"/"+entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

func addFileToArchive(zipWriter *zip.Writer, path, name string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	entry, err := zipWriter.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(entry, in); err != nil {
		return err
	}
	return nil
}

// itemBytes resolves an item's content: in-memory data wins, otherwise the
// bytes are read from the item's location on disk.
func itemBytes(data []byte, location string) ([]byte, error) {
	if len(data) > 0 {
		return data, nil
	}
	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("no data or location")
	}
	return os.ReadFile(location)
}

// assetExtension picks a file extension from the asset's location, falling
// back to sniffing the image bytes, then to .png.
func assetExtension(asset domain.Asset, data []byte) string {
	if ext := filepath.Ext(asset.Location); ext != "" {
		return extensionOrDefault(ext, ".png")
	}
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return ".png"
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return ".jpg"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return ".gif"
	case bytes.HasPrefix(data, []byte("RIFF")):
		return ".webp"
	default:
		return ".png"
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
