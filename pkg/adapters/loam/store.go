package loam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/adapters/fs"
	"github.com/aretw0/loam/pkg/core"

	"github.com/halu886/warehouse/pkg/domain"
)

const ext = ".json"

// Store implements ports.DocumentStore on a Loam repository. Each document is
// kept as the metadata of one Loam document, serialized as JSON.
type Store struct {
	Repo core.Repository
}

// New wraps an initialized Loam repository.
func New(repo core.Repository) *Store {
	return &Store{Repo: repo}
}

// Open initializes a Loam repository rooted at path, without versioning, and
// wraps it. Extra options are applied after the defaults.
func Open(path string, opts ...loam.Option) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve loam path: %w", err)
	}
	defaults := []loam.Option{
		loam.WithVersioning(false),
		loam.WithForceTemp(false),
		loam.WithSerializer(ext, fs.NewJSONSerializer(true)),
	}
	repo, err := loam.Init(absPath, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(repo), nil
}

// checkID rejects ids that would escape the repository root.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return nil
}

// Save writes doc as the metadata of the Loam document for id.
func (s *Store) Save(ctx context.Context, id string, doc domain.Document) error {
	if err := checkID(id); err != nil {
		return err
	}
	meta, err := normalize(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}

	ctx = context.WithValue(ctx, core.ChangeReasonKey, "warehouse: save "+id)
	if err := s.Repo.Save(ctx, core.Document{ID: id + ext, Metadata: core.Metadata(meta)}); err != nil {
		return fmt.Errorf("loam save failed for %s: %w", id, err)
	}
	return nil
}

// Load returns the document stored under id. Values come back in their JSON
// form, so numbers are float64 like the other JSON-backed stores.
func (s *Store) Load(ctx context.Context, id string) (domain.Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		if s.missing(ctx, id, err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	out, err := normalize(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return out, nil
}

// Delete removes the document. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	ctx = context.WithValue(ctx, core.ChangeReasonKey, "warehouse: delete "+id)
	if err := s.Repo.Delete(ctx, id); err != nil {
		if s.missing(ctx, id, err) {
			return nil
		}
		return fmt.Errorf("loam delete failed for %s: %w", id, err)
	}
	return nil
}

// List returns the ids of the stored documents, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := filepath.Base(doc.ID)
		if trimmed, ok := strings.CutSuffix(id, ext); ok {
			id = trimmed
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}

// missing reports whether err means id has no document. Loam reports absent
// files through the filesystem error, anything else is checked by listing.
func (s *Store) missing(ctx context.Context, id string, err error) bool {
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	ids, listErr := s.List(ctx)
	if listErr != nil {
		return false
	}
	_, found := slices.BinarySearch(ids, id)
	return !found
}

// normalize round-trips m through JSON so nested values are plain maps,
// slices and float64 and share nothing with the input.
func normalize[M ~map[string]any](m M) (domain.Document, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	out := domain.Document{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
