package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/aeye-cli/internal/domain"
	"github.com/bnema/aeye-cli/internal/ports"
)

const (
	SourcesPathKey = "feed.sources_path"

	sourcesFileMode   = 0o600
	sourcesDirMode    = 0o700
	sourcesConfigDir  = ".aeye"
	sourcesConfigFile = "sources.toml"
	tempFilePattern   = ".sources-*.toml.tmp"
)

// Repository stores feed sources in a TOML file. Until the file exists the
// built-in camera list is served.
type Repository struct {
	sourcesPath string
	mu          *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.FeedSourceRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.SetDefault(SourcesPathKey, filepath.Join(homeDir, sourcesConfigDir, sourcesConfigFile))

	sourcesPath := cfg.GetString(SourcesPathKey)
	if sourcesPath == "" {
		return nil, errors.New("feed sources path is empty")
	}
	sourcesPath, err = normalizeSourcesPath(sourcesPath)
	if err != nil {
		return nil, err
	}

	return &Repository{sourcesPath: sourcesPath, mu: lockForPath(sourcesPath)}, nil
}

func (r *Repository) Path() string {
	return r.sourcesPath
}

func (r *Repository) Save(ctx context.Context, source domain.FeedSource) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := source.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(source)
	updated := false
	for i := range file.Sources {
		if file.Sources[i].ID == encoded.ID {
			file.Sources[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Sources = append(file.Sources, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Delete(ctx context.Context, id domain.FeedSourceID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	kept := file.Sources[:0]
	found := false
	for _, entry := range file.Sources {
		if entry.ID == string(id) {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return domain.ErrFeedSourceNotFound
	}
	file.Sources = kept

	return r.writeSchema(file)
}

func (r *Repository) GetByID(ctx context.Context, id domain.FeedSourceID) (domain.FeedSource, error) {
	if err := ctx.Err(); err != nil {
		return domain.FeedSource{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.FeedSource{}, err
	}

	for _, entry := range file.Sources {
		if entry.ID == string(id) {
			return fromSchema(entry), nil
		}
	}

	return domain.FeedSource{}, domain.ErrFeedSourceNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.FeedSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	sources := make([]domain.FeedSource, 0, len(file.Sources))
	for _, entry := range file.Sources {
		sources = append(sources, fromSchema(entry))
	}

	return sources, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.sourcesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultSchema(), nil
		}
		return fileSchema{}, fmt.Errorf("read feed sources file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode feed sources file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	for _, entry := range file.Sources {
		if err := fromSchema(entry).Validate(); err != nil {
			return fileSchema{}, fmt.Errorf("feed source %q in %s: %w", entry.ID, r.sourcesPath, err)
		}
	}

	return file, nil
}

func defaultSchema() fileSchema {
	file := fileSchema{Version: currentSchemaVersion}
	for _, source := range domain.DefaultFeedSources() {
		file.Sources = append(file.Sources, toSchema(source))
	}
	return file
}

func normalizeSourcesPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve feed sources path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.sourcesPath), sourcesDirMode); err != nil {
		return fmt.Errorf("create feed sources directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode feed sources file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.sourcesPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp feed sources file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp feed sources file: %w", err)
	}
	if err := tempFile.Chmod(sourcesFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp feed sources file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp feed sources file: %w", err)
	}
	if err := os.Rename(tempName, r.sourcesPath); err != nil {
		return fmt.Errorf("replace feed sources file: %w", err)
	}
	cleanup = false

	return nil
}

func toSchema(source domain.FeedSource) sourceSchema {
	return sourceSchema{
		ID:   string(source.ID),
		Name: source.Name,
		Path: source.Path,
	}
}

func fromSchema(entry sourceSchema) domain.FeedSource {
	return domain.FeedSource{
		ID:   domain.FeedSourceID(entry.ID),
		Name: entry.Name,
		Path: entry.Path,
	}
}
