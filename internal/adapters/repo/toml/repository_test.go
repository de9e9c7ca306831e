package toml

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/aeye-cli/internal/domain"
)

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()

	sourcesPath := filepath.Join(t.TempDir(), "sources.toml")
	config := viper.New()
	config.Set(SourcesPathKey, sourcesPath)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo, sourcesPath
}

func TestRepositoryServesDefaultsUntilWritten(t *testing.T) {
	t.Parallel()

	repo, sourcesPath := newTestRepository(t)

	sources, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFeedSources(), sources)

	_, err = os.Stat(sourcesPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, sourcesPath := newTestRepository(t)
	gate := domain.FeedSource{ID: "gate", Name: "Front Gate", Path: "/api/images/gate"}

	require.NoError(t, repo.Save(context.Background(), gate))

	got, err := repo.GetByID(context.Background(), "gate")
	require.NoError(t, err)
	assert.Equal(t, gate, got)

	sources, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, append(domain.DefaultFeedSources(), gate), sources)

	info, err := os.Stat(sourcesPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(sourcesFileMode), info.Mode().Perm())

	data, err := os.ReadFile(sourcesPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "Front Gate")
}

func TestRepositorySaveReplacesExistingID(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), domain.FeedSource{ID: "1", Name: "Lobby", Path: "/api/images/1"}))

	got, err := repo.GetByID(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Lobby", got.Name)

	sources, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestRepositoryDelete(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	require.NoError(t, repo.Delete(context.Background(), "1"))
	require.NoError(t, repo.Delete(context.Background(), "2"))

	sources, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sources)

	assert.ErrorIs(t, repo.Delete(context.Background(), "1"), domain.ErrFeedSourceNotFound)

	_, err = repo.GetByID(context.Background(), "1")
	assert.ErrorIs(t, err, domain.ErrFeedSourceNotFound)
}

func TestRepositoryRejectsInvalidSource(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	assert.ErrorContains(t, repo.Save(context.Background(), domain.FeedSource{ID: "x"}), "path is required")
}

func TestRepositoryRejectsNewerSchemaVersion(t *testing.T) {
	t.Parallel()

	repo, sourcesPath := newTestRepository(t)
	require.NoError(t, os.WriteFile(sourcesPath, []byte("version = 9\n"), 0o600))

	_, err := repo.List(context.Background())
	assert.ErrorContains(t, err, "unsupported feed sources schema version 9")
}

func TestRepositoryRejectsInvalidStoredSource(t *testing.T) {
	t.Parallel()

	repo, sourcesPath := newTestRepository(t)
	require.NoError(t, os.WriteFile(sourcesPath, []byte("version = 1\n\n[[sources]]\nid = \"3\"\npath = \"relative\"\n"), 0o600))

	_, err := repo.List(context.Background())
	assert.ErrorContains(t, err, "must be absolute")
}

func TestRepositoryConcurrentSaves(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := strconv.Itoa(100 + i)
			assert.NoError(t, repo.Save(context.Background(), domain.FeedSource{ID: domain.FeedSourceID(id), Path: "/api/images/" + id}))
		}(i)
	}
	wg.Wait()

	sources, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, sources, 12)
}

func TestRepositoryHonoursCanceledContext(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Save(ctx, domain.DefaultFeedSources()[0]), context.Canceled)
}
