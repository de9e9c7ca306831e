package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/bnema/aeye-cli/internal/adapters/api"
	chainstore "github.com/bnema/aeye-cli/internal/adapters/credential/chain"
	filestore "github.com/bnema/aeye-cli/internal/adapters/credential/file"
	passstore "github.com/bnema/aeye-cli/internal/adapters/credential/pass"
	tomlrepo "github.com/bnema/aeye-cli/internal/adapters/repo/toml"
	"github.com/bnema/aeye-cli/internal/adapters/token"
	"github.com/bnema/aeye-cli/internal/application"
	"github.com/bnema/aeye-cli/internal/logging"
	"github.com/bnema/aeye-cli/internal/ports"
)

type app struct {
	cfg       *viper.Viper
	configDir string
	logger    *slog.Logger
	logFile   *os.File
	clock     ports.Clock

	store    ports.CredentialStore
	client   *api.Client
	sessions *application.SessionManager
	guard    *application.AccessGuard
	auth     *application.AuthService
	catalog  *application.FeedCatalog
	nav      *writerNavigator
}

func (a *app) wire(stdout io.Writer, stderr io.Writer) error {
	cfg, configDir, err := loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.configDir = configDir
	a.clock = ports.SystemClock{}

	logger, err := a.openLogger(stderr, cfg.GetString(keyLogFile))
	if err != nil {
		return err
	}
	a.logger = logger

	store, err := newCredentialStore(cfg)
	if err != nil {
		return fmt.Errorf("wire credential store: %w", err)
	}
	a.store = store

	requestTimeout, err := configDuration(cfg, keyServerRequestTimeout)
	if err != nil {
		return err
	}
	client, err := api.NewClient(api.Options{
		BaseURL:        cfg.GetString(keyServerBaseURL),
		HTTPClient:     &http.Client{},
		Credentials:    store,
		Clock:          a.clock,
		RequestTimeout: requestTimeout,
		MaxImageBytes:  cfg.GetInt64(keyFeedMaxImageBytes),
	})
	if err != nil {
		return fmt.Errorf("wire api client: %w", err)
	}
	a.client = client

	repo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return fmt.Errorf("wire feed source repository: %w", err)
	}

	a.nav = &writerNavigator{out: stdout}
	a.sessions = application.NewSessionManager(store, token.NewDecoder(token.WithClock(a.clock)), client, a.nav, logger)
	a.guard = application.NewAccessGuard(nil)
	a.auth = application.NewAuthService(client, a.sessions)
	a.catalog = application.NewFeedCatalog(repo)

	return nil
}

// openLogger sends logs to stderr unless a log file is configured.
func (a *app) openLogger(stderr io.Writer, path string) (*slog.Logger, error) {
	var out io.Writer = stderr
	if strings.TrimSpace(path) != "" {
		file, err := openLogFile(path)
		if err != nil {
			return nil, err
		}
		a.logFile = file
		out = file
	}

	logger, err := logging.Setup(out, a.cfg.GetString(keyLogLevel), a.cfg.GetString(keyLogFormat))
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	return logger, nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

func newCredentialStore(cfg *viper.Viper) (ports.CredentialStore, error) {
	path := cfg.GetString(keyCredentialPath)
	entry := cfg.GetString(keyCredentialPassEntry)

	switch backend := strings.ToLower(strings.TrimSpace(cfg.GetString(keyCredentialBackend))); backend {
	case credentialBackendFile, "":
		return filestore.NewStore(path), nil
	case credentialBackendPass:
		return passstore.NewStore(entry), nil
	case credentialBackendChain:
		return chainstore.NewPassFirstWithFileFallback(entry, path)
	default:
		return nil, fmt.Errorf("unknown credential backend %q (want %s, %s or %s)", backend, credentialBackendFile, credentialBackendPass, credentialBackendChain)
	}
}

// writerNavigator reports navigation requests on the command output.
type writerNavigator struct {
	mu  sync.Mutex
	out io.Writer
}

func (n *writerNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.out, "-> %s\n", path)
}

var errNotSignedIn = errors.New("not signed in: run `aeye login`")
