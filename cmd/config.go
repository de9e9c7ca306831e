package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/aeye-cli/internal/adapters/api"
	tomlrepo "github.com/bnema/aeye-cli/internal/adapters/repo/toml"
	"github.com/bnema/aeye-cli/internal/application"
)

const (
	configDirName  = ".aeye"
	configFileName = "config"
	envPrefix      = "AEYE"

	keyServerBaseURL        = "server.base_url"
	keyServerRequestTimeout = "server.request_timeout"
	keyFeedInterval         = "feed.interval"
	keyFeedSourcesPath      = tomlrepo.SourcesPathKey
	keyFeedMaxImageBytes    = "feed.max_image_bytes"
	keyCredentialBackend    = "credential.backend"
	keyCredentialPath       = "credential.path"
	keyCredentialPassEntry  = "credential.pass_entry"
	keyLogLevel             = "log.level"
	keyLogFormat            = "log.format"
	keyLogFile              = "log.file"

	credentialBackendFile  = "file"
	credentialBackendPass  = "pass"
	credentialBackendChain = "chain"
)

// loadConfig reads ~/.aeye/config.toml when present and overlays AEYE_*
// environment variables.
func loadConfig() (*viper.Viper, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("resolve home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, configDirName)

	cfg := viper.New()
	cfg.SetDefault(keyServerBaseURL, "http://localhost:8080")
	cfg.SetDefault(keyServerRequestTimeout, api.DefaultRequestTimeout)
	cfg.SetDefault(keyFeedInterval, application.DefaultPollInterval)
	cfg.SetDefault(keyFeedMaxImageBytes, api.DefaultMaxImageBytes)
	cfg.SetDefault(keyCredentialBackend, credentialBackendFile)
	cfg.SetDefault(keyCredentialPath, filepath.Join(configDir, "credential"))
	cfg.SetDefault(keyCredentialPassEntry, "aeye/credential")
	cfg.SetDefault(keyLogLevel, "warn")
	cfg.SetDefault(keyLogFormat, "text")

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetConfigName(configFileName)
	cfg.SetConfigType("toml")
	cfg.AddConfigPath(configDir)
	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, "", fmt.Errorf("read config: %w", err)
		}
	}

	return cfg, configDir, nil
}

func configDuration(cfg *viper.Viper, key string) (time.Duration, error) {
	value := cfg.GetDuration(key)
	if value <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, cfg.GetString(key))
	}
	return value, nil
}
