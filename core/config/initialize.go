package config

import (
	"os"
	"path/filepath"

	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/spf13/afero"
)

// Initialize writes the default configuration into the directory at path,
// creating it if needed. An existing configuration is left untouched.
func Initialize(path string) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		return err
	}
	return InitializeFs(afero.NewBasePathFs(afero.NewOsFs(), path))
}

// InitializeFs writes the default configuration to the root of fs.
func InitializeFs(fs afero.Fs) error {
	log := logger.Component("config")

	exists, err := afero.Exists(fs, ConfigurationName)
	switch {
	case err != nil:
		return err
	case exists:
		log.Info().Str("file", ConfigurationName).Msg("configuration exists, skipping")
		return nil
	}

	log.Info().Str("file", ConfigurationName).Msg("writing default configuration")
	return afero.WriteFile(fs, ConfigurationName, defaultConfigData, 0600)
}
