package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/kiosk404/quickgpt/pkg/logger"
	"github.com/spf13/viper"
)

const (
	// RecommendedHomeDir is the default directory name under $HOME.
	RecommendedHomeDir = ".quickgpt"
	// RecommendedEnvPrefix is the prefix of environment variables overriding config keys.
	RecommendedEnvPrefix = "QUICKGPT"
)

// HomeDir returns ~/.quickgpt, falling back to the working directory when $HOME is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return RecommendedHomeDir
	}
	return filepath.Join(home, RecommendedHomeDir)
}

// LoadConfig reads cfg (or <defaultName>.yaml from the working directory and
// the home directory) into the global viper instance. A .env file in the
// working directory is loaded into the process environment first.
// A missing config file is not an error.
func LoadConfig(cfg string, defaultName string) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env file: %v", err)
	}

	if cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath(HomeDir())
		viper.SetConfigName(defaultName)
	}

	viper.SetConfigType("yaml")
	viper.AutomaticEnv()
	viper.SetEnvPrefix(RecommendedEnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			logger.Debug("no config file found for %s, using defaults", defaultName)
			return
		}
		logger.Warn("failed to read configuration file(%s): %v", cfg, err)
		return
	}
	logger.Info("using config file: %s", viper.ConfigFileUsed())
}

// Watch invokes onChange every time the loaded config file is written.
// It is a no-op when no config file was loaded.
func Watch(onChange func()) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.Info("config file changed: %s", e.Name)
		onChange()
	})
	viper.WatchConfig()
}
