package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/spachava753/selenology/internal/models"
)

const (
	EnvOldTool     = "SELENE_OLD"
	EnvNewTool     = "SELENE_NEW"
	EnvScratchRoot = "CLONE_DIRECTORY"
)

// LoadEnvFile loads variables from a .env file without overriding ones
// already set. An empty path loads ".env" if it exists.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &models.ConfigError{Key: ".env", Err: err}
		}
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return &models.ConfigError{Key: path, Err: err}
	}
	return nil
}

// LoadEnvConfig reads the tool binaries and scratch root from the process environment.
func LoadEnvConfig() (models.EnvConfig, error) {
	return EnvConfigFromLookup(os.LookupEnv)
}

// EnvConfigFromLookup builds an EnvConfig using lookup to resolve variables.
// Paths are made absolute against the current directory, since tools run
// with the snapshot directory as their working directory.
func EnvConfigFromLookup(lookup func(string) (string, bool)) (models.EnvConfig, error) {
	oldTool, err := requireEnv(lookup, EnvOldTool)
	if err != nil {
		return models.EnvConfig{}, err
	}
	newTool, err := requireEnv(lookup, EnvNewTool)
	if err != nil {
		return models.EnvConfig{}, err
	}
	scratch, err := requireEnv(lookup, EnvScratchRoot)
	if err != nil {
		return models.EnvConfig{}, err
	}

	for _, kv := range [][2]string{{EnvOldTool, oldTool}, {EnvNewTool, newTool}} {
		if err := checkBinary(kv[1]); err != nil {
			return models.EnvConfig{}, &models.ConfigError{Key: kv[0], Err: err}
		}
	}

	if info, err := os.Stat(scratch); err == nil && !info.IsDir() {
		return models.EnvConfig{}, &models.ConfigError{Key: EnvScratchRoot, Err: fmt.Errorf("%s is not a directory", scratch)}
	}

	return models.EnvConfig{
		OldTool:     oldTool,
		NewTool:     newTool,
		ScratchRoot: scratch,
	}, nil
}

func requireEnv(lookup func(string) (string, bool), key string) (string, error) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", &models.ConfigError{Key: key, Err: fmt.Errorf("no %s env var", key)}
	}
	abs, err := filepath.Abs(v)
	if err != nil {
		return "", &models.ConfigError{Key: key, Err: fmt.Errorf("resolving %s: %w", v, err)}
	}
	return abs, nil
}

func checkBinary(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checking binary: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
