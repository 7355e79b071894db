package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const defaultConfigFile = "etl_config.json"

// fileConfig is the JSON config document; only csv_files is required
// when the file is used at all.
type fileConfig struct {
	CSVFiles []string `json:"csv_files"`
}

// resolveInputs turns the positional arguments (paths or glob
// patterns) into concrete CSV paths, falling back to the JSON config
// file when no arguments were given. An empty result is a
// configuration error: the pipeline never starts without input.
func resolveInputs(args []string, configPath string) ([]string, error) {
	patterns := args
	if len(patterns) == 0 {
		fromConfig, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		patterns = fromConfig
	}

	var paths []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			// A plain path with no glob metacharacters must exist.
			if _, statErr := os.Stat(pattern); statErr != nil {
				return nil, fmt.Errorf("no input matches %q", pattern)
			}
			matches = []string{pattern}
		}
		paths = append(paths, matches...)
	}

	if len(paths) == 0 {
		return nil, errors.New("no CSV inputs resolved")
	}
	return paths, nil
}

func readConfigFile(path string) ([]string, error) {
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return nil, fmt.Errorf("no CSV paths given and no %s found", defaultConfigFile)
		}
		return nil, err
	}
	var cfg fileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if len(cfg.CSVFiles) == 0 {
		return nil, fmt.Errorf("config %s has no csv_files entries", path)
	}
	return cfg.CSVFiles, nil
}

// loadAcademyTable reads an academy→zone override table, a JSON
// object of académie name to zone letter ({"Lyon": "A", ...}).
func loadAcademyTable(path string) (academyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid academy table %s: %w", path, err)
	}
	table := make(academyTable, len(raw))
	for academy, letter := range raw {
		letter = strings.ToLower(strings.TrimSpace(letter))
		if _, ok := zoneByLetter[letter]; !ok {
			return nil, fmt.Errorf("academy table %s: %q has invalid zone %q", path, academy, letter)
		}
		table[normalizeText(academy)] = letter
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("academy table %s is empty", path)
	}
	return table, nil
}

// dbURLFromEnv resolves the destination database URL, loading an
// optional .env first so local runs match the deployed environment.
func dbURLFromEnv() string {
	_ = godotenv.Load()
	if value := strings.TrimSpace(os.Getenv("VACANCES_DB_URL")); value != "" {
		return value
	}
	return strings.TrimSpace(os.Getenv("DATABASE_URL"))
}
