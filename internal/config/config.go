package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Storage struct {
		Path string `yaml:"path"` // SQLite database location
	} `yaml:"storage"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
	Author struct {
		Name string `yaml:"name"` // display name used as a fallback biography title
	} `yaml:"author"`
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if dbPath := os.Getenv("STORYSAGE_DB"); dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if exportDir := os.Getenv("STORYSAGE_EXPORT_DIR"); exportDir != "" {
		cfg.Export.Dir = exportDir
	}

	return &cfg, nil
}
