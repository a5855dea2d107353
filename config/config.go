package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Minio  MinioConfig  `yaml:"minio"`
	OCR    OCRConfig    `yaml:"ocr"`
	OpenAI OpenAIConfig `yaml:"openai"`
	Store  StoreConfig  `yaml:"store"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// OCRConfig configures the Google Vision text recognition backend.
// An empty APIKey means OCR is not configured; image inputs then extract
// to an empty body instead of failing.
type OCRConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type OpenAIConfig struct {
	Endpoint        string `yaml:"endpoint"`
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

type StoreConfig struct {
	Driver  string `yaml:"driver"` // memory or sqlite
	Path    string `yaml:"path"`   // sqlite database file
	MaxJobs int    `yaml:"max_jobs"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Secrets may come from the environment instead of the file
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.Minio.AccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Minio.SecretKey = v
	}
	if v := os.Getenv("VISION_API_KEY"); v != "" {
		cfg.OCR.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.OCR.Endpoint == "" {
		cfg.OCR.Endpoint = "https://vision.googleapis.com"
	}
	if cfg.OCR.TimeoutSeconds == 0 {
		cfg.OCR.TimeoutSeconds = 30
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4.1-mini"
	}
	if cfg.OpenAI.MaxOutputTokens == 0 {
		cfg.OpenAI.MaxOutputTokens = 4096
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 120
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memory"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "jobs.db"
	}

	return &cfg, nil
}
