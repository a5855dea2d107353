package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	configContent := `
server:
  port: 9090
log:
  level: "debug"
  format: "json"
minio:
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "study-uploads"
  use_ssl: false
ocr:
  endpoint: "https://vision.test"
  api_key: "vision-key"
  timeout_seconds: 15
openai:
  api_key: "openai-key"
  model: "gpt-4.1-mini"
  max_output_tokens: 2048
  timeout_seconds: 60
store:
  driver: "sqlite"
  path: "test-jobs.db"
  max_jobs: 50
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Minio.Endpoint != "localhost:9000" {
		t.Errorf("Expected endpoint localhost:9000, got %s", cfg.Minio.Endpoint)
	}
	if cfg.Minio.Bucket != "study-uploads" {
		t.Errorf("Expected bucket study-uploads, got %s", cfg.Minio.Bucket)
	}
	if cfg.OCR.APIKey != "vision-key" {
		t.Errorf("Expected OCR api key vision-key, got %s", cfg.OCR.APIKey)
	}
	if cfg.OCR.TimeoutSeconds != 15 {
		t.Errorf("Expected OCR timeout 15, got %d", cfg.OCR.TimeoutSeconds)
	}
	if cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Errorf("Expected model gpt-4.1-mini, got %s", cfg.OpenAI.Model)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("Expected store driver sqlite, got %s", cfg.Store.Driver)
	}
	if cfg.Store.MaxJobs != 50 {
		t.Errorf("Expected max jobs 50, got %d", cfg.Store.MaxJobs)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
}

func TestLoadDefaults(t *testing.T) {
	configContent := `
minio:
  endpoint: "localhost:9000"
  bucket: "study-uploads"
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.OCR.Endpoint != "https://vision.googleapis.com" {
		t.Errorf("Expected default OCR endpoint, got %s", cfg.OCR.Endpoint)
	}
	if cfg.OCR.TimeoutSeconds != 30 {
		t.Errorf("Expected default OCR timeout 30, got %d", cfg.OCR.TimeoutSeconds)
	}
	if cfg.OpenAI.Model != "gpt-4.1-mini" {
		t.Errorf("Expected default model, got %s", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxOutputTokens != 4096 {
		t.Errorf("Expected default max tokens 4096, got %d", cfg.OpenAI.MaxOutputTokens)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("Expected default store driver memory, got %s", cfg.Store.Driver)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	configContent := `
openai:
  api_key: "from-file"
ocr:
  api_key: "from-file"
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("VISION_API_KEY", "vision-from-env")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.OpenAI.APIKey != "from-env" {
		t.Errorf("Expected env override for OpenAI key, got %s", cfg.OpenAI.APIKey)
	}
	if cfg.OCR.APIKey != "vision-from-env" {
		t.Errorf("Expected env override for Vision key, got %s", cfg.OCR.APIKey)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/non/existent/config.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.WriteString("server:\n  port: [not a number")
	tmpFile.Close()

	_, err = Load(tmpFile.Name())
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
