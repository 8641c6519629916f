// Package project reads and writes the files of the generated web server
// project.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ChamsBouzaiene/autodev/internal/config"
)

// Store is the file access the backend agent needs.
type Store interface {
	ReadTemplate() (string, error)
	ReadEntryPoint() (string, error)
	WriteEntryPoint(code string) error
	SaveSchema(raw string) error
}

// Files implements Store on the local filesystem.
type Files struct {
	Root       string
	Template   string
	EntryPoint string
	Schema     string
}

// NewFiles resolves every configured path against the project root.
func NewFiles(cfg config.ProjectConfig) *Files {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		root = cfg.Root
	}
	return &Files{
		Root:       root,
		Template:   cfg.Resolve(cfg.TemplatePath),
		EntryPoint: cfg.Resolve(cfg.EntryPointPath),
		Schema:     cfg.Resolve(cfg.SchemaPath),
	}
}

// ReadTemplate returns the code template the first backend draft starts from.
func (f *Files) ReadTemplate() (string, error) {
	data, err := os.ReadFile(f.Template)
	if err != nil {
		return "", fmt.Errorf("failed to read code template: %w", err)
	}
	return string(data), nil
}

// ReadEntryPoint returns the current entry point source.
func (f *Files) ReadEntryPoint() (string, error) {
	data, err := os.ReadFile(f.EntryPoint)
	if err != nil {
		return "", fmt.Errorf("failed to read entry point: %w", err)
	}
	return string(data), nil
}

// WriteEntryPoint replaces the entry point source, creating parent
// directories as needed.
func (f *Files) WriteEntryPoint(code string) error {
	return writeFile(f.EntryPoint, []byte(code), "entry point")
}

// SaveSchema writes the raw route list JSON as returned by the oracle.
func (f *Files) SaveSchema(raw string) error {
	return writeFile(f.Schema, []byte(raw), "api schema")
}

func writeFile(path string, data []byte, what string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", what, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", what, err)
	}
	return nil
}
