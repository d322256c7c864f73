package models

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Statement points at one bank statement file on disk.
type Statement struct {
	FilePath string `yaml:"file"`
	Note     string `yaml:"note,omitempty"`
}

// File returns the path to the statement file, expanding ~.
func (s *Statement) File() (string, error) {
	if strings.HasPrefix(s.FilePath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, s.FilePath[2:]), nil
	}
	return s.FilePath, nil
}

// Read loads the statement bytes.
func (s *Statement) Read() (string, []byte, error) {
	path, err := s.File()
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read statement file %s: %w", path, err)
	}
	return filepath.Base(path), data, nil
}
