// Package plan reads a YAML list of statement files to import together.
package plan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yurifrl/conciliador/pkg/importer"
	"github.com/yurifrl/conciliador/pkg/models"
)

type Plan struct {
	Statements []models.Statement `yaml:"statements"`
}

// Load reads a plan file. Relative statement paths are resolved against the
// plan's directory.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(p.Statements) == 0 {
		return nil, fmt.Errorf("plan has no statements")
	}
	base := filepath.Dir(path)
	for i, st := range p.Statements {
		if st.FilePath == "" {
			return nil, fmt.Errorf("statement %d has no file", i+1)
		}
		if !filepath.IsAbs(st.FilePath) && !strings.HasPrefix(st.FilePath, "~/") {
			p.Statements[i].FilePath = filepath.Join(base, st.FilePath)
		}
	}
	return &p, nil
}

// Files reads every statement.
func (p *Plan) Files() ([]importer.File, error) {
	files := make([]importer.File, 0, len(p.Statements))
	for _, st := range p.Statements {
		name, data, err := st.Read()
		if err != nil {
			return nil, err
		}
		files = append(files, importer.File{Name: name, Data: data})
	}
	return files, nil
}

func (p *Plan) Print(w io.Writer) {
	for i, st := range p.Statements {
		if st.Note != "" {
			fmt.Fprintf(w, "[%d] file=%s note=%s\n", i+1, st.FilePath, st.Note)
			continue
		}
		fmt.Fprintf(w, "[%d] file=%s\n", i+1, st.FilePath)
	}
}
