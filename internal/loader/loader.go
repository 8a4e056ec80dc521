// Copyright 2026 The Baton Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package loader reads workflow templates from YAML files and keeps a
// registrar in sync with a template directory.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/batonflow/baton/pkg/workflow"
)

// Registrar accepts parsed templates. *workflow.Engine satisfies it.
type Registrar interface {
	RegisterWorkflow(tmpl *workflow.Template) error
	ReplaceWorkflow(tmpl *workflow.Template) error
}

// Loader loads workflow templates from disk into a registrar.
type Loader struct {
	target Registrar
	logger *slog.Logger
}

// New creates a loader that registers templates into target.
func New(target Registrar, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		target: target,
		logger: logger.With(slog.String("component", "loader")),
	}
}

// LoadFile parses and validates a single YAML template file.
func LoadFile(path string) (*workflow.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	tmpl, err := workflow.ParseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if err := workflow.ValidateTemplate(tmpl); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return tmpl, nil
}

// LoadDir loads every .yaml/.yml file in dir (non-recursive) and
// registers the templates in filename order. Returns the number of
// templates registered. A file that fails to parse or validate aborts
// the load; files loaded before it stay registered.
func (l *Loader) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read template directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if isTemplateFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	loaded := 0
	for _, path := range files {
		tmpl, err := LoadFile(path)
		if err != nil {
			return loaded, err
		}
		if err := l.target.RegisterWorkflow(tmpl); err != nil {
			return loaded, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		l.logger.Debug("template loaded", "workflow", tmpl.ID, "file", filepath.Base(path))
		loaded++
	}
	return loaded, nil
}

// reload parses path and replaces the registered template. Parse or
// validation errors are logged, never fatal: a broken edit keeps the
// previous template in place.
func (l *Loader) reload(path string) {
	tmpl, err := LoadFile(path)
	if err != nil {
		l.logger.Warn("template reload failed", "file", filepath.Base(path), "error", err)
		return
	}
	if err := l.target.ReplaceWorkflow(tmpl); err != nil {
		l.logger.Warn("template reload rejected", "file", filepath.Base(path), "error", err)
		return
	}
	l.logger.Info("template reloaded", "workflow", tmpl.ID, "file", filepath.Base(path))
}

func isTemplateFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
