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

// Package examples ships example workflow templates embedded in the
// binary, so they work offline and stay in sync with the release.
package examples

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed *.yaml
var embeddedFS embed.FS

// Example represents metadata about an embedded example workflow
type Example struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FilePath    string `json:"file_path"`
}

// List returns all available embedded examples
func List() ([]Example, error) {
	entries, err := embeddedFS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded examples: %w", err)
	}

	var examples []Example
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".yaml")
		examples = append(examples, Example{
			Name:        name,
			Description: getDescription(name),
			FilePath:    entry.Name(),
		})
	}

	return examples, nil
}

// Get returns the content of a specific example by name
func Get(name string) ([]byte, error) {
	filename := name + ".yaml"
	content, err := embeddedFS.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("example %q not found: %w", name, err)
	}
	return content, nil
}

// Exists checks if an example with the given name exists
func Exists(name string) bool {
	filename := name + ".yaml"
	_, err := embeddedFS.ReadFile(filename)
	return err == nil
}

// CopyTo writes an example to the filesystem at the specified destination
func CopyTo(name string, destPath string) error {
	content, err := Get(name)
	if err != nil {
		return err
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err := os.WriteFile(destPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write example file: %w", err)
	}

	return nil
}

// getDescription returns a human-readable description for each example
func getDescription(name string) string {
	descriptions := map[string]string{
		"hello-world":   "Minimal two-step workflow for trying out Baton",
		"deploy":        "Parallel deployment with health check and rollback handlers",
		"data-pipeline": "Conditional fan-out pipeline with retryable fetch steps",
	}

	if desc, ok := descriptions[name]; ok {
		return desc
	}
	return "Example workflow"
}
