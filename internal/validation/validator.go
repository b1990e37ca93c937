// Package validation checks the templates and saves directories for
// duplicate basenames. Because template identifiers and save-file
// section keys are extension-normalized, two files in the same directory
// that differ only by extension would be ambiguous, so startup warns
// about them.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DuplicateGroup is a set of files in one directory sharing a basename
// once extensions are stripped.
type DuplicateGroup struct {
	Directory string
	Basename  string
	Files     []string
}

// Result is the outcome of validating both directories.
type Result struct {
	Duplicates       []DuplicateGroup
	TemplatesChecked int
	SavesChecked     int
}

// HasDuplicates reports whether any ambiguous basenames were found.
func (r *Result) HasDuplicates() bool {
	return len(r.Duplicates) > 0
}

// Summary returns a one-line human-readable result.
func (r *Result) Summary() string {
	if !r.HasDuplicates() {
		return fmt.Sprintf("No duplicates found. Checked %d template file(s) and %d save file(s).",
			r.TemplatesChecked, r.SavesChecked)
	}
	return fmt.Sprintf("Found %d ambiguous basename group(s) across %d template file(s) and %d save file(s).",
		len(r.Duplicates), r.TemplatesChecked, r.SavesChecked)
}

// Validator inspects the templates and saves directories.
type Validator struct {
	templatesDir string
	savesDir     string
}

// NewValidator creates a validator over the two directories.
func NewValidator(templatesDir, savesDir string) *Validator {
	return &Validator{templatesDir: templatesDir, savesDir: savesDir}
}

// Validate scans both directories. Duplicates are only flagged within a
// single directory; the same basename in different subdirectories is fine.
func (v *Validator) Validate() (*Result, error) {
	result := &Result{}

	templateDups, templateCount, err := validateDirectory(v.templatesDir)
	if err != nil {
		return nil, err
	}
	result.Duplicates = append(result.Duplicates, templateDups...)
	result.TemplatesChecked = templateCount

	saveDups, saveCount, err := validateDirectory(v.savesDir)
	if err != nil {
		return nil, err
	}
	result.Duplicates = append(result.Duplicates, saveDups...)
	result.SavesChecked = saveCount

	return result, nil
}

func validateDirectory(dir string) ([]DuplicateGroup, int, error) {
	// directory -> basename -> files
	seen := map[string]map[string][]string{}
	count := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			return nil
		}
		count++
		parent := filepath.Dir(path)
		base := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
		if seen[parent] == nil {
			seen[parent] = map[string][]string{}
		}
		seen[parent][base] = append(seen[parent][base], info.Name())
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	var groups []DuplicateGroup
	for parent, basenames := range seen {
		for base, files := range basenames {
			if len(files) > 1 {
				sort.Strings(files)
				groups = append(groups, DuplicateGroup{Directory: parent, Basename: base, Files: files})
			}
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Directory != groups[j].Directory {
			return groups[i].Directory < groups[j].Directory
		}
		return groups[i].Basename < groups[j].Basename
	})
	return groups, count, nil
}
