// internal/workers/document-intake/extract-form-data/resolve.go
package extractformdata

import (
	"os"
	"path/filepath"
	"strings"

	apperrors "fep-agent/internal/common/errors"
)

// resolve finds name inside dir: an exact match first, else the first
// entry, in name order, that starts with name.
func resolve(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", apperrors.NewInvalidInputError("invalid evidence file name: " + name)
	}

	exact := filepath.Join(dir, name)
	if info, err := os.Stat(exact); err == nil && info.Mode().IsRegular() {
		return name, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.NewFileNotFoundError(name)
		}
		return "", apperrors.NewInternalError(err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), name) {
			return e.Name(), nil
		}
	}
	return "", apperrors.NewFileNotFoundError(name)
}

// listEvidence returns every regular file in dir in name order.
func listEvidence(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewFileNotFoundError(dir)
		}
		return nil, apperrors.NewInternalError(err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
