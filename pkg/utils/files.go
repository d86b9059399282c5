package utils

import (
	"path/filepath"
	"strings"
)

func GetPathInfo(relPath string) (fullPath string, parentDir string, err error) {
	// Convert to absolute path (resolves ../../ and cleans the path)
	fullPath, err = filepath.Abs(relPath)
	if err != nil {
		return "", "", err
	}

	// Get the directory containing the file
	parentDir = filepath.Dir(fullPath)

	return fullPath, parentDir, nil
}

// OutputPath returns the listing path for a source file: the source path
// with its extension replaced by ext, next to the source.
func OutputPath(srcPath, ext string) string {
	base := strings.TrimSuffix(srcPath, filepath.Ext(srcPath))
	return base + ext
}
