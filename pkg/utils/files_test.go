package utils

import (
	"path/filepath"
	"testing"
)

func TestGetPathInfo(t *testing.T) {
	full, dir, err := GetPathInfo("testdata/../prog.imp")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(full) || filepath.Base(full) != "prog.imp" {
		t.Errorf("fullPath = %q", full)
	}
	if dir != filepath.Dir(full) {
		t.Errorf("parentDir = %q; want %q", dir, filepath.Dir(full))
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		src, ext, want string
	}{
		{"prog.imp", ".mr", "prog.mr"},
		{"dir/sub/prog.imp", ".out", "dir/sub/prog.out"},
		{"noext", ".mr", "noext.mr"},
		{"a.b/prog", ".mr", "a.b/prog.mr"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.src, tt.ext); got != tt.want {
			t.Errorf("OutputPath(%q, %q) = %q; want %q", tt.src, tt.ext, got, tt.want)
		}
	}
}
