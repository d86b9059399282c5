//go:build !linux && !js

package main

import (
	"context"
	"errors"
	"time"
)

func watchFiles(ctx context.Context, paths []string, debounce time.Duration, onChange func(string)) error {
	return errors.New("-watch is only supported on linux")
}
