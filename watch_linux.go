//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
	"unsafe"

	"github.com/chceswieta/kompilator/pkg/utils"
	"golang.org/x/sys/unix"
)

type fileWatcher struct {
	fd       int
	debounce time.Duration
	onChange func(string)

	mu      sync.Mutex
	paths   map[int]string
	pending map[string]*time.Timer
}

func newFileWatcher(debounce time.Duration, onChange func(string)) (*fileWatcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init failed: %w", err)
	}
	return &fileWatcher{
		fd:       fd,
		debounce: debounce,
		onChange: onChange,
		paths:    make(map[int]string),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// add watches path. Callbacks receive the path as given, not the absolute one.
func (fw *fileWatcher) add(path string) error {
	full, _, err := utils.GetPathInfo(path)
	if err != nil {
		return err
	}
	wd, err := unix.InotifyAddWatch(fw.fd, full, unix.IN_MODIFY|unix.IN_CLOSE_WRITE)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", full, err)
	}
	fw.mu.Lock()
	fw.paths[wd] = path
	fw.mu.Unlock()
	return nil
}

func (fw *fileWatcher) run(ctx context.Context) error {
	// Watches are on files, so events carry no name.
	buf := make([]byte, unix.SizeofInotifyEvent*64)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := unix.Read(fw.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return fmt.Errorf("reading inotify events: %w", err)
		}

		for offset := 0; offset+unix.SizeofInotifyEvent <= n; {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent + int(event.Len)
			if event.Mask&(unix.IN_MODIFY|unix.IN_CLOSE_WRITE) == 0 {
				continue
			}
			fw.mu.Lock()
			path := fw.paths[int(event.Wd)]
			fw.mu.Unlock()
			if path != "" {
				fw.schedule(path)
			}
		}
	}
}

// schedule restarts the quiet period for path; an editor's burst of writes
// produces a single callback.
func (fw *fileWatcher) schedule(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if t, ok := fw.pending[path]; ok {
		t.Stop()
	}
	fw.pending[path] = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		delete(fw.pending, path)
		fw.mu.Unlock()
		fw.onChange(path)
	})
}

func (fw *fileWatcher) close() error {
	fw.mu.Lock()
	for _, t := range fw.pending {
		t.Stop()
	}
	fw.mu.Unlock()
	return unix.Close(fw.fd)
}

// watchFiles calls onChange after each settled write to one of paths, until
// ctx is done.
func watchFiles(ctx context.Context, paths []string, debounce time.Duration, onChange func(string)) error {
	fw, err := newFileWatcher(debounce, onChange)
	if err != nil {
		return err
	}
	defer fw.close()

	for _, p := range paths {
		if err := fw.add(p); err != nil {
			return err
		}
		log.Printf("watching %s", p)
	}
	return fw.run(ctx)
}
