// Completion: 100% - Linux inotify watcher adapted for a single-file recompile loop
//go:build linux
// +build linux

// Package watch recompiles a source file on every write, debouncing rapid
// successive edits before invoking the caller's callback.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Watcher watches a single file descriptor's worth of inotify events.
type Watcher struct {
	fd          int
	watchMap    map[int]string
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	debounce    time.Duration
	onChange    func(string)
}

// New creates a Watcher that invokes onChange once debounce has elapsed
// since the last write event for a given path.
func New(onChange func(string), debounceMillis int) (*Watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init failed: %v", err)
	}
	if debounceMillis <= 0 {
		debounceMillis = 400
	}
	return &Watcher{
		fd:          fd,
		watchMap:    make(map[int]string),
		debounceMap: make(map[string]*time.Timer),
		debounce:    time.Duration(debounceMillis) * time.Millisecond,
		onChange:    onChange,
	}, nil
}

// watchMask covers in-place writes plus the ways an atomic-save editor
// (vim, many IDEs write to a temp file and rename it over the original)
// can destroy the watched inode out from under the watch descriptor.
const watchMask = unix.IN_MODIFY | unix.IN_CLOSE_WRITE | unix.IN_DELETE_SELF | unix.IN_MOVE_SELF

// AddFile registers path for write notifications.
func (w *Watcher) AddFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return w.addWatch(absPath)
}

func (w *Watcher) addWatch(absPath string) error {
	wd, err := unix.InotifyAddWatch(w.fd, absPath, watchMask)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %v", absPath, err)
	}

	w.mu.Lock()
	w.watchMap[wd] = absPath
	w.mu.Unlock()

	return nil
}

// Watch blocks, reading inotify events and dispatching debounced callbacks.
// Run it on its own goroutine.
func (w *Watcher) Watch() {
	buf := make([]byte, unix.SizeofInotifyEvent*10)

	for {
		n, err := unix.Read(w.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			continue
		}

		offset := 0
		for offset < n {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent + int(event.Len)

			w.mu.Lock()
			path := w.watchMap[int(event.Wd)]
			w.mu.Unlock()
			if path == "" {
				continue
			}

			switch {
			case event.Mask&(unix.IN_MODIFY|unix.IN_CLOSE_WRITE) != 0:
				w.debouncedCallback(path)
			case event.Mask&(unix.IN_IGNORED|unix.IN_DELETE_SELF|unix.IN_MOVE_SELF) != 0:
				// The inode under this watch descriptor is gone (atomic
				// save replaced it via rename, or it was deleted outright).
				// Re-arm on the same path rather than going silently dead,
				// since the replacement file is what the developer actually
				// wants recompiled.
				w.mu.Lock()
				delete(w.watchMap, int(event.Wd))
				w.mu.Unlock()
				if w.addWatch(path) == nil {
					w.debouncedCallback(path)
				}
			}
		}
	}
}

func (w *Watcher) debouncedCallback(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.debounceMap[path]; exists {
		timer.Stop()
	}

	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.onChange(path)
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
	})
}

// Close releases the inotify file descriptor.
func (w *Watcher) Close() error {
	return unix.Close(w.fd)
}
