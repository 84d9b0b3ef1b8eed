// Completion: 100% - Non-Linux stub reports watch mode as unsupported
//go:build !linux
// +build !linux

package watch

import "errors"

// Watcher is unavailable outside Linux; New always fails.
type Watcher struct{}

// New reports that watch mode requires Linux's inotify.
func New(onChange func(string), debounceMillis int) (*Watcher, error) {
	return nil, errors.New("watch mode requires Linux (inotify)")
}

func (w *Watcher) AddFile(path string) error { return errors.New("watch mode requires Linux (inotify)") }
func (w *Watcher) Watch()                    {}
func (w *Watcher) Close() error              { return nil }
