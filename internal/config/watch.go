package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store whenever the file is written or replaced and
// calls fn with the new settings if they changed. It blocks until ctx is
// done.
func (s *Store) Watch(ctx context.Context, fn func(Config)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch the directory to catch the rename done by Save.
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := fw.Add(dir); err != nil {
		return err
	}

	name := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			before := s.Get()
			if after := s.Load(); after != before {
				fn(after)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			s.log.Debug().Err(err).Msg("config watcher error")
		}
	}
}
