package filerepo

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jrsteele09/go-quiz-session/credentials"
	"github.com/rs/zerolog/log"
)

// Watch publishes a change event whenever another process rewrites or removes
// the credential file, so stores in this process hear about a logout made
// elsewhere. Changes made through this repo are not re-published.
// The watcher runs until ctx is done.
func (r *FileRepo) Watch(ctx context.Context, notifier credentials.Notifier) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filerepo watch: %w", err)
	}
	// Writes replace the file by rename, so watch the directory rather than the inode.
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("filerepo watch %s: %w", filepath.Dir(r.path), err)
	}

	r.mu.Lock()
	if r.lastSeen == nil {
		if values, err := r.load(); err == nil {
			r.lastSeen = values
		} else {
			r.lastSeen = map[string]string{}
		}
	}
	r.mu.Unlock()

	go r.watchLoop(ctx, watcher, notifier)
	return nil
}

func (r *FileRepo) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, notifier credentials.Notifier) {
	defer func() { _ = watcher.Close() }()
	name := filepath.Base(r.path)
	origin := "file:" + r.path

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Str("path", r.path).Msg("credential file watcher error")
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if event, changed := r.detectChange(origin); changed {
				if err := notifier.Publish(event); err != nil {
					log.Warn().Err(err).Str("path", r.path).Msg("credential file change broadcast failed")
				}
			}
		}
	}
}

func (r *FileRepo) detectChange(origin string) (credentials.ChangeEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load()
	if err != nil {
		log.Warn().Err(err).Str("path", r.path).Msg("credential file unreadable after change")
		return credentials.ChangeEvent{}, false
	}
	previous := r.lastSeen
	r.lastSeen = current

	var removed, written []string
	for _, key := range []string{credentials.KeyAccess, credentials.KeyRefresh} {
		before, had := previous[key]
		after, has := current[key]
		switch {
		case had && !has:
			removed = append(removed, key)
		case has && (!had || before != after):
			written = append(written, key)
		}
	}

	switch {
	case len(removed) > 0:
		log.Debug().Str("path", r.path).Strs("keys", removed).Msg("credentials removed by another process")
		return credentials.ChangeEvent{Origin: origin, Op: credentials.OpClear, Keys: removed, At: time.Now()}, true
	case len(written) > 0:
		return credentials.ChangeEvent{Origin: origin, Op: credentials.OpSave, Keys: written, At: time.Now()}, true
	}
	return credentials.ChangeEvent{}, false
}
