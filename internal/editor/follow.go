package editor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// followSettle coalesces the burst of events an editor emits per save.
const followSettle = 100 * time.Millisecond

// Follow loads path into the document and keeps following it until ctx is
// cancelled: every write to the file replaces the document text.
//
// The parent directory is watched, not the file, so editors that save by
// writing a temp file and renaming it over path are followed too.
func (s *Session) Follow(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("editor: follow %s: %w", path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("editor: follow %s: %w", path, err)
	}

	s.reloadFollowed(abs)
	s.logger.Info("follow: started", slog.String("path", abs))

	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleReload := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(followSettle)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(followSettle)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			s.logger.Info("follow: stopped")
			return nil

		case <-settleCh:
			s.reloadFollowed(abs)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("follow: watcher error", slog.String("error", err.Error()))
		}
	}
}

func (s *Session) reloadFollowed(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("follow: read failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return
	}

	text := string(data)
	if text == s.doc.Text() {
		return
	}
	if err := s.doc.SetText(text); err != nil {
		s.logger.Warn("follow: set text failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("follow: reloaded", slog.String("path", path))
}
