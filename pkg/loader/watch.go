package loader

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vanderheijden86/trustmap/pkg/debug"
)

// Notifier is the part of watcher.Watcher the store needs.
type Notifier interface {
	Changed() <-chan struct{}
}

// Watch reloads the store every time n reports a change, until ctx is done.
// Each change starts its reload on its own goroutine so a slow load is
// superseded by the next change instead of queueing behind it.
func (s *Store) Watch(ctx context.Context, n Notifier) {
	done := make(chan struct{}, 1)
	running := 0
	defer func() {
		for ; running > 0; running-- {
			<-done
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			running--
		case <-n.Changed():
			running++
			go func() {
				defer func() { done <- struct{}{} }()
				if _, err := s.Reload(ctx); err != nil && !errors.Is(err, ErrSuperseded) && ctx.Err() == nil {
					debug.L().Warn("reload after change failed", zap.Error(err))
				}
			}()
		}
	}
}
