package gosync

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Go spawns a goroutine that recovers panics, so a misbehaving event
// callback cannot take down the debugger process.
func Go(ctx context.Context, task func(ctx context.Context)) {
	go func(ctx context.Context, f func(ctx context.Context)) {
		defer func() {
			if err := recover(); err != nil {
				logrus.Errorf("goroutine panic: %v", err)
			}
		}()

		f(ctx)
	}(ctx, task)
}
