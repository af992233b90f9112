package utils

import (
	"context"
	"time"

	"github.com/bretello/pdbpp/utils/gosync"
	"github.com/sirupsen/logrus"
)

// TimeoutManager runs fun if Reset is not called within timeout.
// Used as a watchdog around debug adapter startup.
type TimeoutManager struct {
	timer         *time.Timer
	timeout       time.Duration
	resetChannel  chan bool
	cancelChannel chan bool
	fun           func()
}

func NewTimeoutManager() *TimeoutManager {
	return &TimeoutManager{}
}

// Start begins the countdown. fun runs once if the timer expires.
func (t *TimeoutManager) Start(ctx context.Context, timeout time.Duration, fun func()) {
	t.timer = time.NewTimer(timeout)
	t.timeout = timeout
	t.fun = fun
	t.resetChannel = make(chan bool)
	t.cancelChannel = make(chan bool)
	gosync.Go(ctx, func(ctx context.Context) {
		for {
			select {
			case <-t.timer.C:
				logrus.Infof("[TimeoutManager] timer expired, performing action")
				t.fun()
				return
			case <-t.resetChannel:
				if !t.timer.Stop() {
					<-t.timer.C
				}
				t.timer.Reset(t.timeout)
			case <-t.cancelChannel:
				if !t.timer.Stop() {
					<-t.timer.C
				}
				return
			}
		}
	})
}

// Reset restarts the countdown.
func (t *TimeoutManager) Reset() {
	t.resetChannel <- true
}

// Cancel stops the countdown without running fun.
func (t *TimeoutManager) Cancel() {
	t.cancelChannel <- true
}
