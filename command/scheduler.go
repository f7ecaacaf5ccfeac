package command

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Scheduler runs at most one command at a time. Run must be called periodically,
// Start and Cancel may be called concurrently from other goroutines.
type Scheduler struct {
	lock        sync.Mutex
	current     Command
	initialized bool
}

// Start replaces the running command, which is ended first.
func (s *Scheduler) Start(cmd Command) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	err := s.end("replaced")
	log.Printf("Starting command: %v", cmd)
	s.current = cmd
	s.initialized = false
	return err
}

// Cancel ends the running command, if any.
func (s *Scheduler) Cancel() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.end("cancelled")
}

// Idle reports whether no command is running.
func (s *Scheduler) Idle() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current == nil
}

// Run performs one step of the running command: Initialize on the first tick, Execute afterwards.
// A finished command is ended in the same tick.
func (s *Scheduler) Run() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	cmd := s.current
	if cmd == nil {
		return nil
	}
	var err error
	if !s.initialized {
		s.initialized = true
		err = cmd.Initialize()
	} else {
		err = cmd.Execute()
	}
	if cmd.IsFinished() {
		log.Printf("Command finished: %v", cmd)
		err = multierr.Append(err, cmd.End())
		s.current = nil
	}
	return err
}

// RunEvery calls the hooks and Run once per period until the context is done.
// The hooks receive the time since the previous tick. Errors are logged and do not stop the loop.
func (s *Scheduler) RunEvery(ctx context.Context, period time.Duration, hooks ...func(dt time.Duration)) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Debugln("Stopping command loop:", ctx.Err())
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			for _, hook := range hooks {
				hook(dt)
			}
			if err := s.Run(); err != nil {
				log.Errorln("Command step failed:", err)
			}
		}
	}
}

func (s *Scheduler) end(reason string) error {
	if s.current == nil {
		return nil
	}
	cmd := s.current
	s.current = nil
	if !s.initialized {
		return nil
	}
	log.Printf("Command %v: %v", reason, cmd)
	return cmd.End()
}
