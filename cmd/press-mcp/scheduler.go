package main

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/printdaily/press"
	"github.com/printdaily/press/internal/schedule"
)

// scheduler runs the daily publication in the background so the MCP server
// can stand in for an external cron.
type scheduler struct {
	engine *press.Engine
	at     string
	now    func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newScheduler(engine *press.Engine, at string) *scheduler {
	return &scheduler{engine: engine, at: at, now: time.Now}
}

// start launches the daily loop. It returns an error if at is malformed.
func (s *scheduler) start(ctx context.Context) error {
	if _, _, err := schedule.ParseAt(s.at); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.engine.RunDaily(ctx, s.at); err != nil {
			log.Printf("scheduler: %v", err)
		}
	}()
	log.Printf("scheduler: started (daily at %s UTC)", s.at)
	return nil
}

// stop cancels the loop and waits for an in-flight cycle to finish.
func (s *scheduler) stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Printf("scheduler: stopped")
}

func (s *scheduler) status() scheduleStatus {
	if s == nil {
		return scheduleStatus{}
	}
	hour, minute, err := schedule.ParseAt(s.at)
	if err != nil {
		return scheduleStatus{At: s.at}
	}
	next := schedule.NextRun(s.now(), hour, minute)
	return scheduleStatus{Enabled: true, At: s.at, NextRun: next.Format(time.RFC3339)}
}
