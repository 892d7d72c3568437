package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorhill/cronexpr"

	appconfig "github.com/careflow/hospital-chatbot/config"
	"github.com/careflow/hospital-chatbot/internal/chatbot"
)

// Scheduler rebuilds the knowledge index in the background: on a cron
// schedule when knowledge.reindex_cron is set, and on knowledge-file writes
// when knowledge.watch_file is enabled.
type Scheduler struct {
	Bot       *chatbot.Service
	Knowledge appconfig.KnowledgeConfig
	Stop      chan struct{}

	logger  *log.Logger
	watcher *fsnotify.Watcher

	mu   sync.Mutex
	last time.Time
}

func (s *Scheduler) Start() {
	s.logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	s.last = time.Now()

	if s.Knowledge.ReindexCron != "" {
		ticker := time.NewTicker(time.Minute)
		go func() {
			for {
				select {
				case <-s.Stop:
					ticker.Stop()
					return
				case <-ticker.C:
					s.tick()
				}
			}
		}()
	}

	if s.Knowledge.WatchFile {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			s.logger.Printf("file watcher unavailable: %v", err)
			return
		}
		if err := watcher.Add(s.Knowledge.File); err != nil {
			s.logger.Printf("cannot watch %s: %v", s.Knowledge.File, err)
			_ = watcher.Close()
			return
		}
		s.watcher = watcher
		go s.watch()
	}
}

func (s *Scheduler) Shutdown() {
	close(s.Stop)
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if !isDue(s.Knowledge.ReindexCron, last) {
		return
	}
	s.rebuild("schedule")
}

func (s *Scheduler) watch() {
	// editors often emit bursts of writes; debounce before rebuilding
	var pending <-chan time.Time
	for {
		select {
		case <-s.Stop:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = time.After(2 * time.Second)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Printf("watch error: %v", err)
		case <-pending:
			pending = nil
			s.rebuild("file change")
		}
	}
}

func (s *Scheduler) rebuild(reason string) {
	s.logger.Printf("reindexing knowledge (%s)", reason)
	if err := s.Bot.Retriever.Rebuild(context.Background()); err != nil {
		s.logger.Printf("reindex failed: %v", err)
		return
	}
	s.mu.Lock()
	s.last = time.Now()
	s.mu.Unlock()
}

// isDue determines whether a rebuild should run now given the last rebuild
// time. Supports "@daily", "@hourly", and standard 5-field cron expressions;
// an invalid expression falls back to @daily.
func isDue(cronSpec string, last time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		return now.Sub(last) >= 24*time.Hour
	case "@hourly":
		return now.Sub(last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			return now.Sub(last) >= 24*time.Hour
		}
		return !expr.Next(last).After(now)
	}
}
