package scanner

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Supervisor owns one goroutine per active session's scan loop. Sessions
// scan concurrently and independently; no loop blocks another.
type Supervisor struct {
	scanner *Scanner
	baseCtx context.Context

	mu    sync.Mutex
	loops map[string]loopEntry
	gen   uint64
	wg    sync.WaitGroup

	logger zerolog.Logger
}

// loopEntry ties a cancel func to the loop generation that owns it, so a
// finished loop never tears down a successor started for the same session.
type loopEntry struct {
	gen    uint64
	cancel context.CancelFunc
}

func NewSupervisor(baseCtx context.Context, scanner *Scanner) *Supervisor {
	return &Supervisor{
		scanner: scanner,
		baseCtx: baseCtx,
		loops:   make(map[string]loopEntry),
		logger:  log.With().Str("component", "scan_supervisor").Logger(),
	}
}

// Start spawns the scan loop for a session. Starting an already-running
// session is a no-op.
func (s *Supervisor) Start(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.loops[sessionID]; running {
		return
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.gen++
	gen := s.gen
	s.loops[sessionID] = loopEntry{gen: gen, cancel: cancel}
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer s.remove(sessionID, gen)
		s.scanner.Run(ctx, sessionID)
	}()
}

// Stop cancels a session's loop. The loop exits at its next iteration
// boundary; an in-flight iteration is never interrupted mid-token.
func (s *Supervisor) Stop(sessionID string) {
	s.mu.Lock()
	entry, running := s.loops[sessionID]
	delete(s.loops, sessionID)
	s.mu.Unlock()

	if running {
		entry.cancel()
	}
}

// ResumeActive starts loops for every session persisted as scan-active,
// called once at boot so scans survive process restarts.
func (s *Supervisor) ResumeActive() {
	sessions, err := s.scanner.sessions.ListActive()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list active sessions")
		return
	}
	for _, sess := range sessions {
		s.logger.Info().Str("session_id", sess.SessionID).Msg("resuming scan loop")
		s.Start(sess.SessionID)
	}
}

// StopAll cancels every loop and waits for them to exit.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	for id, entry := range s.loops {
		entry.cancel()
		delete(s.loops, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Supervisor) remove(sessionID string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.loops[sessionID]; ok && entry.gen == gen {
		entry.cancel()
		delete(s.loops, sessionID)
	}
}
