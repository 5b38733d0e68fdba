package monitor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Supervisor owns one goroutine per market watch. Watches are keyed by
// market id: a second start request for the same market is a no-op.
type Supervisor struct {
	monitor *Monitor
	baseCtx context.Context

	mu      sync.Mutex
	watches map[string]watchEntry // market id -> running watch
	wg      sync.WaitGroup
	logger  zerolog.Logger
}

// watchEntry ties a cancel func to the watch that owns it, so a finished
// watch never tears down a successor started for the same market.
type watchEntry struct {
	watchID string
	cancel  context.CancelFunc
}

func NewSupervisor(baseCtx context.Context, monitor *Monitor) *Supervisor {
	return &Supervisor{
		monitor: monitor,
		baseCtx: baseCtx,
		watches: make(map[string]watchEntry),
		logger:  log.With().Str("component", "monitor_supervisor").Logger(),
	}
}

// StartWatch spawns an independent watch for the market and returns its
// watch id. An already-watched market returns empty.
func (s *Supervisor) StartWatch(recipient, marketID, tokenID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.watches[marketID]; running {
		return ""
	}

	w := Watch{
		WatchID:   uuid.New().String(),
		MarketID:  marketID,
		TokenID:   tokenID,
		Recipient: recipient,
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.watches[marketID] = watchEntry{watchID: w.WatchID, cancel: cancel}
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer s.remove(marketID, w.WatchID)
		s.monitor.Run(ctx, w)
	}()

	s.logger.Info().Str("watch_id", w.WatchID).Str("market_id", marketID).Msg("watch started")
	return w.WatchID
}

// StopWatch cancels the watch for a market. The in-flight poll completes or
// is abandoned before the loop exits.
func (s *Supervisor) StopWatch(marketID string) bool {
	s.mu.Lock()
	entry, running := s.watches[marketID]
	delete(s.watches, marketID)
	s.mu.Unlock()

	if running {
		entry.cancel()
	}
	return running
}

// StopAll cancels every watch and waits for the loops to exit.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	for id, entry := range s.watches {
		entry.cancel()
		delete(s.watches, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Supervisor) remove(marketID, watchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.watches[marketID]; ok && entry.watchID == watchID {
		entry.cancel()
		delete(s.watches, marketID)
	}
}
