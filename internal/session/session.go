package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Sribabu-Mandraju/polymarket-bot/internal/types"
)

// Service is the single writer of session records. All reads and writes to
// one session id are serialised through a per-session lock; distinct sessions
// never contend.
type Service struct {
	db       *Database
	defaults Defaults
	locks    sync.Map // session id -> *sync.Mutex
	logger   zerolog.Logger
}

func NewService(gormDB *gorm.DB, defaults Defaults) *Service {
	return &Service{
		db:       NewDatabase(gormDB),
		defaults: defaults,
		logger:   log.With().Str("component", "session_store").Logger(),
	}
}

func (s *Service) lockFor(sessionID string) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Get returns the session for the id, creating it with defaults when absent.
func (s *Service) Get(sessionID string) (*Session, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()
	return s.getOrCreate(sessionID)
}

func (s *Service) getOrCreate(sessionID string) (*Session, error) {
	existing, err := s.db.GetBySessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	created := &Session{
		SessionID:       sessionID,
		PriceThreshold:  s.defaults.PriceThreshold,
		MaxOrderSize:    s.defaults.MaxOrderSize,
		SellTargetPrice: s.defaults.SellTargetPrice,
		AutoOrder:       s.defaults.AutoOrder,
	}
	if err := s.db.Create(created); err != nil {
		return nil, err
	}
	s.logger.Info().Str("session_id", sessionID).Msg("session created with defaults")
	return created, nil
}

// Update applies a partial configuration patch after range validation.
// Applying the same patch twice yields the same final state.
func (s *Service) Update(sessionID string, patch ConfigPatch) (*Session, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.getOrCreate(sessionID)
	if err != nil {
		return nil, err
	}

	if patch.PriceThreshold != nil {
		sess.PriceThreshold = *patch.PriceThreshold
	}
	if patch.MaxOrderSize != nil {
		sess.MaxOrderSize = *patch.MaxOrderSize
	}
	if patch.SellTargetPrice != nil {
		sess.SellTargetPrice = *patch.SellTargetPrice
	}
	if patch.AutoOrder != nil {
		sess.AutoOrder = *patch.AutoOrder
	}

	if err := s.db.Save(sess); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("session_id", sessionID).
		Float64("price_threshold", sess.PriceThreshold).
		Float64("max_order_size", sess.MaxOrderSize).
		Bool("auto_order", sess.AutoOrder).
		Msg("session configuration updated")
	return sess, nil
}

// IncrementSize adjusts the max order size by delta, clamped to a floor of 1.
func (s *Service) IncrementSize(sessionID string, delta float64) (*Session, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.getOrCreate(sessionID)
	if err != nil {
		return nil, err
	}

	next := sess.MaxOrderSize + delta
	if next < 1 {
		next = 1
	}
	sess.MaxOrderSize = next

	if err := s.db.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// SetScanActive toggles the scan flag. Disabling causes the session's scan
// loop to exit at its next iteration boundary.
func (s *Service) SetScanActive(sessionID string, active bool) (*Session, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.getOrCreate(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.ScanActive == active {
		return sess, nil
	}
	sess.ScanActive = active
	if err := s.db.Save(sess); err != nil {
		return nil, err
	}
	s.logger.Info().Str("session_id", sessionID).Bool("scan_active", active).Msg("scan flag toggled")
	return sess, nil
}

// TouchLastScan stamps the completion time of a scan iteration.
func (s *Service) TouchLastScan(sessionID string) error {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	sess, err := s.db.GetBySessionID(sessionID)
	if err != nil || sess == nil {
		return err
	}
	sess.LastScanAt = time.Now()
	return s.db.Save(sess)
}

// ListActive returns every session with scanning enabled.
func (s *Service) ListActive() ([]Session, error) {
	return s.db.ListActive()
}

func validatePatch(patch ConfigPatch) error {
	if patch.PriceThreshold != nil {
		v := *patch.PriceThreshold
		if v <= 0 || v > 1 {
			return fmt.Errorf("%w: price threshold %v must be in (0, 1]", types.ErrInvalidConfiguration, v)
		}
	}
	if patch.MaxOrderSize != nil && *patch.MaxOrderSize <= 0 {
		return fmt.Errorf("%w: max order size %v must be positive", types.ErrInvalidConfiguration, *patch.MaxOrderSize)
	}
	if patch.SellTargetPrice != nil && *patch.SellTargetPrice <= 0 {
		return fmt.Errorf("%w: sell target price %v must be positive", types.ErrInvalidConfiguration, *patch.SellTargetPrice)
	}
	return nil
}
