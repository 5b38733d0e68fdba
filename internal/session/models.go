package session

import (
	"time"

	"gorm.io/gorm"
)

// Session is one user's trading configuration and scan state. Sessions are
// created with defaults on first contact and soft-disabled via ScanActive;
// they are never deleted while the process runs.
type Session struct {
	gorm.Model      `json:"-"`
	SessionID       string    `gorm:"uniqueIndex" json:"session_id"`
	PriceThreshold  float64   `json:"price_threshold"`   // fraction in (0, 1]
	MaxOrderSize    float64   `json:"max_order_size"`    // shares
	SellTargetPrice float64   `json:"sell_target_price"` // fraction
	AutoOrder       bool      `json:"auto_order"`
	ScanActive      bool      `json:"scan_active"`
	LastScanAt      time.Time `json:"last_scan_at"`
}

// Defaults seeds newly created sessions.
type Defaults struct {
	PriceThreshold  float64
	MaxOrderSize    float64
	SellTargetPrice float64
	AutoOrder       bool
}

// ConfigPatch is a partial update to a session's configuration. Nil fields
// are left untouched.
type ConfigPatch struct {
	PriceThreshold  *float64 `json:"price_threshold,omitempty"`
	MaxOrderSize    *float64 `json:"max_order_size,omitempty"`
	SellTargetPrice *float64 `json:"sell_target_price,omitempty"`
	AutoOrder       *bool    `json:"auto_order,omitempty"`
}
