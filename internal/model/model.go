// Package model defines the domain types shared between the exchange-rate
// service, its quote stores and the HTTP layer.
package model

import (
	"math"
	"time"
)

// Source tells a caller where a resolved rate came from.
type Source string

const (
	SourceCache     Source = "cache"
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceManual    Source = "manual"
	SourceFallback  Source = "fallback"
)

// Quote is one resolved USD→KRW rate. Once stored it is never modified;
// a refresh or manual override replaces it wholesale.
type Quote struct {
	Rate       float64   `json:"rate"`
	Source     Source    `json:"source"`   // tier that produced the rate
	Provider   string    `json:"provider"` // upstream name, empty for manual quotes
	ResolvedAt time.Time `json:"resolved_at"`
}

// IsManual reports whether q is a sticky manual override.
func (q Quote) IsManual() bool {
	return q.Source == SourceManual
}

// ValidRate reports whether r is usable as an exchange rate: positive and
// finite.
func ValidRate(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}
