// Package server exposes the HTTP API over the shared, immutable-after-warmup
// application state.
package server

import (
	"sync/atomic"
	"time"

	"github.com/xmin-city/xmin/internal/category"
	"github.com/xmin-city/xmin/internal/config"
	"github.com/xmin-city/xmin/internal/district"
	"github.com/xmin-city/xmin/internal/grid"
	"github.com/xmin-city/xmin/internal/poi"
	"github.com/xmin-city/xmin/internal/routing"
)

// State is everything a request handler needs: reference data, the POI cache
// and the routing engine handle. It is built during startup and frozen; every
// request reads it plus its own scenario overlay.
type State struct {
	Grid      *grid.Store
	Districts *district.Store
	POIs      *poi.Cache
	Rules     *category.RuleSet
	Routing   routing.Client

	Modes          map[string]config.ModeConfig
	Departure      time.Time
	RoutingTimeout time.Duration

	GridLimitDefault int
	GridLimitMax     int
}

// Readiness is the typed not-ready/ready switch. It holds nothing until
// warmup publishes the completed state; handlers seeing nil answer 503.
type Readiness struct {
	state atomic.Pointer[State]
}

// Publish atomically flips the service to ready.
func (r *Readiness) Publish(s *State) {
	r.state.Store(s)
}

// Get returns the state and whether the service is ready.
func (r *Readiness) Get() (*State, bool) {
	s := r.state.Load()
	return s, s != nil
}
