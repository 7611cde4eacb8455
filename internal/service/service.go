// Package service implements the cantine core: the registration rules,
// the till reconciliation and the day-closing transition. It is storage
// agnostic; both backends plug in behind the storage ports.
package service

import (
	"time"

	"github.com/rs/zerolog"

	"cantine/internal/events"
	"cantine/internal/storage"
)

// Service is the storage-agnostic cantine core.
type Service struct {
	store  storage.Store
	bus    *events.Bus
	logger *zerolog.Logger
	locks  *dateLocks
	now    func() time.Time
}

// New wires the core to a persistence backend and the closing-event bus.
// bus may be nil when no closing subscribers are configured.
func New(store storage.Store, bus *events.Bus, logger *zerolog.Logger) *Service {
	return &Service{
		store:  store,
		bus:    bus,
		logger: logger,
		locks:  newDateLocks(),
		now:    time.Now,
	}
}
