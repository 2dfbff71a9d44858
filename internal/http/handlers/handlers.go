// Handler wiring.
//
// Handlers groups every HTTP endpoint of the engine behind abstract service
// interfaces so transport concerns stay separate from the business logic.
package handlers

import "time"

// Deps bundles the services and store a Handlers instance is bound to.
type Deps struct {
	Store       EventStore
	Match       MatchService
	Hot         HotService
	Hotness     HotnessService
	Pickup      PickupService
	Archive     ArchiveService
	Stats       StatsService
	Maintenance MaintenanceService

	// Now overrides the clock in scheduled-job handlers; nil means time.Now.
	Now func() time.Time
}

// Handlers groups the HTTP endpoints for event triggers and scheduled jobs.
type Handlers struct {
	store      EventStore
	matchSvc   MatchService
	hotSvc     HotService
	hotnessSvc HotnessService
	pickupSvc  PickupService
	archiveSvc ArchiveService
	statsSvc   StatsService
	maintSvc   MaintenanceService
	now        func() time.Time
}

// New constructs a Handlers instance bound to the given dependencies.
func New(d Deps) *Handlers {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Handlers{
		store:      d.Store,
		matchSvc:   d.Match,
		hotSvc:     d.Hot,
		hotnessSvc: d.Hotness,
		pickupSvc:  d.Pickup,
		archiveSvc: d.Archive,
		statsSvc:   d.Stats,
		maintSvc:   d.Maintenance,
		now:        now,
	}
}
