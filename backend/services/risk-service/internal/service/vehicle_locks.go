package service

import "sync"

// vehicleLocks serializes work per vehicle so concurrent samples for the same
// vehicle cannot race on the same aggregate window. Different vehicles never
// contend. Locks are never removed; the map grows with the active fleet only.
type vehicleLocks struct {
	locks sync.Map // vehicleNumber -> *sync.Mutex
}

func (v *vehicleLocks) lock(vehicleNumber string) func() {
	actual, _ := v.locks.LoadOrStore(vehicleNumber, &sync.Mutex{})
	mu := actual.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
