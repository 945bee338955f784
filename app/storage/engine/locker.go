package engine

import "sync"

// RWLocker is implemented by sync.RWMutex and NoopLocker
type RWLocker interface {
	sync.Locker
	RLock()
	RUnlock()
}

// NoopLocker is used for engines serializing writes on their own
type NoopLocker struct{}

// Lock does nothing
func (NoopLocker) Lock() {}

// Unlock does nothing
func (NoopLocker) Unlock() {}

// RLock does nothing
func (NoopLocker) RLock() {}

// RUnlock does nothing
func (NoopLocker) RUnlock() {}
