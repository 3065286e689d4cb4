package out

// RunLock serializes whole pipeline runs against a shared backup root.
type RunLock interface {
	// Acquire takes the lock or fails fast with domain.ErrLockHeld. The
	// returned release function is safe to call exactly once.
	Acquire() (release func(), err error)
}
