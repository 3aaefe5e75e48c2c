package assembly

import "sync"

// keyedLock guards one logical resource per key. Acquisition never blocks:
// a second writer for the same key is rejected outright, because two
// assemblies for the same landing would race on the same output files.
type keyedLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newKeyedLock() *keyedLock {
	return &keyedLock{held: make(map[string]struct{})}
}

// TryAcquire claims key and returns a release function. The release is
// idempotent so a deferred call is safe alongside early-exit paths.
func (l *keyedLock) TryAcquire(key string) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, inFlight := l.held[key]; inFlight {
		return nil, false
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.held, key)
		})
	}, true
}
