package cmd

import (
	"fmt"

	"github.com/gofrs/flock"
)

// acquireLock takes the single-instance lock or fails immediately.
func acquireLock(path string) (func(), error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another radiopipe instance holds %s", path)
	}
	return func() { _ = lock.Unlock() }, nil
}
