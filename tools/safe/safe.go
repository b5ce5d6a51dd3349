package safe

import (
	"GateLink/logger"
)

// Go starts a goroutine that recovers from panic, so a broken handler
// doesn't take the whole gateway down.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] %s panic recovered: %v", name, r)
			}
		}()
		f()
	}()
}
