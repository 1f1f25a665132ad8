package engine

import (
	"runtime"
	"sync/atomic"

	"github.com/tardisdb/tardis/sql"
)

const lockSpinLimit = 1 << 14

// optLock is the short optimistic lock guarding a version entry's chain
// splices: a version counter advanced by compare-and-swap, odd while held.
// Contended waiters retry up to lockSpinLimit, then fail with Retry.
type optLock struct {
	word uint32
}

func (l *optLock) acquire() error {
	for i := 0; i < lockSpinLimit; i++ {
		w := atomic.LoadUint32(&l.word)
		if w&1 == 0 && atomic.CompareAndSwapUint32(&l.word, w, w+1) {
			return nil
		}
		runtime.Gosched()
	}
	return &sql.VersionError{Kind: sql.Retry}
}

func (l *optLock) release() {
	atomic.AddUint32(&l.word, 1)
}
