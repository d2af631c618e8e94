package socketdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// NameLock serialises create_session across concurrent wsh/wshd processes
// racing to claim the same session name. The hub already serialises its own
// name map, but create_session can be issued by a freshly forked daemon
// before the hub is listening, so the lock lives at the filesystem level.
type NameLock struct {
	fl *flock.Flock
}

// AcquireNameLock takes an exclusive, process-wide lock on the socket
// directory's name-claim file. Callers must call Release when done.
func AcquireNameLock() (*NameLock, error) {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	fl := flock.New(filepath.Join(dir, ".names.lock"))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("lock socket dir: %w", err)
	}
	return &NameLock{fl: fl}, nil
}

// Release drops the lock.
func (l *NameLock) Release() error {
	return l.fl.Unlock()
}
