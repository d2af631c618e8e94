package socketdir

import (
	"testing"
	"time"
)

func TestAcquireNameLock_ExcludesConcurrent(t *testing.T) {
	t.Setenv("WSHD_HOME", t.TempDir())

	l1, err := AcquireNameLock()
	if err != nil {
		t.Fatalf("first AcquireNameLock: %v", err)
	}
	defer l1.Release()

	done := make(chan struct{})
	go func() {
		l2, err := AcquireNameLock()
		if err != nil {
			t.Errorf("second AcquireNameLock: %v", err)
			close(done)
			return
		}
		l2.Release()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second AcquireNameLock returned while the first lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	if err := l1.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	<-done
}
