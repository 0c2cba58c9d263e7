package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/pressline/pkg/ports"
	"github.com/aretw0/pressline/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocks_SerializesOneSession(t *testing.T) {
	locks := session.NewLocks()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locks.WithLock(ctx, "s1", func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside, "turns of one session must not overlap")
	assert.Equal(t, 0, locks.Active(), "unused locks must be released")
}

func TestLocks_SessionsAreIndependent(t *testing.T) {
	locks := session.NewLocks()
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = locks.WithLock(ctx, "a", func(ctx context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := locks.WithLock(ctx, "b", func(ctx context.Context) error { return nil })
	assert.NoError(t, err, "a different session must not wait on a")
	close(done)
}

func TestLocks_NoLeak(t *testing.T) {
	locks := session.NewLocks()
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		_ = locks.WithLock(ctx, fmt.Sprintf("session-%d", i), func(ctx context.Context) error { return nil })
	}
	assert.Equal(t, 0, locks.Active())
}

type fakeLocker struct {
	locked   []string
	unlocked int
	err      error
}

func (f *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.locked = append(f.locked, key)
	return func(ctx context.Context) error {
		f.unlocked++
		return nil
	}, nil
}

func TestLocks_DistributedLocker(t *testing.T) {
	ctx := context.Background()
	dl := &fakeLocker{}
	locks := session.NewLocks(session.WithLocker(dl))

	ran := false
	require.NoError(t, locks.WithLock(ctx, "s1", func(ctx context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.Equal(t, []string{"s1"}, dl.locked)
	assert.Equal(t, 1, dl.unlocked)

	dl.err = errors.New("redis down")
	err := locks.WithLock(ctx, "s1", func(ctx context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorContains(t, err, "redis down")
}
