package sync

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	log "github.com/sirupsen/logrus"
)

const lockShards = 16

// originLocks hands out one lock per origin. Origins are spread across
// shards so that unrelated origins rarely contend on the bookkeeping mutex.
type originLocks struct {
	shards [lockShards]lockShard
}

type lockShard struct {
	mu    sync.Mutex
	locks map[string]*originLock
}

type originLock struct {
	sem chan struct{}

	// refs counts the holders and waiters. The lock is forgotten once it
	// drops to zero.
	refs int
}

func newOriginLocks() *originLocks {
	return &originLocks{}
}

func (l *originLocks) shard(origin string) *lockShard {
	return &l.shards[xxhash.Sum64String(origin)%lockShards]
}

// lock blocks until `origin` is free or `ctx` is done. The returned function
// releases the lock.
func (l *originLocks) lock(ctx context.Context, origin string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shard := l.shard(origin)
	ol := shard.acquireRef(origin)

	select {
	case ol.sem <- struct{}{}:
	default:
		log.WithField("origin", origin).Debug(
			"Waiting for another operation on the same site")
		select {
		case ol.sem <- struct{}{}:
		case <-ctx.Done():
			shard.releaseRef(origin, ol)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ol.sem
			shard.releaseRef(origin, ol)
		})
	}, nil
}

func (shard *lockShard) acquireRef(origin string) *originLock {
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if shard.locks == nil {
		shard.locks = map[string]*originLock{}
	}

	ol, ok := shard.locks[origin]
	if !ok {
		ol = &originLock{sem: make(chan struct{}, 1)}
		shard.locks[origin] = ol
	}
	ol.refs++
	return ol
}

func (shard *lockShard) releaseRef(origin string, ol *originLock) {
	shard.mu.Lock()
	defer shard.mu.Unlock()

	ol.refs--
	if ol.refs == 0 {
		delete(shard.locks, origin)
	}
}

// held returns the number of origins with a holder or waiter. Used by tests.
func (l *originLocks) held() int {
	var n int
	for i := range l.shards {
		shard := &l.shards[i]
		shard.mu.Lock()
		n += len(shard.locks)
		shard.mu.Unlock()
	}
	return n
}
