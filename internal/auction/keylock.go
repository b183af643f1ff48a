package auction

import "sync"

// KeyedLock serializes operations per key while keys proceed independently.
// Each key holds a chain of release channels: an acquirer queues behind the
// current tail and is admitted when its predecessor releases, which gives
// strict FIFO order. The map entry is removed once the last holder releases
// so idle keys cost nothing.
//
// There is deliberately no cancellation: bid processing is never withdrawn
// once admitted, and every hold is bounded by store I/O.
type KeyedLock struct {
	mu     sync.Mutex
	chains map[string]*lockChain
}

type lockChain struct {
	tail chan struct{}
	refs int
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{
		chains: make(map[string]*lockChain),
	}
}

// Lock blocks until every earlier acquirer of key has released, then returns
// the release func. Release is idempotent.
func (l *KeyedLock) Lock(key string) (release func()) {
	l.mu.Lock()
	chain, ok := l.chains[key]
	if !ok {
		chain = &lockChain{}
		l.chains[key] = chain
	}
	prev := chain.tail
	next := make(chan struct{})
	chain.tail = next
	chain.refs++
	l.mu.Unlock()

	if prev != nil {
		<-prev
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			close(next)
			l.mu.Lock()
			chain.refs--
			if chain.refs == 0 {
				delete(l.chains, key)
			}
			l.mu.Unlock()
		})
	}
}
