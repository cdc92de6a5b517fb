package ontology

import (
	"context"
	"sync"
	"time"
)

// Limiter 單一外部服務的限流器：限制同時在途請求數，
// 並強制兩次請求之間的最小間隔。這是各工作協程之間唯一的同步點。
type Limiter struct {
	mu          sync.Mutex
	next        time.Time
	minInterval time.Duration
	slots       chan struct{}
}

// NewLimiter 創建新的限流器
func NewLimiter(minInterval time.Duration, maxInFlight int) *Limiter {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &Limiter{
		minInterval: minInterval,
		slots:       make(chan struct{}, maxInFlight),
	}
}

// Acquire 取得發送許可：先佔在途名額，再等到輪到的發送時刻
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	at := l.next
	if at.Before(now) {
		at = now
	}
	l.next = at.Add(l.minInterval)
	l.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		<-l.slots
		return ctx.Err()
	}
}

// Release 歸還在途名額
func (l *Limiter) Release() {
	<-l.slots
}
