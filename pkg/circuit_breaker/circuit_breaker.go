package circuit_breaker

import (
	"errors"
	"sync"
	"time"
)

type Status uint8

const (
	Closed   Status = 1
	Open     Status = 2
	HalfOpen Status = 3
)

func (s Status) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrOpenCB = errors.New("circuit breaker is open")

type Config struct {
	// RecordLength is the size of the window of tracked calls.
	RecordLength int `envconfig:"CB_RECORD_LENGTH" default:"20"`
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `envconfig:"CB_TIMEOUT" default:"10s"`
	// Percentile of failures in the window that opens the breaker.
	Percentile float64 `envconfig:"CB_PERCENTILE" default:"0.5"`
	// RecoveryRequests successful half-open calls close it again.
	RecoveryRequests int `envconfig:"CB_RECOVERY_REQUESTS" default:"3"`
}

type CircuitBreaker interface {
	Call(service func() error) error
	State() Status
	Reset()
}

type circuitBreaker struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	state           Status
	lastAttemptedAt time.Time
	buffer          []bool
	pos             int
	successCount    int
}

func New(cfg Config) CircuitBreaker {
	if cfg.RecordLength <= 0 {
		cfg.RecordLength = 1
	}
	return &circuitBreaker{
		cfg:    cfg,
		now:    time.Now,
		state:  Closed,
		buffer: make([]bool, cfg.RecordLength),
	}
}

func (cb *circuitBreaker) Call(service func() error) error {
	cb.mu.Lock()
	if cb.state == Open {
		if cb.now().Sub(cb.lastAttemptedAt) <= cb.cfg.Timeout {
			cb.mu.Unlock()
			return ErrOpenCB
		}
		cb.state = HalfOpen
		cb.successCount = 0
	}
	cb.mu.Unlock()

	err := service()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.buffer[cb.pos] = err != nil
	cb.pos = (cb.pos + 1) % cb.cfg.RecordLength

	if cb.state == HalfOpen {
		if err != nil {
			cb.trip()
			return err
		}
		cb.successCount++
		if cb.successCount >= cb.cfg.RecoveryRequests {
			cb.reset()
		}
		return err
	}

	fails := 0
	for _, failed := range cb.buffer {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(cb.cfg.RecordLength) >= cb.cfg.Percentile {
		cb.trip()
	}
	return err
}

func (cb *circuitBreaker) State() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *circuitBreaker) trip() {
	cb.state = Open
	cb.successCount = 0
	cb.lastAttemptedAt = cb.now()
}

func (cb *circuitBreaker) reset() {
	for i := range cb.buffer {
		cb.buffer[i] = false
	}
	cb.successCount = 0
	cb.pos = 0
	cb.state = Closed
}
