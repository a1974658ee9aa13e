package battery

import (
	"sync"
	"time"
)

// SimulatedReader stands in when no ADC is wired up, draining from 12V down
// toward 10V over an hour so the UI still shows movement in mock mode.
type SimulatedReader struct {
	mu    sync.Mutex
	start time.Time
	fixed *float64
}

// NewSimulatedReader creates a simulated pack starting near full.
func NewSimulatedReader() *SimulatedReader {
	return &SimulatedReader{start: time.Now()}
}

// SetVoltage pins the reading to a fixed value for tests.
func (r *SimulatedReader) SetVoltage(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixed = &v
}

func (r *SimulatedReader) ReadVoltage() (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fixed != nil {
		return *r.fixed, nil
	}
	elapsed := time.Since(r.start).Hours()
	v := 12.0 - elapsed*2.0
	if v < 9.5 {
		v = 9.5
	}
	return v, nil
}
