// Package battery monitors the 12V LiPo pack through an ADS1015 ADC behind
// a voltage divider, converting the reading to a charge percentage with
// low and critical callbacks.
package battery

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

const (
	// Pack voltage limits for the 3S LiPo.
	MinVoltage = 9.6
	MaxVoltage = 12.6

	// DividerRatio scales the ADC reading back to pack voltage. The
	// divider brings 12.6V down to 4.2V so it stays inside the ADC range.
	DividerRatio = 3.0

	// Warning thresholds in percent. The low warning clears above
	// lowClearPercent so a noisy reading does not flap it.
	lowPercent      = 20
	lowClearPercent = 25
	criticalPercent = 5

	defaultInterval = 5 * time.Second
)

// VoltageReader reads the pack voltage in volts.
type VoltageReader interface {
	ReadVoltage() (float64, error)
}

// Percentage converts a pack voltage to a charge percentage by linear
// interpolation between the pack limits.
func Percentage(voltage float64) int {
	if voltage <= MinVoltage {
		return 0
	}
	if voltage >= MaxVoltage {
		return 100
	}
	return int((voltage - MinVoltage) / (MaxVoltage - MinVoltage) * 100)
}

// StatusText maps a percentage to a human readable status.
func StatusText(percent int) string {
	switch {
	case percent > 75:
		return "Excellent"
	case percent > 50:
		return "Good"
	case percent > 25:
		return "Fair"
	case percent > 10:
		return "Low"
	default:
		return "Critical"
	}
}

// EstimateRuntime estimates hours remaining from the current percentage.
// Calibrated against roughly two hours of mixed driving at full charge.
func EstimateRuntime(percent int) float64 {
	if percent <= criticalPercent {
		return 0
	}
	return math.Round(float64(percent)/100.0*2.0*100) / 100
}

// Monitor samples the pack on an interval and fires warning callbacks.
type Monitor struct {
	reader   VoltageReader
	interval time.Duration

	// OnUpdate receives every sample. OnLow fires once when charge drops
	// to the low threshold, OnCritical on every critical sample. Set
	// before Run.
	OnUpdate   func(voltage float64, percent int)
	OnLow      func(percent int)
	OnCritical func(percent int)

	mu         sync.RWMutex
	voltage    float64
	percent    int
	lowWarning bool
}

// NewMonitor creates a monitor over the given reader. A zero interval uses
// the default.
func NewMonitor(reader VoltageReader, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Monitor{reader: reader, interval: interval, percent: 100}
}

// Voltage returns the last sampled pack voltage.
func (m *Monitor) Voltage() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.voltage
}

// Percent returns the last computed charge percentage.
func (m *Monitor) Percent() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.percent
}

// Run samples until ctx is cancelled. Intended to run as a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

// Sample takes one reading immediately. Exposed for tests.
func (m *Monitor) Sample() {
	m.sample()
}

func (m *Monitor) sample() {
	voltage, err := m.reader.ReadVoltage()
	if err != nil {
		slog.Warn("battery: read failed", "err", err)
		return
	}
	percent := Percentage(voltage)

	m.mu.Lock()
	m.voltage = voltage
	m.percent = percent
	fireLow := false
	if percent <= lowPercent && !m.lowWarning {
		m.lowWarning = true
		fireLow = true
	} else if percent > lowClearPercent {
		m.lowWarning = false
	}
	m.mu.Unlock()

	if m.OnUpdate != nil {
		m.OnUpdate(voltage, percent)
	}
	if fireLow && m.OnLow != nil {
		slog.Warn("battery: low", "percent", percent, "voltage", voltage)
		m.OnLow(percent)
	}
	if percent <= criticalPercent && m.OnCritical != nil {
		slog.Error("battery: critical", "percent", percent, "voltage", voltage)
		m.OnCritical(percent)
	}
}
