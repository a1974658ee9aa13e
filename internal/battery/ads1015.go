package battery

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ADS1015 register map and config bits for a single-shot read of AIN0 at
// the ±4.096V range. LSB is 2mV in that range.
const (
	ads1015Addr = 0x48

	regConversion = 0x00
	regConfig     = 0x01

	cfgOSSingle   = 0x8000 // start one conversion
	cfgMuxAIN0    = 0x4000 // AIN0 vs GND
	cfgPGA4096    = 0x0200
	cfgModeSingle = 0x0100
	cfgRate1600   = 0x0080
	cfgCompOff    = 0x0003

	adsVoltsPerBit = 0.002
)

// ADS1015Reader reads the pack voltage through an ADS1015 on the I2C bus.
type ADS1015Reader struct {
	dev i2c.Dev
	bus i2c.BusCloser
}

// NewADS1015Reader opens the default I2C bus and probes the ADC.
func NewADS1015Reader() (*ADS1015Reader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("battery: periph init: %w", err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("battery: open i2c: %w", err)
	}
	r := &ADS1015Reader{dev: i2c.Dev{Bus: bus, Addr: ads1015Addr}, bus: bus}
	if _, err := r.ReadVoltage(); err != nil {
		bus.Close()
		return nil, fmt.Errorf("battery: probe ADS1015: %w", err)
	}
	return r, nil
}

// ReadVoltage triggers a conversion and scales the result through the
// divider back to pack voltage.
func (r *ADS1015Reader) ReadVoltage() (float64, error) {
	cfg := uint16(cfgOSSingle | cfgMuxAIN0 | cfgPGA4096 | cfgModeSingle | cfgRate1600 | cfgCompOff)
	if err := r.dev.Tx([]byte{regConfig, byte(cfg >> 8), byte(cfg)}, nil); err != nil {
		return 0, fmt.Errorf("battery: write config: %w", err)
	}

	// 1600 SPS conversion takes well under a millisecond.
	time.Sleep(2 * time.Millisecond)

	buf := make([]byte, 2)
	if err := r.dev.Tx([]byte{regConversion}, buf); err != nil {
		return 0, fmt.Errorf("battery: read conversion: %w", err)
	}
	// 12-bit result, left aligned.
	raw := int16(uint16(buf[0])<<8|uint16(buf[1])) >> 4
	return float64(raw) * adsVoltsPerBit * DividerRatio, nil
}

// Close releases the I2C bus.
func (r *ADS1015Reader) Close() error {
	return r.bus.Close()
}
