package display

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// SSD1306 command set, matching the Adafruit init sequence.
const (
	ssd1306Addr = 0x3C

	ctrlCommand = 0x00
	ctrlData    = 0x40

	cmdDisplayOff    = 0xAE
	cmdDisplayOn     = 0xAF
	cmdSetClockDiv   = 0xD5
	cmdSetMultiplex  = 0xA8
	cmdSetOffset     = 0xD3
	cmdSetStartLine  = 0x40
	cmdChargePump    = 0x8D
	cmdMemoryMode    = 0x20
	cmdSegRemap      = 0xA1
	cmdComScanDec    = 0xC8
	cmdSetComPins    = 0xDA
	cmdSetContrast   = 0x81
	cmdSetPrecharge  = 0xD9
	cmdSetVcomDetect = 0xDB
	cmdDisplayResume = 0xA4
	cmdNormalDisplay = 0xA6
	cmdColumnAddr    = 0x21
	cmdPageAddr      = 0x22
)

// SSD1306 drives the OLED panel over I2C.
type SSD1306 struct {
	mu  sync.Mutex
	dev i2c.Dev
	bus i2c.BusCloser
}

// NewSSD1306 opens the default I2C bus and initializes the panel.
func NewSSD1306() (*SSD1306, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: periph init: %w", err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("display: open i2c: %w", err)
	}
	d := &SSD1306{dev: i2c.Dev{Bus: bus, Addr: ssd1306Addr}, bus: bus}
	if err := d.init(); err != nil {
		bus.Close()
		return nil, err
	}
	slog.Info("display: SSD1306 initialized", "width", Width, "height", Height)
	return d, nil
}

func (d *SSD1306) init() error {
	seq := []byte{
		cmdDisplayOff,
		cmdSetClockDiv, 0x80,
		cmdSetMultiplex, Height - 1,
		cmdSetOffset, 0x00,
		cmdSetStartLine,
		cmdChargePump, 0x14,
		cmdMemoryMode, 0x00, // horizontal addressing
		cmdSegRemap,
		cmdComScanDec,
		cmdSetComPins, 0x12,
		cmdSetContrast, 0xCF,
		cmdSetPrecharge, 0xF1,
		cmdSetVcomDetect, 0x40,
		cmdDisplayResume,
		cmdNormalDisplay,
		cmdDisplayOn,
	}
	for _, c := range seq {
		if err := d.command(c); err != nil {
			return fmt.Errorf("display: init: %w", err)
		}
	}
	return nil
}

func (d *SSD1306) command(c byte) error {
	return d.dev.Tx([]byte{ctrlCommand, c}, nil)
}

// Show packs the frame into the panel's page layout and streams it out.
func (d *SSD1306) Show(img *image.Gray) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range []byte{cmdColumnAddr, 0, Width - 1, cmdPageAddr, 0, Height/8 - 1} {
		if err := d.command(c); err != nil {
			return fmt.Errorf("display: set window: %w", err)
		}
	}

	buf := make([]byte, 1+Width*Height/8)
	buf[0] = ctrlData
	for page := 0; page < Height/8; page++ {
		for x := 0; x < Width; x++ {
			var b byte
			for bit := 0; bit < 8; bit++ {
				if img.GrayAt(x, page*8+bit).Y >= 128 {
					b |= 1 << bit
				}
			}
			buf[1+page*Width+x] = b
		}
	}
	if err := d.dev.Tx(buf, nil); err != nil {
		return fmt.Errorf("display: write frame: %w", err)
	}
	return nil
}

// Close blanks and powers the panel down.
func (d *SSD1306) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.command(cmdDisplayOff); err != nil {
		slog.Debug("display: off command failed", "err", err)
	}
	return d.bus.Close()
}

// Mock records the last frame shown, for tests and --mock mode.
type Mock struct {
	mu    sync.Mutex
	last  *image.Gray
	shows int
}

// NewMock creates a display that renders nowhere.
func NewMock() *Mock { return &Mock{} }

func (m *Mock) Show(img *image.Gray) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = img
	m.shows++
	return nil
}

func (m *Mock) Close() error { return nil }

// Last returns the most recent frame.
func (m *Mock) Last() *image.Gray {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Shows returns how many frames have been pushed.
func (m *Mock) Shows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shows
}
