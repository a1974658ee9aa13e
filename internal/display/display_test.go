package display

import (
	"image"
	"testing"
	"time"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

func litPixels(img *image.Gray) int {
	var n int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y >= 128 {
				n++
			}
		}
	}
	return n
}

func TestRenderStartup_NotBlank(t *testing.T) {
	img := RenderStartup(time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC))
	if img.Bounds().Dx() != Width || img.Bounds().Dy() != Height {
		t.Fatalf("frame size = %v", img.Bounds())
	}
	if litPixels(img) == 0 {
		t.Error("startup screen is blank")
	}
}

func TestRenderStatus_BatteryBarScales(t *testing.T) {
	now := time.Now()
	st := models.DefaultStatus()

	st.BatteryLevel = 100
	full := litPixels(RenderStatus(st, now))

	st.BatteryLevel = 10
	low := litPixels(RenderStatus(st, now))

	if full <= low {
		t.Errorf("full battery frame has %d lit pixels, low has %d; bar does not scale", full, low)
	}
}

func TestRenderStatus_ShowsSensorPlaceholder(t *testing.T) {
	now := time.Now()
	st := models.DefaultStatus()
	st.Sensors.Front = 0

	withPlaceholder := RenderStatus(st, now)
	st.Sensors.Front = 42
	withReading := RenderStatus(st, now)

	// Different sensor states must render different frames.
	same := true
	b := withPlaceholder.Bounds()
	for y := b.Min.Y; y < b.Max.Y && same; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if withPlaceholder.GrayAt(x, y) != withReading.GrayAt(x, y) {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("sensor reading does not change the rendered frame")
	}
}

func TestRenderMessage_Centered(t *testing.T) {
	img := RenderMessage("Network", "AP mode active")
	if litPixels(img) == 0 {
		t.Error("message screen is blank")
	}

	// A very long message must not panic or draw at negative x.
	long := RenderMessage("X", "this message is far wider than the panel itself")
	if litPixels(long) == 0 {
		t.Error("long message screen is blank")
	}
}

func TestMockDisplay(t *testing.T) {
	m := NewMock()
	if err := m.Show(RenderStartup(time.Now())); err != nil {
		t.Fatal(err)
	}
	if m.Shows() != 1 || m.Last() == nil {
		t.Errorf("Shows = %d, Last nil = %v", m.Shows(), m.Last() == nil)
	}
}
