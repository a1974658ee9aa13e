// Package display renders status screens on the SSD1306 128x64 OLED. The
// framebuffer and text drawing are pure image operations so screens can be
// tested without hardware.
package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

const (
	Width  = 128
	Height = 64
)

// Display shows rendered frames.
type Display interface {
	// Show pushes a 1-bit frame to the panel.
	Show(img *image.Gray) error
	Close() error
}

// NewFrame returns a blank framebuffer.
func NewFrame() *image.Gray {
	return image.NewGray(image.Rect(0, 0, Width, Height))
}

// DrawText draws a string at (x, y) where y is the text baseline.
func DrawText(img *image.Gray, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// DrawHLine draws a horizontal separator.
func DrawHLine(img *image.Gray, y int) {
	for x := 0; x < Width; x++ {
		img.SetGray(x, y, color.Gray{Y: 255})
	}
}

// DrawRect draws a rectangle outline.
func DrawRect(img *image.Gray, r image.Rectangle) {
	white := color.Gray{Y: 255}
	for x := r.Min.X; x <= r.Max.X; x++ {
		img.SetGray(x, r.Min.Y, white)
		img.SetGray(x, r.Max.Y, white)
	}
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		img.SetGray(r.Min.X, y, white)
		img.SetGray(r.Max.X, y, white)
	}
}

// FillRect fills a rectangle.
func FillRect(img *image.Gray, r image.Rectangle) {
	draw.Draw(img, r, image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)
}

// RenderStartup renders the boot splash.
func RenderStartup(now time.Time) *image.Gray {
	img := NewFrame()
	DrawText(img, 10, 14, "WALL-E")
	DrawText(img, 10, 32, "Control System")
	DrawText(img, 10, 46, "Online")
	DrawText(img, 10, 60, now.Format("15:04"))
	return img
}

// RenderStatus renders the main status screen: mode, battery with a bar
// gauge, Arduino link state and the front sensor reading.
func RenderStatus(st models.Status, now time.Time) *image.Gray {
	img := NewFrame()
	DrawText(img, 0, 11, "WALL-E Status")
	DrawHLine(img, 14)

	DrawText(img, 0, 26, fmt.Sprintf("Mode: %s", st.Mode))
	DrawText(img, 0, 38, fmt.Sprintf("Battery: %d%%", st.BatteryLevel))

	// Battery gauge, right aligned next to the percentage.
	const barW, barH = 30, 8
	barX, barY := Width-barW-2, 30
	DrawRect(img, image.Rect(barX, barY, barX+barW, barY+barH))
	fill := st.BatteryLevel * (barW - 2) / 100
	if fill > 0 {
		FillRect(img, image.Rect(barX+1, barY+1, barX+1+fill, barY+barH-1))
	}

	link := "DISCONNECTED"
	if st.Connected {
		link = "CONNECTED"
	}
	DrawText(img, 0, 50, "Arduino: "+link)

	front := "--"
	if st.Sensors.Front > 0 {
		front = fmt.Sprintf("%dcm", st.Sensors.Front)
	}
	DrawText(img, 0, 62, "Front: "+front)
	DrawText(img, 85, 62, now.Format("15:04"))
	return img
}

// RenderMessage renders a centered two-line notice.
func RenderMessage(title, message string) *image.Gray {
	img := NewFrame()
	DrawText(img, centerX(title), 22, title)
	DrawText(img, centerX(message), 44, message)
	return img
}

func centerX(s string) int {
	w := len(s) * basicfont.Face7x13.Advance
	x := (Width - w) / 2
	if x < 0 {
		x = 0
	}
	return x
}
