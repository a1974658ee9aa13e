// Package audio synthesizes Wall-E's signature tone sequences as PCM audio
// and plays them through ALSA. Sounds are generated once and cached as WAV
// files under the sounds directory.
package audio

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	// SampleRate is the synthesis rate in Hz. Mono 16-bit PCM.
	SampleRate = 22050

	// toneAmplitude scales the sine wave well below full scale so stacked
	// harmonics from cheap speakers do not clip.
	toneAmplitude = 0.3

	maxFadeSamples = 1000
)

// Tone is one note of a pattern.
type Tone struct {
	Freq     float64 // Hz
	Duration float64 // seconds
}

// Patterns holds the built-in robot voice, keyed by sound name.
var Patterns = map[string][]Tone{
	"startup":  {{440, 0.2}, {880, 0.3}, {660, 0.4}, {880, 0.5}},
	"curious":  {{220, 0.1}, {440, 0.1}, {330, 0.2}, {550, 0.3}},
	"happy":    {{523, 0.15}, {659, 0.15}, {784, 0.15}, {880, 0.3}},
	"worried":  {{330, 0.2}, {220, 0.3}, {165, 0.4}},
	"beep":     {{800, 0.1}},
	"error":    {{200, 0.5}, {150, 0.5}},
	"greeting": {{440, 0.2}, {523, 0.2}, {659, 0.3}, {880, 0.4}},
}

// SoundNames returns the built-in sound names in a stable order.
func SoundNames() []string {
	return []string{"startup", "curious", "happy", "worried", "beep", "error", "greeting"}
}

// Synthesize renders a tone pattern to 16-bit mono PCM samples. Each tone
// gets a short linear fade in and out so note boundaries do not click.
func Synthesize(pattern []Tone) []int16 {
	var total int
	for _, t := range pattern {
		total += int(SampleRate * t.Duration)
	}
	out := make([]int16, 0, total)

	for _, tone := range pattern {
		n := int(SampleRate * tone.Duration)
		fade := n / 10
		if fade > maxFadeSamples {
			fade = maxFadeSamples
		}
		for i := 0; i < n; i++ {
			t := float64(i) / SampleRate
			v := math.Sin(2 * math.Pi * tone.Freq * t)
			if fade > 0 {
				if i < fade {
					v *= float64(i) / float64(fade)
				} else if i >= n-fade {
					v *= float64(n-1-i) / float64(fade)
				}
			}
			out = append(out, int16(v*32767*toneAmplitude))
		}
	}
	return out
}

// EncodeWAV wraps mono 16-bit PCM samples in a RIFF/WAVE container.
func EncodeWAV(samples []int16) []byte {
	dataLen := len(samples) * 2
	buf := &bytes.Buffer{}
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(SampleRate*2)) // byte rate
	binary.Write(buf, binary.LittleEndian, uint16(2))            // block align
	binary.Write(buf, binary.LittleEndian, uint16(16))           // bits per sample

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}
