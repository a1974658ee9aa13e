package audio

import (
	"context"
	"encoding/binary"
	"testing"
)

func TestSynthesize_SampleCount(t *testing.T) {
	for name, pattern := range Patterns {
		var want int
		for _, tone := range pattern {
			want += int(SampleRate * tone.Duration)
		}
		got := len(Synthesize(pattern))
		if got != want {
			t.Errorf("%s: %d samples, want %d", name, got, want)
		}
	}
}

func TestSynthesize_FadePreventsClicks(t *testing.T) {
	samples := Synthesize([]Tone{{440, 0.2}})
	if samples[0] != 0 {
		t.Errorf("first sample = %d, want 0 (fade in)", samples[0])
	}
	if last := samples[len(samples)-1]; last != 0 {
		t.Errorf("last sample = %d, want 0 (fade out)", last)
	}

	// Peak must stay within the scaled amplitude.
	amp := float64(toneAmplitude)
	limit := int16(32767 * amp)
	for i, s := range samples {
		if s > limit || s < -limit {
			t.Fatalf("sample %d = %d exceeds amplitude limit %d", i, s, limit)
		}
	}
}

func TestEncodeWAV_Header(t *testing.T) {
	samples := Synthesize(Patterns["beep"])
	data := EncodeWAV(samples)

	if len(data) != 44+len(samples)*2 {
		t.Fatalf("WAV length = %d, want %d", len(data), 44+len(samples)*2)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE magic")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != SampleRate {
		t.Errorf("sample rate = %d, want %d", rate, SampleRate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}
	if dataLen := binary.LittleEndian.Uint32(data[40:44]); int(dataLen) != len(samples)*2 {
		t.Errorf("data chunk length = %d, want %d", dataLen, len(samples)*2)
	}
}

func TestMockPlayer(t *testing.T) {
	ctx := context.Background()
	p := NewMockPlayer()

	if err := p.Play(ctx, "beep"); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(ctx, "startup"); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(ctx, "kazoo"); err == nil {
		t.Error("unknown sound accepted")
	}
	got := p.Played()
	if len(got) != 2 || got[0] != "beep" || got[1] != "startup" {
		t.Errorf("Played = %v", got)
	}

	if err := p.SetVolume(ctx, 150); err != nil {
		t.Fatal(err)
	}
	if p.Volume() != 100 {
		t.Errorf("volume = %d, want clamped to 100", p.Volume())
	}
}

func TestSoundNames_CoverAllPatterns(t *testing.T) {
	names := SoundNames()
	if len(names) != len(Patterns) {
		t.Fatalf("SoundNames has %d entries, Patterns has %d", len(names), len(Patterns))
	}
	for _, n := range names {
		if _, ok := Patterns[n]; !ok {
			t.Errorf("SoundNames lists %q, not in Patterns", n)
		}
	}
}
