// Package audio converts raw PCM captured on a client device into the
// format the speech engines consume. Browsers and mobile capture stacks
// deliver 44.1kHz or 48kHz audio, often stereo; vosk-server and
// whisper-server both expect 16kHz mono. The conversion runs server side
// so clients only declare their capture format and never resample.
package audio

import (
	"fmt"
	"log/slog"
	"sync"
)

// Format describes the sample rate and channel count of a PCM stream.
// Samples are always little-endian int16.
type Format struct {
	SampleRate int
	Channels   int
}

// Engine is the format every speech backend consumes.
var Engine = Format{SampleRate: 16000, Channels: 1}

func (f Format) String() string {
	ch := "mono"
	switch {
	case f.Channels == 2:
		ch = "stereo"
	case f.Channels > 2:
		ch = fmt.Sprintf("%dch", f.Channels)
	}
	return fmt.Sprintf("%dHz %s", f.SampleRate, ch)
}

// Normalizer converts PCM chunks from a client capture format to a target
// format. It logs once per stream when conversion kicks in and once when a
// misaligned chunk is dropped. Create one per stream; it is not safe for
// concurrent use.
type Normalizer struct {
	Source Format
	Target Format

	warnedConvert sync.Once
	warnedCorrupt sync.Once
}

// Normalize converts one PCM chunk to the target format. When the source
// already matches the target the chunk is returned as-is. Chunks with an odd
// byte count cannot hold int16 samples and are dropped (nil is returned).
// Stereo input is downmixed before resampling so the resampler only ever
// touches mono data.
func (n *Normalizer) Normalize(pcm []byte) []byte {
	if len(pcm)%2 != 0 {
		n.warnedCorrupt.Do(func() {
			slog.Warn("dropping misaligned pcm chunk",
				"bytes", len(pcm),
				"format", n.Source.String(),
			)
		})
		return nil
	}
	if n.Source == n.Target {
		return pcm
	}
	n.warnedConvert.Do(func() {
		slog.Info("normalizing client audio",
			"from", n.Source.String(),
			"to", n.Target.String(),
		)
	})

	if n.Source.Channels == 2 && n.Target.Channels == 1 {
		pcm = DownmixStereo(pcm)
	}
	if n.Source.SampleRate != n.Target.SampleRate {
		pcm = Resample16(pcm, n.Source.SampleRate, n.Target.SampleRate)
	}
	return pcm
}

// DownmixStereo averages the L and R samples of each interleaved stereo
// frame (4 bytes) into one mono sample. The average of two int16 values
// always fits in int16, so no clamping is needed.
func DownmixStereo(pcm []byte) []byte {
	frames := len(pcm) / 4
	out := make([]byte, frames*2)
	for i := range frames {
		l := int32(int16(pcm[i*4]) | int16(pcm[i*4+1])<<8)
		r := int32(int16(pcm[i*4+2]) | int16(pcm[i*4+3])<<8)
		avg := (l + r) / 2
		out[i*2] = byte(avg)
		out[i*2+1] = byte(avg >> 8)
	}
	return out
}

// Resample16 resamples 16-bit mono PCM from srcRate to dstRate using linear
// interpolation. If the rates match (or either is not positive) the input is
// returned unchanged.
func Resample16(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}
	srcSamples := len(pcm) / 2
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range dstSamples {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		s0 := int16(pcm[idx*2]) | int16(pcm[idx*2+1])<<8
		s1 := s0
		if idx+1 < srcSamples {
			s1 = int16(pcm[(idx+1)*2]) | int16(pcm[(idx+1)*2+1])<<8
		}

		v := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}
