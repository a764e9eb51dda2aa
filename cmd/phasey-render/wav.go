package main

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const outputBitDepth = 16

// readWAV decodes a PCM WAV file. Mono files feed both channels; channels
// past the second are ignored.
func readWAV(path string) (stereo, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return stereo{}, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return stereo{}, 0, fmt.Errorf("invalid WAV file: %s", path)
	}
	if err := decoder.FwdToPCM(); err != nil {
		return stereo{}, 0, fmt.Errorf("%s: %w", path, err)
	}

	format := decoder.Format()
	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 {
		return stereo{}, 0, fmt.Errorf("unknown bit depth for WAV file: %s", path)
	}
	nchannels := format.NumChannels
	if nchannels < 1 {
		return stereo{}, 0, fmt.Errorf("no channels in WAV file: %s", path)
	}
	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(decoder.PCMLen()) / bytesPerSample
	nframes := nsamples / nchannels

	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, nsamples),
		SourceBitDepth: bitDepth,
	}
	n, err := decoder.PCMBuffer(buf)
	if err != nil {
		return stereo{}, 0, fmt.Errorf("%s: %w", path, err)
	}
	nframes = min(nframes, n/nchannels)

	factor := float32(math.Pow(2, float64(bitDepth-1)))
	out := newStereo(nframes)
	for i := 0; i < nframes; i++ {
		out.L[i] = float32(buf.Data[i*nchannels]) / factor
		if nchannels > 1 {
			out.R[i] = float32(buf.Data[i*nchannels+1]) / factor
		} else {
			out.R[i] = out.L[i]
		}
	}
	return out, format.SampleRate, nil
}

// writeWAV encodes a stereo buffer as 16-bit PCM. Samples are expected in
// [-1, 1].
func writeWAV(path string, s stereo, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, outputBitDepth, 2, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, 2*s.Frames()),
		SourceBitDepth: outputBitDepth,
	}
	for i := range s.L {
		buf.Data[2*i] = int(s.L[i] * math.MaxInt16)
		buf.Data[2*i+1] = int(s.R[i] * math.MaxInt16)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
