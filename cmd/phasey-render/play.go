//go:build !headless

package main

import (
	"fmt"
	"time"

	"github.com/ebitengine/oto/v3"
)

// play streams s to the default audio device and blocks until it ends.
func play(s stereo, sampleRate int) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(&float32Reader{s: s})
	defer player.Close()

	player.Play()
	for player.IsPlaying() {
		time.Sleep(20 * time.Millisecond)
	}
	return player.Err()
}
