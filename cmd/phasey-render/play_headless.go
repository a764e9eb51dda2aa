//go:build headless

package main

import "errors"

func play(stereo, int) error {
	return errors.New("playback is not available in headless builds")
}
