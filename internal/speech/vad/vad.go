// Package vad wraps the Silero voice activity detector. See:
// https://github.com/snakers4/silero-vad
package vad

import (
	"fmt"

	"github.com/go-audio/audio"
	"github.com/streamer45/silero-vad-go/speech"

	"github.com/hexpanda/qwenvoice/internal/speech/sound"
)

// Silero accepts audio with SampleRate = 16000 only.
const sampleRate = 16000

type SileroDetector struct {
	detector *speech.Detector
}

func NewSileroDetector(modelPath string) (*SileroDetector, error) {
	detector, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           sampleRate,
		Threshold:            0.5,
		MinSilenceDurationMs: 100,
		SpeechPadMs:          30,
	})
	if err != nil {
		return nil, fmt.Errorf("creating silero detector: %w", err)
	}
	return &SileroDetector{detector: detector}, nil
}

// DetectVoice reports whether the buffer contains any speech segment.
func (d *SileroDetector) DetectVoice(buf *audio.IntBuffer) (bool, error) {
	segments, err := d.detector.Detect(sound.ConvertIntToFloat32(buf.Data))
	if err != nil {
		return false, fmt.Errorf("detect voice: %w", err)
	}
	if err := d.detector.Reset(); err != nil {
		return false, fmt.Errorf("resetting detector: %w", err)
	}
	return len(segments) > 0, nil
}

func (d *SileroDetector) Close() error {
	return d.detector.Destroy()
}
