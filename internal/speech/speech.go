// Package speech captures microphone phrases and turns them into text:
// portaudio capture, RMS gating, Silero VAD, WAV/FLAC encoding and the
// speech-api recogniser, in that order.
package speech

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
	"github.com/orcaman/writerseeker"

	"github.com/hexpanda/qwenvoice/internal/logger"
	"github.com/hexpanda/qwenvoice/internal/speech/convert"
	"github.com/hexpanda/qwenvoice/internal/speech/recogniser"
	"github.com/hexpanda/qwenvoice/internal/speech/sound"
	"github.com/hexpanda/qwenvoice/internal/speech/vad"
)

const (
	// minMicVolume gates the microphone on raw RMS before anything reaches
	// the VAD.
	minMicVolume = 450
	// phraseGap of silence ends a phrase.
	phraseGap = time.Second

	vadSampleRate = 16000
	frameSize     = 512 * 9
)

// Listener owns the microphone stream and the recognition chain for the
// lifetime of a session.
type Listener struct {
	device     *portaudio.DeviceInfo
	stream     *portaudio.Stream
	in         []int16
	detector   *vad.SileroDetector
	recogniser *recogniser.Recogniser
	log        *logger.Logger
}

func NewListener(sileroModelPath string) (*Listener, error) {
	rec, err := recogniser.New()
	if err != nil {
		return nil, err
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialising portaudio: %w", err)
	}

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("getting default input device: %w", err)
	}

	in := make([]int16, frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, device.DefaultSampleRate, len(in), &in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening stream: %w", err)
	}

	detector, err := vad.NewSileroDetector(sileroModelPath)
	if err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}

	if err := stream.Start(); err != nil {
		detector.Close()
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("starting stream: %w", err)
	}

	log := logger.NewLogger("speech")
	log.Info("listening on device: ", device.Name)

	return &Listener{
		device:     device,
		stream:     stream,
		in:         in,
		detector:   detector,
		recogniser: rec,
		log:        log,
	}, nil
}

func (l *Listener) Close() {
	l.stream.Stop()
	l.stream.Close()
	l.detector.Close()
	portaudio.Terminate()
}

// Listen blocks until one spoken phrase has been captured and recognised, or
// until maxPhrase elapses. It returns "" when nothing voice-like was heard.
func (l *Listener) Listen(ctx context.Context, maxPhrase time.Duration) (string, error) {
	var buffer []int16
	var lastVoice time.Time
	heard := false
	deadline := time.Now().Add(maxPhrase)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if time.Now().After(deadline) {
			break
		}

		if err := l.stream.Read(); err != nil {
			l.log.Warn("reading from stream: ", err)
			continue
		}

		if sound.CalculateRMS16(l.in) > minMicVolume {
			lastVoice = time.Now()
			heard = true
		}
		if heard {
			buffer = append(buffer, l.in...)
			if time.Since(lastVoice) > phraseGap {
				break
			}
		}
	}

	if !heard || len(buffer) == 0 {
		return "", nil
	}
	return l.transcribe(buffer)
}

func (l *Listener) transcribe(buffer []int16) (string, error) {
	pcm := sound.ResampleInt16(buffer, int(l.device.DefaultSampleRate), vadSampleRate)
	intBuf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: vadSampleRate, NumChannels: 1},
		Data:           sound.ConvertInt16ToInt(pcm),
		SourceBitDepth: 16,
	}

	voiced, err := l.detector.DetectVoice(intBuf)
	if err != nil {
		return "", err
	}
	if !voiced {
		l.log.Info("no voice detected in segment")
		return "", nil
	}

	wavData, err := encodeWAV(intBuf)
	if err != nil {
		return "", err
	}

	flacData, err := convert.EncodeFLACExecutable(wavData)
	if err != nil {
		l.log.Warn("flac executable failed, using pure Go encoder: ", err)
		flacData, err = convert.EncodeFLAC(pcmBytes(pcm), vadSampleRate, 2)
		if err != nil {
			return "", fmt.Errorf("FLAC encoding: %w", err)
		}
	}

	start := time.Now()
	transcript, confidence, err := l.recogniser.Recognise(flacData)
	if err != nil {
		return "", fmt.Errorf("recognising speech: %w", err)
	}
	l.log.Info(fmt.Sprintf("recognised in %s, confidence %.2f: %s", time.Since(start), confidence, transcript))

	return transcript, nil
}

// encodeWAV emulates a file in RAM so no real file is needed.
func encodeWAV(buf *audio.IntBuffer) ([]byte, error) {
	file := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(file, vadSampleRate, 16, 1, 1)

	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("encoder write buffer: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoder close: %w", err)
	}

	wavData, err := io.ReadAll(file.Reader())
	if err != nil {
		return nil, fmt.Errorf("reading WAV data: %w", err)
	}
	return wavData, nil
}

func pcmBytes(pcm []int16) []byte {
	out := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
