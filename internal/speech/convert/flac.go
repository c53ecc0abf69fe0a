// Package convert encodes captured WAV audio to FLAC for the recogniser.
package convert

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"os/exec"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const blockSize = 4096

// EncodeFLAC encodes 16-bit mono PCM data with the pure Go encoder.
func EncodeFLAC(pcmData []byte, sampleRate, sampleWidth int) ([]byte, error) {
	if sampleWidth != 2 {
		return nil, errors.New("only 16-bit samples are supported")
	}

	buf := new(bytes.Buffer)
	streamInfo := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  blockSize,
		SampleRate:    uint32(sampleRate),
		NChannels:     1,
		BitsPerSample: uint8(sampleWidth * 8),
		NSamples:      uint64(len(pcmData) / sampleWidth),
		MD5sum:        md5.Sum(pcmData),
	}

	enc, err := flac.NewEncoder(buf, streamInfo)
	if err != nil {
		return nil, fmt.Errorf("creating FLAC encoder: %w", err)
	}
	defer enc.Close()

	samples := make([]int32, len(pcmData)/sampleWidth)
	for i := 0; i+1 < len(pcmData); i += sampleWidth {
		samples[i/sampleWidth] = int32(int16(binary.LittleEndian.Uint16(pcmData[i:])))
	}

	for i := 0; i < len(samples); i += blockSize {
		end := i + blockSize
		if end > len(samples) {
			end = len(samples)
		}
		flacFrame := &frame.Frame{
			Header: frame.Header{
				SampleRate:    uint32(sampleRate),
				Channels:      frame.ChannelsMono,
				BitsPerSample: uint8(sampleWidth * 8),
				BlockSize:     uint16(end - i),
			},
			Subframes: []*frame.Subframe{
				{
					SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
					Samples:   samples[i:end],
					NSamples:  end - i,
				},
			},
		}
		if err := enc.WriteFrame(flacFrame); err != nil {
			return nil, fmt.Errorf("writing FLAC frame: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// EncodeFLACExecutable shells out to the flac command line tool, which
// handles full WAV containers and arbitrary sample widths.
func EncodeFLACExecutable(wavData []byte) ([]byte, error) {
	converter, err := exec.LookPath("flac")
	if err != nil {
		return nil, errors.New("flac conversion utility not available - consider installing the FLAC command line application")
	}

	cmd := exec.Command(converter, "--stdout", "--totally-silent", "--best", "-")
	cmd.Stdin = bytes.NewReader(wavData)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running flac converter: %w", err)
	}
	return out.Bytes(), nil
}
