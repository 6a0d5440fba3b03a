package record

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	micSampleRate      = 16000
	micFramesPerBuffer = 512
)

// MicDevice captures audio from the default system microphone via
// PortAudio.
type MicDevice struct{}

// NewMicDevice creates a microphone device
func NewMicDevice() *MicDevice {
	return &MicDevice{}
}

// Start acquires the default input device and begins buffering samples.
// Acquisition failures surface as DeviceAccessError.
func (d *MicDevice) Start(ctx context.Context) (Session, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &DeviceAccessError{Err: err}
	}

	in := make([]int16, micFramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(micSampleRate), len(in), in)
	if err != nil {
		portaudio.Terminate()
		return nil, &DeviceAccessError{Err: err}
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, &DeviceAccessError{Err: err}
	}

	s := &micSession{
		stream: stream,
		buf:    in,
		done:   make(chan struct{}),
	}
	go s.capture(ctx)
	return s, nil
}

type micSession struct {
	stream *portaudio.Stream
	buf    []int16
	done   chan struct{}

	mu      sync.Mutex
	samples []int16
	closed  bool
}

func (s *micSession) capture(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			// Device vanished mid-recording; keep what we have
			return
		}

		s.mu.Lock()
		s.samples = append(s.samples, s.buf...)
		s.mu.Unlock()
	}
}

// Close stops the capture loop, releases the device, and finalizes the
// buffered samples into a WAV payload
func (s *micSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	s.stream.Stop()
	s.stream.Close()
	portaudio.Terminate()
	return nil
}

// Payload returns the finalized WAV payload. Valid after Close.
func (s *micSession) Payload() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeWAV(s.samples, micSampleRate)
}

// encodeWAV wraps raw 16-bit mono PCM samples in a RIFF/WAVE container
func encodeWAV(samples []int16, sampleRate int) []byte {
	var data bytes.Buffer
	for _, sample := range samples {
		binary.Write(&data, binary.LittleEndian, sample)
	}

	const (
		channels = 1
		bitDepth = 16
	)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*channels*bitDepth/8))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*bitDepth/8))
	binary.Write(&buf, binary.LittleEndian, uint16(bitDepth))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	return buf.Bytes()
}
