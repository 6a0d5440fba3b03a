// Package record implements the time-boxed audio capture controller.
package record

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"codeberg.org/ostrova/agora/internal/card"
	"codeberg.org/ostrova/agora/internal/waveform"
)

// MaxSeconds is the hard recording ceiling. Reaching it stops the
// recorder exactly as if Stop had been called.
const MaxSeconds = 30

// DeviceAccessError indicates the audio input device could not be
// acquired (permission denied or no device present). It must surface to
// the caller, never be swallowed.
type DeviceAccessError struct {
	Err error
}

func (e *DeviceAccessError) Error() string {
	return fmt.Sprintf("audio device unavailable: %v", e.Err)
}

func (e *DeviceAccessError) Unwrap() error {
	return e.Err
}

// Session is a live capture on an acquired input device. Close releases
// the device and finalizes the buffered audio; Payload is valid only
// after Close.
type Session interface {
	Close() error
	Payload() []byte
}

// Device acquires audio input sessions
type Device interface {
	Start(ctx context.Context) (Session, error)
}

// Uploader stores a finished payload durably. Satisfied by
// store.FileBlobStore.
type Uploader interface {
	Upload(ctx context.Context, payload []byte, ext string) (string, error)
}

// Capture is the outcome of a finished recording. Option.Content is
// empty when the upload failed; PreviewRef then still points at a
// session-scoped local copy so playback previews keep working.
type Capture struct {
	Option     card.Option
	PreviewRef string
	Elapsed    int
	Durable    bool
}

// State is the recorder lifecycle state
type State int

const (
	Idle State = iota
	Recording
)

// Recorder drives one microphone capture at a time: acquire device,
// count elapsed seconds, enforce the 30-second ceiling, then run the
// upload and waveform pipelines and emit a single audio card option.
type Recorder struct {
	device   Device
	uploader Uploader

	// tick is the elapsed-counter resolution. Tests shrink it to make
	// thirty "seconds" pass quickly.
	tick time.Duration

	// OnCapture receives the capture produced by an auto-stop at the
	// recording ceiling. Manual Stop returns its capture directly.
	OnCapture func(Capture)

	// OnError receives finalization failures from the auto-stop path,
	// where no caller is waiting on Stop's return value.
	OnError func(error)

	mu      sync.Mutex
	state   State
	session Session
	elapsed int
	stopCh  chan struct{}
	ticking sync.WaitGroup
}

// NewRecorder creates a recorder over the given device and uploader
func NewRecorder(device Device, uploader Uploader) *Recorder {
	return &Recorder{
		device:   device,
		uploader: uploader,
		tick:     time.Second,
	}
}

// State returns the current lifecycle state
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns the whole seconds recorded so far
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Start acquires the input device and begins buffering audio. A
// DeviceAccessError from the device propagates unchanged so the UI can
// surface it.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state == Recording {
		r.mu.Unlock()
		return fmt.Errorf("already recording")
	}
	r.mu.Unlock()

	session, err := r.device.Start(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.state = Recording
	r.session = session
	r.elapsed = 0
	r.stopCh = make(chan struct{})
	stopCh := r.stopCh
	r.mu.Unlock()

	r.ticking.Add(1)
	go r.runTimer(ctx, stopCh)
	return nil
}

func (r *Recorder) runTimer(ctx context.Context, stopCh chan struct{}) {
	defer r.ticking.Done()

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.state != Recording {
				r.mu.Unlock()
				return
			}
			r.elapsed++
			reachedCap := r.elapsed >= MaxSeconds
			r.mu.Unlock()

			if reachedCap {
				capture, err := r.Stop(ctx)
				if err != nil {
					if r.OnError != nil {
						r.OnError(err)
					}
					return
				}
				if r.OnCapture != nil {
					r.OnCapture(capture)
				}
				return
			}
		}
	}
}

// Stop finalizes the capture, releases the device, and runs the upload
// and waveform pipelines concurrently. The capture is returned only
// after both settle: a failed upload leaves Option.Content empty (and
// Durable false), a failed waveform leaves Option.Waveform nil. Neither
// failure blocks emission.
func (r *Recorder) Stop(ctx context.Context) (Capture, error) {
	payload, elapsed, err := r.finalize()
	if err != nil {
		return Capture{}, err
	}

	capture := Capture{Elapsed: elapsed}

	var (
		wg  sync.WaitGroup
		ref string
		env []float64
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		uploaded, err := r.uploader.Upload(ctx, payload, "wav")
		if err != nil {
			return
		}
		ref = uploaded
	}()
	go func() {
		defer wg.Done()
		extracted, err := waveform.Extract(payload, waveform.LivePoints)
		if err != nil {
			return
		}
		env = extracted
	}()
	wg.Wait()

	capture.Option = card.Option{
		Kind:     card.KindAudio,
		Content:  ref,
		Origin:   card.OriginUser,
		Waveform: env,
	}
	capture.Durable = ref != ""

	if ref != "" {
		capture.PreviewRef = ref
	} else {
		capture.PreviewRef = r.localPreview(payload)
	}
	return capture, nil
}

// Teardown releases the device and stops the timer without running the
// capture pipelines. Safe to call in any state; backing out of the
// capture dialog mid-recording must leave no orphaned device handles or
// timers.
func (r *Recorder) Teardown() {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return
	}
	r.state = Idle
	session := r.session
	r.session = nil
	close(r.stopCh)
	r.mu.Unlock()

	r.ticking.Wait()
	if session != nil {
		session.Close()
	}
}

// finalize transitions back to Idle and returns the recorded payload
func (r *Recorder) finalize() ([]byte, int, error) {
	r.mu.Lock()
	if r.state != Recording {
		r.mu.Unlock()
		return nil, 0, fmt.Errorf("not recording")
	}
	r.state = Idle
	session := r.session
	elapsed := r.elapsed
	r.session = nil
	close(r.stopCh)
	r.mu.Unlock()

	if err := session.Close(); err != nil {
		return nil, 0, fmt.Errorf("failed to finalize capture: %w", err)
	}
	return session.Payload(), elapsed, nil
}

// localPreview writes payload to a session-scoped temp file so playback
// previews survive a failed upload. The reference is non-durable and is
// never persisted.
func (r *Recorder) localPreview(payload []byte) string {
	f, err := os.CreateTemp("", "agora_preview_*.wav")
	if err != nil {
		return ""
	}
	defer f.Close()
	if _, err := f.Write(payload); err != nil {
		os.Remove(f.Name())
		return ""
	}
	return f.Name()
}
