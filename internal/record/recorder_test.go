package record

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"codeberg.org/ostrova/agora/internal/card"
	"codeberg.org/ostrova/agora/internal/testutil"
	"codeberg.org/ostrova/agora/internal/waveform"
)

type fakeSession struct {
	payload  []byte
	closed   bool
	closeErr error
}

func (s *fakeSession) Close() error {
	s.closed = true
	return s.closeErr
}

func (s *fakeSession) Payload() []byte {
	return s.payload
}

type fakeDevice struct {
	session  *fakeSession
	startErr error
	starts   int
}

func (d *fakeDevice) Start(ctx context.Context) (Session, error) {
	d.starts++
	if d.startErr != nil {
		return nil, d.startErr
	}
	return d.session, nil
}

type fakeUploader struct {
	mu      sync.Mutex
	calls   int
	ref     string
	failErr error
}

func (u *fakeUploader) Upload(ctx context.Context, payload []byte, ext string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.failErr != nil {
		return "", u.failErr
	}
	return u.ref, nil
}

func (u *fakeUploader) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

func testPayload(t *testing.T) []byte {
	return testutil.WAVPayload(t, testutil.ConstantSamples(1600, 5000))
}

func TestStartStopLifecycle(t *testing.T) {
	session := &fakeSession{payload: testPayload(t)}
	device := &fakeDevice{session: session}
	uploader := &fakeUploader{ref: "/blobs/clip.wav"}
	r := NewRecorder(device, uploader)

	if r.State() != Idle {
		t.Fatal("fresh recorder should be Idle")
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if r.State() != Recording {
		t.Fatal("recorder should be Recording after Start")
	}

	capture, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if r.State() != Idle {
		t.Error("recorder should return to Idle after Stop")
	}
	if !session.closed {
		t.Error("Stop must release the capture session")
	}

	if capture.Option.Kind != card.KindAudio {
		t.Errorf("capture kind = %q, want audio", capture.Option.Kind)
	}
	if capture.Option.Origin != card.OriginUser {
		t.Errorf("capture origin = %q, want user", capture.Option.Origin)
	}
	if capture.Option.Content != "/blobs/clip.wav" {
		t.Errorf("capture content = %q", capture.Option.Content)
	}
	if !capture.Durable {
		t.Error("successful upload should mark the capture durable")
	}
	if len(capture.Option.Waveform) != waveform.LivePoints {
		t.Errorf("waveform length = %d, want %d", len(capture.Option.Waveform), waveform.LivePoints)
	}
}

func TestStartDeviceAccessErrorPropagates(t *testing.T) {
	device := &fakeDevice{startErr: &DeviceAccessError{Err: errors.New("permission denied")}}
	r := NewRecorder(device, &fakeUploader{})

	err := r.Start(context.Background())
	if err == nil {
		t.Fatal("Start() should fail when the device is unavailable")
	}
	var accessErr *DeviceAccessError
	if !errors.As(err, &accessErr) {
		t.Errorf("expected DeviceAccessError, got %T", err)
	}
	if r.State() != Idle {
		t.Error("failed Start must leave the recorder Idle")
	}
}

func TestStopUploadFailureYieldsNonDurableCapture(t *testing.T) {
	session := &fakeSession{payload: testPayload(t)}
	device := &fakeDevice{session: session}
	uploader := &fakeUploader{failErr: fmt.Errorf("storage offline")}
	r := NewRecorder(device, uploader)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	capture, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	if capture.Option.Content != "" {
		t.Error("failed upload must leave the option content empty")
	}
	if capture.Durable {
		t.Error("failed upload must not mark the capture durable")
	}
	if capture.PreviewRef == "" {
		t.Error("failed upload should still provide a local preview reference")
	}
	// Waveform pipeline is independent of the upload
	if len(capture.Option.Waveform) != waveform.LivePoints {
		t.Errorf("waveform should survive upload failure, got %d points", len(capture.Option.Waveform))
	}
}

func TestStopWaveformFailureStillEmits(t *testing.T) {
	session := &fakeSession{payload: []byte("not audio at all")}
	device := &fakeDevice{session: session}
	uploader := &fakeUploader{ref: "/blobs/clip.wav"}
	r := NewRecorder(device, uploader)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	capture, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	if capture.Option.Waveform != nil {
		t.Error("undecodable payload should yield no waveform")
	}
	if capture.Option.Content != "/blobs/clip.wav" {
		t.Error("upload result should survive waveform failure")
	}
}

func TestAutoStopAtCeiling(t *testing.T) {
	session := &fakeSession{payload: testPayload(t)}
	device := &fakeDevice{session: session}
	uploader := &fakeUploader{ref: "/blobs/clip.wav"}
	r := NewRecorder(device, uploader)
	r.tick = time.Millisecond

	captures := make(chan Capture, 1)
	r.OnCapture = func(c Capture) {
		captures <- c
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	select {
	case capture := <-captures:
		if capture.Elapsed != MaxSeconds {
			t.Errorf("elapsed at auto-stop = %d, want %d", capture.Elapsed, MaxSeconds)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("recorder never auto-stopped at the ceiling")
	}

	if r.State() != Idle {
		t.Error("recorder should be Idle after auto-stop")
	}
	if uploader.Calls() != 1 {
		t.Errorf("upload pipeline ran %d times, want exactly 1", uploader.Calls())
	}

	// A late manual Stop must not run the pipelines again
	if _, err := r.Stop(context.Background()); err == nil {
		t.Error("Stop() after auto-stop should report not recording")
	}
	if uploader.Calls() != 1 {
		t.Errorf("late Stop re-ran the pipelines: %d calls", uploader.Calls())
	}
}

func TestAutoStopSurfacesFinalizeError(t *testing.T) {
	closeErr := errors.New("device hung up")
	session := &fakeSession{payload: testPayload(t), closeErr: closeErr}
	device := &fakeDevice{session: session}
	uploader := &fakeUploader{ref: "/blobs/clip.wav"}
	r := NewRecorder(device, uploader)
	r.tick = time.Millisecond

	captures := make(chan Capture, 1)
	failures := make(chan error, 1)
	r.OnCapture = func(c Capture) {
		captures <- c
	}
	r.OnError = func(err error) {
		failures <- err
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	select {
	case err := <-failures:
		if !errors.Is(err, closeErr) {
			t.Errorf("OnError delivered %v, want wrapped %v", err, closeErr)
		}
	case <-captures:
		t.Fatal("a failed finalize must not emit a capture")
	case <-time.After(5 * time.Second):
		t.Fatal("ceiling failure was never surfaced")
	}

	if uploader.Calls() != 0 {
		t.Errorf("pipelines ran despite finalize failure: %d calls", uploader.Calls())
	}
}

func TestTeardownReleasesDeviceWithoutPipelines(t *testing.T) {
	session := &fakeSession{payload: testPayload(t)}
	device := &fakeDevice{session: session}
	uploader := &fakeUploader{ref: "/blobs/clip.wav"}
	r := NewRecorder(device, uploader)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	r.Teardown()

	if r.State() != Idle {
		t.Error("Teardown must return the recorder to Idle")
	}
	if !session.closed {
		t.Error("Teardown must release the capture session")
	}
	if uploader.Calls() != 0 {
		t.Error("Teardown must not run the upload pipeline")
	}

	// Teardown in Idle state is a no-op
	r.Teardown()
}

func TestElapsedCounterAdvances(t *testing.T) {
	session := &fakeSession{payload: testPayload(t)}
	device := &fakeDevice{session: session}
	r := NewRecorder(device, &fakeUploader{})
	r.tick = time.Millisecond

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.Elapsed() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if r.Elapsed() < 3 {
		t.Fatal("elapsed counter did not advance")
	}
	r.Teardown()
}
