package cli

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"
)

func quietSpinners(t *testing.T) {
	t.Helper()
	old := spinnerOut
	spinnerOut = io.Discard
	t.Cleanup(func() { spinnerOut = old })
}

func TestSpinnerDraws(t *testing.T) {
	var buf bytes.Buffer
	old := spinnerOut
	spinnerOut = &buf
	defer func() { spinnerOut = old }()

	s := newSpinner(context.Background(), "Binning placements...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !bytes.Contains(buf.Bytes(), []byte("Binning placements...")) {
		t.Errorf("spinner output %q should contain the message", buf.String())
	}
	if s.Cancelled() {
		t.Error("a stopped spinner should not report cancellation")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	quietSpinners(t)
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinner(ctx, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	quietSpinners(t)
	s := newSpinner(context.Background(), "Testing idempotent stop...")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	quietSpinners(t)
	done := make(chan struct{})
	go func() {
		newSpinner(context.Background(), "never started").Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a spinner that was never started")
	}
}

func TestSpinnerStopWithError(t *testing.T) {
	quietSpinners(t)
	quietStdout(t)
	s := newSpinner(context.Background(), "Testing error...")
	s.Start()
	s.StopWithError("Failed!")
}
