package usb

import (
	"errors"
	"testing"
)

// fakeHandle is a scriptable in-memory HID handle.
type fakeHandle struct {
	writes   [][]byte
	writeErr error
	readErr  error
	closed   bool
	closeErr error
}

func (h *fakeHandle) Write(b []byte) (int, error) {
	if h.writeErr != nil {
		return 0, h.writeErr
	}
	h.writes = append(h.writes, append([]byte(nil), b...))
	return len(b), nil
}

func (h *fakeHandle) Read(b []byte) (int, error) {
	if h.readErr != nil {
		return 0, h.readErr
	}
	return len(b), nil
}

func (h *fakeHandle) SendFeatureReport(b []byte) (int, error) {
	return h.Write(b)
}

func (h *fakeHandle) GetFeatureReport(b []byte) (int, error) {
	return h.Read(b)
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return h.closeErr
}

// withFakeOpen swaps the package open hook for the test's lifetime.
// opened counts calls; fail scripts the nth open (1-based) to fail.
func withFakeOpen(t *testing.T, handles []*fakeHandle, failAt int) *int {
	t.Helper()
	orig := openPath
	t.Cleanup(func() { openPath = orig })

	opened := 0
	openPath = func(path string) (handle, error) {
		opened++
		if opened == failAt {
			return nil, errors.New("no such device")
		}
		if opened > len(handles) {
			t.Fatalf("unexpected open call %d", opened)
		}
		return handles[opened-1], nil
	}
	return &opened
}

func TestOpenAndWrite(t *testing.T) {
	h := &fakeHandle{}
	withFakeOpen(t, []*fakeHandle{h}, 0)

	tr, err := Open(DeviceInfo{Path: "/dev/hidraw0"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	n, err := tr.Write([]byte{0x07, 0x04, 0x02})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Write() n = %d, want 3", n)
	}
	if len(h.writes) != 1 {
		t.Fatalf("handle recorded %d writes, want 1", len(h.writes))
	}
}

func TestOpenFailure(t *testing.T) {
	withFakeOpen(t, nil, 1)

	_, err := Open(DeviceInfo{Path: "/dev/hidraw9"})
	if !errors.Is(err, ErrOpenFailed) {
		t.Errorf("Open() error = %v, want ErrOpenFailed", err)
	}
}

func TestWriteFailureWrapsIOError(t *testing.T) {
	h := &fakeHandle{writeErr: errors.New("pipe stalled")}
	withFakeOpen(t, []*fakeHandle{h}, 0)

	tr, err := Open(DeviceInfo{Path: "/dev/hidraw0"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	_, err = tr.Write([]byte{0x00})
	if !errors.Is(err, ErrIOFailed) {
		t.Errorf("Write() error = %v, want ErrIOFailed", err)
	}
}

func TestResetReopens(t *testing.T) {
	first := &fakeHandle{}
	second := &fakeHandle{}
	opened := withFakeOpen(t, []*fakeHandle{first, second}, 0)

	tr, err := Open(DeviceInfo{Path: "/dev/hidraw0"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := tr.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if !first.closed {
		t.Error("Reset() did not close the old handle")
	}
	if *opened != 2 {
		t.Errorf("opened %d handles, want 2", *opened)
	}

	// I/O continues on the new handle.
	if _, err := tr.Write([]byte{0x01}); err != nil {
		t.Fatalf("Write() after Reset() error = %v", err)
	}
	if len(second.writes) != 1 {
		t.Errorf("new handle recorded %d writes, want 1", len(second.writes))
	}
}

func TestResetReopenFailureClosesTransport(t *testing.T) {
	first := &fakeHandle{}
	withFakeOpen(t, []*fakeHandle{first}, 2)

	tr, err := Open(DeviceInfo{Path: "/dev/hidraw0"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	err = tr.Reset()
	if !errors.Is(err, ErrResetFailed) {
		t.Fatalf("Reset() error = %v, want ErrResetFailed", err)
	}

	// The transport is unusable after a failed reset.
	if _, err := tr.Write([]byte{0x01}); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after failed Reset() error = %v, want ErrClosed", err)
	}
	if err := tr.Reset(); !errors.Is(err, ErrClosed) {
		t.Errorf("Reset() after failed Reset() error = %v, want ErrClosed", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	h := &fakeHandle{}
	withFakeOpen(t, []*fakeHandle{h}, 0)

	tr, err := Open(DeviceInfo{Path: "/dev/hidraw0"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !h.closed {
		t.Error("Close() did not close the handle")
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}

	if _, err := tr.Write([]byte{0x01}); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after Close() error = %v, want ErrClosed", err)
	}
}

func TestPath(t *testing.T) {
	h := &fakeHandle{}
	withFakeOpen(t, []*fakeHandle{h}, 0)

	tr, err := Open(DeviceInfo{Path: "/dev/hidraw3"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if tr.Path() != "/dev/hidraw3" {
		t.Errorf("Path() = %q, want %q", tr.Path(), "/dev/hidraw3")
	}
}
