package window

import "testing"

func TestSetSizeReportsChanges(t *testing.T) {
	w := &engineWindow{}
	w.width.Store(1280)
	w.height.Store(720)

	if w.setSize(1280, 720) {
		t.Fatal("same size reported as a change")
	}
	if !w.setSize(1280, 800) {
		t.Fatal("height change not reported")
	}
	if !w.setSize(1000, 800) {
		t.Fatal("width change not reported")
	}
	if w.Width() != 1000 || w.Height() != 800 {
		t.Fatalf("size = %dx%d, want 1000x800", w.Width(), w.Height())
	}
}

func TestWithSizeKeepsDefaultsForZero(t *testing.T) {
	w := &engineWindow{}
	w.width.Store(1280)
	w.height.Store(720)

	WithSize(0, 600)(w)
	if w.Width() != 1280 || w.Height() != 600 {
		t.Fatalf("size = %dx%d, want 1280x600", w.Width(), w.Height())
	}
}

func TestUninitializedWindowIsNotRunning(t *testing.T) {
	w := &engineWindow{}
	if w.IsRunning() {
		t.Fatal("a window without a platform window cannot be running")
	}
	if w.SurfaceDescriptor() != nil {
		t.Fatal("no surface descriptor without a platform window")
	}
	if err := w.Close(); err == nil {
		t.Fatal("Close() on an uninitialized window should fail")
	}
}
