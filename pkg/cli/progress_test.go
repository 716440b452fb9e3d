package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestProgress(buf *bytes.Buffer) *SimpleProgress {
	p := NewProgressReporter(buf, "files").(*SimpleProgress)
	base := time.Unix(0, 0)
	calls := 0
	p.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * time.Second)
	}
	return p
}

func TestSimpleProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	p := newTestProgress(buf)

	p.Start(4)
	p.Update(2)
	if !strings.Contains(buf.String(), "50.0% (2/4)") {
		t.Errorf("output after Update(2) = %q", buf.String())
	}
	if !strings.Contains(buf.String(), "files/s") {
		t.Errorf("output missing unit: %q", buf.String())
	}

	p.Finish()
	out := buf.String()
	if !strings.Contains(out, "100.0% (4/4)") {
		t.Errorf("output after Finish = %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish should end the line")
	}
}

func TestSimpleProgressClampsOverflow(t *testing.T) {
	buf := &bytes.Buffer{}
	p := newTestProgress(buf)

	p.Start(2)
	p.Update(5)
	if !strings.Contains(buf.String(), "(2/2)") {
		t.Errorf("output = %q, want clamped to total", buf.String())
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	p := newTestProgress(buf)

	p.Start(0)
	p.Update(1)
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing for zero total", buf.String())
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	p := newTestProgress(buf)

	p.Error(errors.New("read failed"))
	if !strings.Contains(buf.String(), "Error: read failed") {
		t.Errorf("output = %q", buf.String())
	}
}
