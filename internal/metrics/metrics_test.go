package metrics

import (
	"strings"
	"sync"
	"testing"
)

func TestCollector_Sessions(t *testing.T) {
	c := New()

	c.SessionOpened()
	c.SessionOpened()
	c.SessionClosed()

	if got := c.ActiveSessions(); got != 1 {
		t.Errorf("ActiveSessions = %d, want 1", got)
	}
	if got := c.TotalSessions(); got != 2 {
		t.Errorf("TotalSessions = %d, want 2", got)
	}

	c.SessionRejected()
	if got := c.RejectedSessions(); got != 1 {
		t.Errorf("RejectedSessions = %d, want 1", got)
	}

	c.ChildReaped()
	c.ChildReaped()
	if got := c.ReapedChildren(); got != 2 {
		t.Errorf("ReapedChildren = %d, want 2", got)
	}
}

func TestCollector_Bytes(t *testing.T) {
	c := New()

	c.BytesReceived(100)
	c.BytesReceived(24)
	c.BytesSent(124)

	if got := c.TotalBytesIn(); got != 124 {
		t.Errorf("TotalBytesIn = %d, want 124", got)
	}
	if got := c.TotalBytesOut(); got != 124 {
		t.Errorf("TotalBytesOut = %d, want 124", got)
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()

	c.RecordError("first")
	c.RecordError("second")

	if got := c.ErrorCount(); got != 2 {
		t.Errorf("ErrorCount = %d, want 2", got)
	}

	s := c.Snapshot()
	if s.LastErrorMessage != "second" {
		t.Errorf("LastErrorMessage = %q, want %q", s.LastErrorMessage, "second")
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// None of these may panic.
	c.SessionOpened()
	c.SessionClosed()
	c.SessionRejected()
	c.ChildReaped()
	c.BytesReceived(1)
	c.BytesSent(1)
	c.RecordError("x")

	if got := c.TotalSessions(); got != 0 {
		t.Errorf("nil collector TotalSessions = %d", got)
	}
	if s := c.Snapshot(); s.SessionsTotal != 0 {
		t.Errorf("nil collector snapshot = %+v", s)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.SessionOpened()
			c.BytesReceived(10)
			c.BytesSent(10)
			c.SessionClosed()
		}()
	}
	wg.Wait()

	if got := c.TotalSessions(); got != 50 {
		t.Errorf("TotalSessions = %d, want 50", got)
	}
	if got := c.ActiveSessions(); got != 0 {
		t.Errorf("ActiveSessions = %d, want 0", got)
	}
	if got := c.TotalBytesIn(); got != 500 {
		t.Errorf("TotalBytesIn = %d, want 500", got)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.BytesReceived(42)

	out := c.JSON()
	for _, want := range []string{`"sessions_total": 1`, `"bytes_in": 42`, `"uptime"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON missing %s:\n%s", want, out)
		}
	}
}
