package call

import (
	"errors"
	"testing"
	"time"
)

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(time.Minute)
	c := m.Create("CA100", "+15550001111")

	got, err := m.Get(c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ProviderCallSID != "CA100" {
		t.Fatalf("ProviderCallSID = %q, want %q", got.ProviderCallSID, "CA100")
	}
	if got.Status != StatusActive {
		t.Fatalf("Status = %q, want %q", got.Status, StatusActive)
	}

	if _, err := m.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestManagerReturnsClones(t *testing.T) {
	m := NewManager(time.Minute)
	c := m.Create("CA100", "")
	c.Status = StatusEnded

	got, err := m.Get(c.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusActive {
		t.Fatalf("mutation of returned call leaked into the registry")
	}
}

func TestManagerEnd(t *testing.T) {
	m := NewManager(time.Minute)
	c := m.Create("CA100", "")

	ended, err := m.End(c.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.Status != StatusEnded {
		t.Fatalf("Status = %q, want %q", ended.Status, StatusEnded)
	}
	if m.ActiveCount() != 0 {
		t.Fatalf("ActiveCount() = %d, want 0", m.ActiveCount())
	}

	if _, err := m.End("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("End(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestManagerEndInvokesCloserOnce(t *testing.T) {
	m := NewManager(time.Minute)
	c := m.Create("CA100", "")

	closes := 0
	if err := m.RegisterCloser(c.ID, func() { closes++ }); err != nil {
		t.Fatalf("RegisterCloser() error = %v", err)
	}

	if _, err := m.End(c.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if closes != 1 {
		t.Fatalf("closer calls = %d, want 1", closes)
	}

	ended, err := m.End(c.ID)
	if !errors.Is(err, ErrAlreadyEnded) {
		t.Fatalf("second End() error = %v, want ErrAlreadyEnded", err)
	}
	if ended == nil || ended.Status != StatusEnded {
		t.Fatalf("second End() call = %+v, want ended record", ended)
	}
	if closes != 1 {
		t.Fatalf("closer calls after second End = %d, want 1", closes)
	}
}

func TestManagerRegisterCloserRejectsEndedCall(t *testing.T) {
	m := NewManager(time.Minute)
	c := m.Create("CA100", "")
	if _, err := m.End(c.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	if err := m.RegisterCloser(c.ID, func() {}); !errors.Is(err, ErrAlreadyEnded) {
		t.Fatalf("RegisterCloser(ended) error = %v, want ErrAlreadyEnded", err)
	}
	if err := m.RegisterCloser("nope", func() {}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RegisterCloser(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestManagerInterruptIncrements(t *testing.T) {
	m := NewManager(time.Minute)
	c := m.Create("CA100", "")

	if err := m.Interrupt(c.ID); err != nil {
		t.Fatalf("Interrupt() error = %v", err)
	}
	if err := m.Interrupt(c.ID); err != nil {
		t.Fatalf("Interrupt() error = %v", err)
	}

	got, _ := m.Get(c.ID)
	if got.Interruptions != 2 {
		t.Fatalf("Interruptions = %d, want 2", got.Interruptions)
	}
}

func TestManagerSetStreamSID(t *testing.T) {
	m := NewManager(time.Minute)
	c := m.Create("CA100", "")

	if err := m.SetStreamSID(c.ID, "S9"); err != nil {
		t.Fatalf("SetStreamSID() error = %v", err)
	}
	got, _ := m.Get(c.ID)
	if got.StreamSID != "S9" {
		t.Fatalf("StreamSID = %q, want %q", got.StreamSID, "S9")
	}
}

func TestManagerExpireInactive(t *testing.T) {
	m := NewManager(time.Millisecond)
	c := m.Create("CA100", "")

	var expired []*Call
	m.SetExpireHook(func(c *Call) { expired = append(expired, c) })

	time.Sleep(5 * time.Millisecond)
	m.expireInactive()

	got, _ := m.Get(c.ID)
	if got.Status != StatusEnded {
		t.Fatalf("Status = %q, want %q after expiry", got.Status, StatusEnded)
	}
	if len(expired) != 1 {
		t.Fatalf("expire hook calls = %d, want 1", len(expired))
	}
}

func TestManagerExpiryInvokesCloser(t *testing.T) {
	m := NewManager(time.Millisecond)
	c := m.Create("CA100", "")

	closes := 0
	if err := m.RegisterCloser(c.ID, func() { closes++ }); err != nil {
		t.Fatalf("RegisterCloser() error = %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	m.expireInactive()

	if closes != 1 {
		t.Fatalf("closer calls = %d, want 1", closes)
	}
}

func TestManagerTouchDefersExpiry(t *testing.T) {
	m := NewManager(time.Hour)
	c := m.Create("CA100", "")

	if err := m.Touch(c.ID); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	m.expireInactive()

	got, _ := m.Get(c.ID)
	if got.Status != StatusActive {
		t.Fatalf("Status = %q, want %q", got.Status, StatusActive)
	}
}
