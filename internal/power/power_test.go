package power

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// recorder collects the order of rail/clock/reset operations.
type recorder struct {
	ops []string
}

type fakeSupply struct {
	rec        *recorder
	name       string
	failEnable bool
	failOff    bool
}

func (f *fakeSupply) Name() string { return f.name }

func (f *fakeSupply) Enable() error {
	f.rec.ops = append(f.rec.ops, "on:"+f.name)
	if f.failEnable {
		return errors.New("rail fault")
	}
	return nil
}

func (f *fakeSupply) Disable() error {
	f.rec.ops = append(f.rec.ops, "off:"+f.name)
	if f.failOff {
		return errors.New("rail fault")
	}
	return nil
}

type fakeClock struct {
	rec  *recorder
	fail bool
}

func (f *fakeClock) Enable() error {
	f.rec.ops = append(f.rec.ops, "on:xclk")
	if f.fail {
		return errors.New("clock fault")
	}
	return nil
}

func (f *fakeClock) Disable() error {
	f.rec.ops = append(f.rec.ops, "off:xclk")
	return nil
}

func (f *fakeClock) Rate() int64 { return 24000000 }

type fakePin struct {
	rec  *recorder
	name string
	fail bool
}

func (f *fakePin) String() string                           { return f.name }
func (f *fakePin) Halt() error                              { return nil }
func (f *fakePin) Name() string                             { return f.name }
func (f *fakePin) Number() int                              { return 0 }
func (f *fakePin) Function() string                         { return "Out" }
func (f *fakePin) PWM(gpio.Duty, physic.Frequency) error    { return errors.New("not supported") }
func (f *fakePin) Out(l gpio.Level) error {
	if l == gpio.High {
		f.rec.ops = append(f.rec.ops, "on:"+f.name)
	} else {
		f.rec.ops = append(f.rec.ops, "off:"+f.name)
	}
	if f.fail {
		return errors.New("gpio fault")
	}
	return nil
}

func newTestSequencer(rec *recorder, clk Clock, reset gpio.PinOut) *Sequencer {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	supplies := []Supply{
		&fakeSupply{rec: rec, name: "VANA"},
		&fakeSupply{rec: rec, name: "VDIG"},
		&fakeSupply{rec: rec, name: "VDDL"},
	}
	seq := NewSequencer(supplies, clk, reset, logger)
	seq.sleep = func(time.Duration) {}
	return seq
}

func TestUpOrder(t *testing.T) {
	rec := &recorder{}
	seq := newTestSequencer(rec, &fakeClock{rec: rec}, &fakePin{rec: rec, name: "xclr"})

	if err := seq.Up(); err != nil {
		t.Fatalf("Up() error: %v", err)
	}
	want := []string{"on:VANA", "on:VDIG", "on:VDDL", "on:xclk", "on:xclr"}
	assertOps(t, rec.ops, want)
}

func TestDownOrder(t *testing.T) {
	rec := &recorder{}
	seq := newTestSequencer(rec, &fakeClock{rec: rec}, &fakePin{rec: rec, name: "xclr"})

	seq.Down()
	want := []string{"off:xclr", "off:VDDL", "off:VDIG", "off:VANA", "off:xclk"}
	assertOps(t, rec.ops, want)
}

func TestUpUnwindsOnClockFailure(t *testing.T) {
	rec := &recorder{}
	seq := newTestSequencer(rec, &fakeClock{rec: rec, fail: true}, &fakePin{rec: rec, name: "xclr"})

	if err := seq.Up(); err == nil {
		t.Fatal("Up() expected error")
	}
	want := []string{
		"on:VANA", "on:VDIG", "on:VDDL", "on:xclk",
		"off:VDDL", "off:VDIG", "off:VANA",
	}
	assertOps(t, rec.ops, want)
}

func TestUpUnwindsOnSupplyFailure(t *testing.T) {
	rec := &recorder{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	supplies := []Supply{
		&fakeSupply{rec: rec, name: "VANA"},
		&fakeSupply{rec: rec, name: "VDIG", failEnable: true},
		&fakeSupply{rec: rec, name: "VDDL"},
	}
	seq := NewSequencer(supplies, &fakeClock{rec: rec}, &fakePin{rec: rec, name: "xclr"}, logger)
	seq.sleep = func(time.Duration) {}

	if err := seq.Up(); err == nil {
		t.Fatal("Up() expected error")
	}
	want := []string{"on:VANA", "on:VDIG", "off:VANA"}
	assertOps(t, rec.ops, want)
}

func TestDownContinuesPastFailures(t *testing.T) {
	rec := &recorder{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	supplies := []Supply{
		&fakeSupply{rec: rec, name: "VANA"},
		&fakeSupply{rec: rec, name: "VDIG", failOff: true},
		&fakeSupply{rec: rec, name: "VDDL"},
	}
	seq := NewSequencer(supplies, &fakeClock{rec: rec}, &fakePin{rec: rec, name: "xclr", fail: true}, logger)
	seq.sleep = func(time.Duration) {}

	seq.Down()
	want := []string{"off:xclr", "off:VDDL", "off:VDIG", "off:VANA", "off:xclk"}
	assertOps(t, rec.ops, want)
}

func assertOps(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op %d = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}
