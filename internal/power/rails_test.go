package power

import (
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestGPIOSupplySwitchesPin(t *testing.T) {
	pin := &gpiotest.Pin{N: "VANA_EN"}
	s := NewGPIOSupply("vana", pin)

	if s.Name() != "vana" {
		t.Errorf("Name() = %q, want vana", s.Name())
	}
	if err := s.Enable(); err != nil {
		t.Fatalf("Enable() error: %v", err)
	}
	if pin.L != gpio.High {
		t.Error("pin not driven high on enable")
	}
	if err := s.Disable(); err != nil {
		t.Fatalf("Disable() error: %v", err)
	}
	if pin.L != gpio.Low {
		t.Error("pin not driven low on disable")
	}
}

func TestGPIOSupplyWrapsPinError(t *testing.T) {
	rec := &recorder{}
	s := NewGPIOSupply("vdig", &fakePin{rec: rec, name: "vdig_en", fail: true})

	err := s.Enable()
	if err == nil {
		t.Fatal("Enable() expected error")
	}
	if !strings.Contains(err.Error(), "vdig") {
		t.Errorf("error %q does not name the rail", err)
	}
	if err := s.Disable(); err == nil {
		t.Fatal("Disable() expected error")
	}
}

func TestGPIOClockGatesOutput(t *testing.T) {
	pin := &gpiotest.Pin{N: "XCLK_EN"}
	c := NewGPIOClock(pin, 24000000)

	if c.Rate() != 24000000 {
		t.Errorf("Rate() = %d, want 24000000", c.Rate())
	}
	if err := c.Enable(); err != nil {
		t.Fatalf("Enable() error: %v", err)
	}
	if pin.L != gpio.High {
		t.Error("clock enable pin not driven high")
	}
	if err := c.Disable(); err != nil {
		t.Fatalf("Disable() error: %v", err)
	}
	if pin.L != gpio.Low {
		t.Error("clock enable pin not driven low")
	}
}

func TestSequencerOverGPIORails(t *testing.T) {
	vana := &gpiotest.Pin{N: "VANA_EN"}
	vdig := &gpiotest.Pin{N: "VDIG_EN"}
	vddl := &gpiotest.Pin{N: "VDDL_EN"}
	xclk := &gpiotest.Pin{N: "XCLK_EN"}
	xclr := &gpiotest.Pin{N: "XCLR"}

	seq := NewSequencer(
		[]Supply{
			NewGPIOSupply("vana", vana),
			NewGPIOSupply("vdig", vdig),
			NewGPIOSupply("vddl", vddl),
		},
		NewGPIOClock(xclk, 24000000),
		xclr,
		slog.New(slog.NewTextHandler(os.Stderr, nil)),
	)
	seq.sleep = func(time.Duration) {}

	if err := seq.Up(); err != nil {
		t.Fatalf("Up() error: %v", err)
	}
	for _, pin := range []*gpiotest.Pin{vana, vdig, vddl, xclk, xclr} {
		if pin.L != gpio.High {
			t.Errorf("pin %s low after power up", pin.N)
		}
	}

	seq.Down()
	for _, pin := range []*gpiotest.Pin{vana, vdig, vddl, xclk, xclr} {
		if pin.L != gpio.Low {
			t.Errorf("pin %s high after power down", pin.N)
		}
	}
}
