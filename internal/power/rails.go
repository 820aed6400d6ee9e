package power

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// GPIOSupply is a rail switched by a GPIO-controlled load switch.
type GPIOSupply struct {
	name string
	pin  gpio.PinOut
}

// NewGPIOSupply wraps pin as the enable input of the named rail.
func NewGPIOSupply(name string, pin gpio.PinOut) *GPIOSupply {
	return &GPIOSupply{name: name, pin: pin}
}

func (s *GPIOSupply) Name() string { return s.name }

func (s *GPIOSupply) Enable() error {
	if err := s.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("supply %s: %w", s.name, err)
	}
	return nil
}

func (s *GPIOSupply) Disable() error {
	if err := s.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("supply %s: %w", s.name, err)
	}
	return nil
}

// FixedSupply is a rail that is hardwired on. Enable and Disable are
// no-ops so boards without switchable rails can still run the sequencer.
type FixedSupply struct {
	name string
}

// NewFixedSupply names an always-on rail.
func NewFixedSupply(name string) *FixedSupply { return &FixedSupply{name: name} }

func (s *FixedSupply) Name() string   { return s.name }
func (s *FixedSupply) Enable() error  { return nil }
func (s *FixedSupply) Disable() error { return nil }

// FixedClock is a free-running oscillator feeding the module. It cannot
// be gated; only its rate matters for configuration validation.
type FixedClock struct {
	rate int64
}

// NewFixedClock declares an oscillator of the given frequency in Hz.
func NewFixedClock(rate int64) *FixedClock { return &FixedClock{rate: rate} }

func (c *FixedClock) Enable() error  { return nil }
func (c *FixedClock) Disable() error { return nil }
func (c *FixedClock) Rate() int64    { return c.rate }

// GPIOClock is an oscillator with a GPIO-controlled output-enable pin.
type GPIOClock struct {
	pin  gpio.PinOut
	rate int64
}

// NewGPIOClock wraps pin as the output-enable of an oscillator running at
// rate Hz.
func NewGPIOClock(pin gpio.PinOut, rate int64) *GPIOClock {
	return &GPIOClock{pin: pin, rate: rate}
}

func (c *GPIOClock) Enable() error  { return c.pin.Out(gpio.High) }
func (c *GPIOClock) Disable() error { return c.pin.Out(gpio.Low) }
func (c *GPIOClock) Rate() int64    { return c.rate }
