// Package power sequences the supply rails, external clock and reset line
// of a camera module.
package power

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Supply is a single switchable power rail.
type Supply interface {
	Name() string
	Enable() error
	Disable() error
}

// Clock is the module's external input clock.
type Clock interface {
	Enable() error
	Disable() error
	// Rate returns the clock frequency in Hz.
	Rate() int64
}

// Settle window between reset deassert and the sensor accepting bus
// traffic (datasheet T7, includes bus setup time).
const (
	settleMin    = 8 * time.Millisecond
	settleExtra  = 1 * time.Millisecond
)

// Sequencer drives the power-on and power-off sequence. Up and Down are
// not safe for concurrent use; the device state machine serializes them.
type Sequencer struct {
	supplies []Supply
	clk      Clock
	reset    gpio.PinOut
	logger   *slog.Logger

	sleep func(time.Duration) // test hook
}

// NewSequencer builds a sequencer over the given rails, clock and reset
// (XCLR) line. Supplies are enabled in slice order and disabled in the
// fixed teardown order.
func NewSequencer(supplies []Supply, clk Clock, reset gpio.PinOut, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{
		supplies: supplies,
		clk:      clk,
		reset:    reset,
		logger:   logger,
		sleep:    time.Sleep,
	}
}

// ClockRate returns the configured input clock frequency in Hz.
func (s *Sequencer) ClockRate() int64 { return s.clk.Rate() }

// Up energizes the module: supplies, clock, then reset release, followed
// by the mandatory settle delay. It returns only once the device is ready
// for bus traffic. A failure at any step unwinds the steps already taken.
func (s *Sequencer) Up() error {
	for i, sup := range s.supplies {
		if err := sup.Enable(); err != nil {
			s.unwindSupplies(i)
			return fmt.Errorf("power: enable supply %s: %w", sup.Name(), err)
		}
	}

	if err := s.clk.Enable(); err != nil {
		s.unwindSupplies(len(s.supplies))
		return fmt.Errorf("power: enable clock: %w", err)
	}

	if err := s.reset.Out(gpio.High); err != nil {
		if cerr := s.clk.Disable(); cerr != nil {
			s.logger.Warn("clock disable failed during unwind", "error", cerr)
		}
		s.unwindSupplies(len(s.supplies))
		return fmt.Errorf("power: release reset: %w", err)
	}

	s.sleep(settleMin + time.Duration(rand.Int64N(int64(settleExtra))))
	return nil
}

// Down de-energizes the module: reset assert, supplies off, clock off.
// There is no safe retry path during teardown, so failures are logged and
// the sequence continues.
func (s *Sequencer) Down() {
	if err := s.reset.Out(gpio.Low); err != nil {
		s.logger.Warn("failed to assert reset", "error", err)
	}
	for i := len(s.supplies) - 1; i >= 0; i-- {
		if err := s.supplies[i].Disable(); err != nil {
			s.logger.Warn("failed to disable supply", "supply", s.supplies[i].Name(), "error", err)
		}
	}
	if err := s.clk.Disable(); err != nil {
		s.logger.Warn("failed to disable clock", "error", err)
	}
}

func (s *Sequencer) unwindSupplies(n int) {
	for i := n - 1; i >= 0; i-- {
		if err := s.supplies[i].Disable(); err != nil {
			s.logger.Warn("failed to disable supply during unwind",
				"supply", s.supplies[i].Name(), "error", err)
		}
	}
}
