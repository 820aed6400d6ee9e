// Package sensor implements the control plane of the Arducam 64MP camera
// module: the mode catalog, timing and exposure derivation, the
// power/stream state machine and the control surface.
//
// A Sensor owns a single physical device. Every state-affecting operation
// takes one coarse lock that spans the full register sequence, so
// operations never interleave partially. Register payload writes block
// on the control bus; there is no cancellation mid-sequence.
package sensor

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/smazurov/sensornode/internal/events"
	"github.com/smazurov/sensornode/internal/power"
	"github.com/smazurov/sensornode/internal/regmap"
)

// ErrInvalidPad is returned for pad indices the device does not expose.
var ErrInvalidPad = errors.New("invalid pad")

// ErrInvalidSelection is returned for unknown selection targets.
var ErrInvalidSelection = errors.New("invalid selection target")

// Config captures the host wiring the module is attached with. Attach
// rejects anything the hardware cannot drive.
type Config struct {
	// NumDataLanes is the CSI-2 lane count routed on the board.
	NumDataLanes int
	// LinkFrequencies lists the link frequencies the receiver accepts.
	// Exactly one entry, matching LinkFreq, is supported.
	LinkFrequencies []int64
}

// Options configures Attach.
type Options struct {
	// Bus is the control bus the module is attached to.
	Bus i2c.Bus
	// Addr overrides the sensor's bus address. Zero selects DefaultAddr.
	Addr uint16
	// Power drives the module's rails, clock and reset line.
	Power *power.Sequencer
	// Config is the host wiring description.
	Config Config
	// Logger receives state transition and failure logs.
	Logger *slog.Logger
	// Events optionally receives state change notifications.
	Events *events.Bus
}

// Sensor is the single authoritative state of one attached device.
type Sensor struct {
	mu sync.Mutex

	conn   *regmap.Conn // sensor registers
	ident  *regmap.Conn // identification peripheral, read-only
	seq    *power.Sequencer
	logger *slog.Logger
	events *events.Bus

	mode          *Mode
	powered       bool
	streaming     bool
	commonWritten bool
	longExpShift  uint
	controls      map[ControlID]*Control
}

// Attach validates the wiring, briefly powers the module to verify the
// chip identifier, and returns the device in the powered-off idle state.
// Configuration errors are raised before any power sequencing.
func Attach(opts Options) (*Sensor, error) {
	if opts.Config.NumDataLanes != NumDataLanes {
		return nil, &ConfigError{
			Field:  "data lanes",
			Reason: fmt.Sprintf("got %d, only %d lanes are supported", opts.Config.NumDataLanes, NumDataLanes),
		}
	}
	if n := len(opts.Config.LinkFrequencies); n != 1 {
		return nil, &ConfigError{
			Field:  "link frequency",
			Reason: fmt.Sprintf("exactly one link frequency required, got %d", n),
		}
	}
	if f := opts.Config.LinkFrequencies[0]; f != LinkFreq {
		return nil, &ConfigError{
			Field:  "link frequency",
			Reason: fmt.Sprintf("%d Hz not supported, need %d Hz", f, LinkFreq),
		}
	}
	if rate := opts.Power.ClockRate(); rate != XClkFreq {
		return nil, &ConfigError{
			Field:  "clock frequency",
			Reason: fmt.Sprintf("%d Hz not supported, need %d Hz", rate, XClkFreq),
		}
	}

	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sensor{
		conn:     regmap.New(&i2c.Dev{Bus: opts.Bus, Addr: addr}, "sensor"),
		ident:    regmap.New(&i2c.Dev{Bus: opts.Bus, Addr: IdentAddr}, "ident"),
		seq:      opts.Power,
		logger:   logger,
		events:   opts.Events,
		mode:     &supportedModes[0],
		controls: newControlSet(),
	}

	// The module must be powered for the identifier peripheral to answer.
	if err := s.seq.Up(); err != nil {
		return nil, fmt.Errorf("sensor: power on for identification: %w", err)
	}
	if err := s.identify(); err != nil {
		s.seq.Down()
		return nil, err
	}
	// Idle until streaming is requested.
	s.seq.Down()

	s.setFramingLimits()

	logger.Info("found Arducam 64MP", "addr", fmt.Sprintf("%#02x", addr))
	return s, nil
}

func (s *Sensor) identify() error {
	id, err := s.ident.Read(regChipID, 2)
	if err != nil {
		return &IdentificationError{Want: chipIDWant, Err: err}
	}
	if id != chipIDWant {
		return &IdentificationError{Got: id, Want: chipIDWant}
	}
	return nil
}

// Powered reports whether the device is currently energized.
func (s *Sensor) Powered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.powered
}

// Streaming reports whether the device is currently streaming.
func (s *Sensor) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// PowerOn energizes the device. It is a no-op when already powered and
// blocks for the power sequencer's settle window otherwise.
func (s *Sensor) PowerOn() error {
	s.mu.Lock()
	if s.powered {
		s.mu.Unlock()
		return nil
	}
	if err := s.seq.Up(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("sensor: power on: %w", err)
	}
	s.powered = true
	s.commonWritten = false
	powerState.Set(1)
	powerCycles.Inc()
	s.mu.Unlock()

	s.publish(events.PowerChangedEvent{Powered: true, Timestamp: timestamp()})
	return nil
}

// PowerOff shuts the device down. It is callable in any state, including
// mid-stream, and always succeeds from the driver's perspective; the
// hardware teardown is best-effort.
func (s *Sensor) PowerOff() {
	s.mu.Lock()
	if !s.powered {
		s.mu.Unlock()
		return
	}
	wasStreaming := s.streaming
	s.seq.Down()
	s.powered = false
	s.streaming = false
	// Common registers must be reprogrammed on the next power cycle.
	s.commonWritten = false
	powerState.Set(0)
	streamingState.Set(0)
	mode := s.mode
	s.mu.Unlock()

	if wasStreaming {
		s.publish(events.StreamStateChangedEvent{
			Streaming: false, Width: mode.Width, Height: mode.Height, Timestamp: timestamp(),
		})
	}
	s.publish(events.PowerChangedEvent{Powered: false, Timestamp: timestamp()})
}

// SetStreaming starts or stops the video stream. Calling it with the
// current state is a no-op returning success. Starting requires the
// device to be powered; a failure during start leaves the device powered
// and idle with streaming still off.
func (s *Sensor) SetStreaming(enable bool) error {
	s.mu.Lock()
	if s.streaming == enable {
		s.mu.Unlock()
		return nil
	}

	if enable {
		if !s.powered {
			s.mu.Unlock()
			return &StateError{Op: "start streaming", State: "powered off"}
		}
		if err := s.startStreaming(); err != nil {
			streamTransitions.WithLabelValues("start", "error").Inc()
			s.mu.Unlock()
			return err
		}
		streamTransitions.WithLabelValues("start", "ok").Inc()
	} else {
		s.stopStreaming()
		streamTransitions.WithLabelValues("stop", "ok").Inc()
	}

	s.streaming = enable
	if enable {
		streamingState.Set(1)
	} else {
		streamingState.Set(0)
	}
	mode := s.mode
	s.mu.Unlock()

	s.publish(events.StreamStateChangedEvent{
		Streaming: enable, Width: mode.Width, Height: mode.Height, Timestamp: timestamp(),
	})
	return nil
}

// startStreaming programs the full register state and enters streaming
// mode: common table (once per power cycle), the active mode's payload,
// every writable control in registration order, then the mode-select
// register. Any failure aborts; partially written tables are not rolled
// back because the payload sequences are not safe to partially undo.
func (s *Sensor) startStreaming() error {
	if !s.commonWritten {
		if err := s.conn.WriteSequence(commonRegs); err != nil {
			return fmt.Errorf("common register table: %w", err)
		}
		s.commonWritten = true
	}

	if err := s.conn.WriteSequence(s.mode.payload); err != nil {
		return fmt.Errorf("mode %dx%d register table: %w", s.mode.Width, s.mode.Height, err)
	}

	for _, id := range controlOrder {
		c := s.controls[id]
		if c.ReadOnly {
			continue
		}
		if err := s.writeControl(id); err != nil {
			return fmt.Errorf("apply control %s: %w", id, err)
		}
	}

	return s.conn.Write(regModeSelect, 1, modeStreaming)
}

// stopStreaming puts the sensor in software standby. A failure is logged
// but never blocks the transition back to idle; the caller always clears
// the streaming flag.
func (s *Sensor) stopStreaming() {
	if err := s.conn.Write(regModeSelect, 1, modeStandby); err != nil {
		s.logger.Error("failed to enter standby", "error", err)
	}
}

// Suspend halts the stream for system sleep without powering off or
// forgetting that the device was streaming.
func (s *Sensor) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming && s.powered {
		s.stopStreaming()
	}
}

// Resume restarts the stream after system sleep if it was running before
// Suspend. On failure the device is forced back to idle rather than left
// in an ambiguous state.
func (s *Sensor) Resume() error {
	s.mu.Lock()
	if !s.streaming {
		s.mu.Unlock()
		return nil
	}
	if err := s.startStreaming(); err != nil {
		s.stopStreaming()
		s.streaming = false
		streamingState.Set(0)
		mode := s.mode
		s.mu.Unlock()
		s.publish(events.StreamStateChangedEvent{
			Streaming: false, Width: mode.Width, Height: mode.Height, Timestamp: timestamp(),
		})
		return fmt.Errorf("sensor: resume: %w", err)
	}
	s.mu.Unlock()
	return nil
}

// Close stops streaming if needed and forces power off. The Sensor must
// not be used afterwards.
func (s *Sensor) Close() error {
	s.mu.Lock()
	if s.streaming && s.powered {
		s.stopStreaming()
		s.streaming = false
		streamingState.Set(0)
	}
	s.mu.Unlock()
	s.PowerOff()
	return nil
}

// GetFormat returns the pad's active geometry and encoding. The image
// pad's Bayer order depends on the current flips.
func (s *Sensor) GetFormat(pad Pad) (Format, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch pad {
	case PadImage:
		return Format{Width: s.mode.Width, Height: s.mode.Height, Code: s.bayerCodeLocked()}, nil
	case PadMetadata:
		return Format{Width: embeddedLineWidth, Height: numEmbeddedLines, Code: CodeSensorData}, nil
	default:
		return Format{}, fmt.Errorf("%w: %d", ErrInvalidPad, pad)
	}
}

// SetFormat negotiates the pad geometry. The image pad resolves to the
// nearest catalog mode and swaps the active mode, recomputing the framing
// limits; no registers are written until streaming starts. The metadata
// pad only supports its fixed geometry. Mode changes are rejected while
// streaming.
func (s *Sensor) SetFormat(pad Pad, want Format) (Format, error) {
	s.mu.Lock()

	switch pad {
	case PadImage:
		if s.streaming {
			s.mu.Unlock()
			return Format{}, &StateError{Op: "set format", State: "streaming"}
		}
		mode := nearestMode(want.Width, want.Height)
		changed := mode != s.mode
		s.mode = mode
		s.setFramingLimits()
		got := Format{Width: mode.Width, Height: mode.Height, Code: s.bayerCodeLocked()}
		s.mu.Unlock()

		if changed {
			s.publish(events.ModeChangedEvent{Width: mode.Width, Height: mode.Height, Timestamp: timestamp()})
		}
		return got, nil

	case PadMetadata:
		got := Format{Width: embeddedLineWidth, Height: numEmbeddedLines, Code: CodeSensorData}
		s.mu.Unlock()
		return got, nil

	default:
		s.mu.Unlock()
		return Format{}, fmt.Errorf("%w: %d", ErrInvalidPad, pad)
	}
}

// EnumFrameSizes lists the supported frame sizes for a pad, in catalog
// order for the image pad.
func (s *Sensor) EnumFrameSizes(pad Pad) ([]FrameSize, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch pad {
	case PadImage:
		code := s.bayerCodeLocked()
		sizes := make([]FrameSize, len(supportedModes))
		for i := range supportedModes {
			sizes[i] = FrameSize{Width: supportedModes[i].Width, Height: supportedModes[i].Height, Code: code}
		}
		return sizes, nil
	case PadMetadata:
		return []FrameSize{{Width: embeddedLineWidth, Height: numEmbeddedLines, Code: CodeSensorData}}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPad, pad)
	}
}

// GetSelection reports the requested rectangle: the active mode's crop,
// the native array, or the usable pixel-array bounds.
func (s *Sensor) GetSelection(target SelectionTarget) (Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch target {
	case SelectionCrop:
		return s.mode.Crop, nil
	case SelectionNative:
		return Rect{Left: 0, Top: 0, Width: nativeWidth, Height: nativeHeight}, nil
	case SelectionDefault, SelectionBounds:
		return Rect{Left: pixelArrayLeft, Top: pixelArrayTop, Width: pixelArrayWidth, Height: pixelArrayHeight}, nil
	default:
		return Rect{}, fmt.Errorf("%w: %q", ErrInvalidSelection, target)
	}
}

// ActiveMode returns a copy of the currently selected mode.
func (s *Sensor) ActiveMode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.mode
}

// Controls returns every control with its current value and range, in
// registration order.
func (s *Sensor) Controls() []Control {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Control, 0, len(controlOrder))
	for _, id := range controlOrder {
		out = append(out, *s.controls[id])
	}
	return out
}

// GetControl returns one control with its current value and range.
func (s *Sensor) GetControl(id ControlID) (Control, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.controls[id]
	if !ok {
		return Control{}, fmt.Errorf("%w: %s", ErrUnsupportedControl, id)
	}
	return *c, nil
}

// SetControl validates and stores a control value. While powered the
// corresponding registers are written immediately; otherwise the value is
// cached and applied on the next stream start. Vertical blank changes
// recompute the exposure range first. Flips are rejected while streaming.
func (s *Sensor) SetControl(id ControlID, value int64) error {
	s.mu.Lock()

	c, ok := s.controls[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnsupportedControl, id)
	}
	if c.ReadOnly {
		s.mu.Unlock()
		return fmt.Errorf("control %s: %w", id, ErrReadOnlyControl)
	}
	if (id == CtrlHFlip || id == CtrlVFlip) && s.streaming {
		s.mu.Unlock()
		return &StateError{Op: "set " + string(id), State: "streaming"}
	}
	if value < c.Min || value > c.Max {
		s.mu.Unlock()
		return &RangeError{ID: id, Value: value, Min: c.Min, Max: c.Max}
	}

	c.Value = value
	// Vertical blank moves the usable exposure window.
	if id == CtrlVBlank {
		s.adjustExposureRange()
	}

	applied := false
	if s.powered {
		if err := s.writeControl(id); err != nil {
			s.mu.Unlock()
			return err
		}
		applied = true
	}
	s.mu.Unlock()

	s.publish(events.ControlChangedEvent{ID: string(id), Value: value, Applied: applied, Timestamp: timestamp()})
	return nil
}

// writeControl programs the register(s) behind a control from its cached
// value. Caller holds the lock and the device is powered.
func (s *Sensor) writeControl(id ControlID) error {
	c := s.controls[id]

	switch id {
	case CtrlVBlank:
		return s.setFrameLength(c.Value)
	case CtrlExposure:
		return s.conn.Write(regExposure, 2, uint32(c.Value>>s.longExpShift))
	case CtrlAnalogGain:
		return s.conn.Write(regAnalogGain, 2, uint32(c.Value))
	case CtrlDigitalGain:
		return s.conn.Write(regDigitalGain, 2, uint32(c.Value))
	case CtrlHFlip, CtrlVFlip:
		return s.conn.Write(regOrientation, 1, s.orientationLocked())
	case CtrlTestPattern:
		return s.conn.Write(regTestPattern, 2, testPatternValues[c.Value])
	case CtrlTestPatternRed:
		return s.conn.Write(regTestPatternRed, 2, uint32(c.Value))
	case CtrlTestPatternGreenR:
		return s.conn.Write(regTestPatternGreenR, 2, uint32(c.Value))
	case CtrlTestPatternBlue:
		return s.conn.Write(regTestPatternBlue, 2, uint32(c.Value))
	case CtrlTestPatternGreenB:
		return s.conn.Write(regTestPatternGreenB, 2, uint32(c.Value))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedControl, id)
	}
}

func (s *Sensor) orientationLocked() uint32 {
	var v uint32
	if s.controls[CtrlHFlip].Value != 0 {
		v |= 1
	}
	if s.controls[CtrlVFlip].Value != 0 {
		v |= 2
	}
	return v
}

func (s *Sensor) bayerCodeLocked() PixelCode {
	return bayerCode(s.controls[CtrlHFlip].Value != 0, s.controls[CtrlVFlip].Value != 0)
}

func (s *Sensor) publish(ev events.Event) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
