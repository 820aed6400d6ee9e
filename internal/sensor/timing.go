package sensor

import (
	"fmt"
)

// frameLength derives the total row count per frame for the given
// interval at the fixed pixel rate, clamped to the mode height. A value
// beyond the timing register range reports ErrFrameLengthRange alongside
// the clamped maximum.
func frameLength(m *Mode, tpf Fraction) (int64, error) {
	fl := int64(tpf.Numerator) * PixelRate / (int64(tpf.Denominator) * int64(m.LineLength))
	if fl < int64(m.Height) {
		fl = int64(m.Height)
	}
	if fl > frameLengthMax {
		return frameLengthMax, fmt.Errorf("frame length %d for %d/%d s: %w",
			fl, tpf.Numerator, tpf.Denominator, ErrFrameLengthRange)
	}
	return fl, nil
}

// setFrameLength programs the frame length for the requested vertical
// blank. When the ideal value exceeds the register range it is halved,
// bumping the long-exposure shift, until it fits. The shift is recorded
// because exposure programming divides by it. Caller holds the lock and
// the device is powered.
func (s *Sensor) setFrameLength(vblank int64) error {
	val := vblank + int64(s.mode.Height)

	shift := uint(0)
	for val > frameLengthMax {
		if shift == longExpShiftMax {
			return fmt.Errorf("vblank %d: %w", vblank, ErrFrameLengthRange)
		}
		shift++
		val >>= 1
	}
	s.longExpShift = shift
	longExpShiftGauge.Set(float64(shift))
	frameLengthGauge.Set(float64(val))

	if err := s.conn.Write(regFrameLength, 2, uint32(val)); err != nil {
		return err
	}
	return s.conn.Write(regLongExpShift, 1, uint32(shift))
}

// adjustExposureRange rebounds the exposure control against the current
// vertical blank and clamps the cached value down if needed. The clamped
// value reaches hardware on the next exposure write or stream start.
func (s *Sensor) adjustExposureRange() {
	exp := s.controls[CtrlExposure]
	vblank := s.controls[CtrlVBlank].Value

	exp.Max = int64(s.mode.Height) + vblank - exposureOffset
	if exp.Value > exp.Max {
		exp.Value = exp.Max
	}
	exp.Default = min(exp.Max, exp.Value)
}

// setFramingLimits recomputes the mode-derived control ranges after a
// mode swap: vblank bounds and default (which cascades into the exposure
// range), the fixed horizontal blank, and a cleared long-exposure shift.
// No registers are written; the values land on the next stream start.
func (s *Sensor) setFramingLimits() {
	mode := s.mode

	// The default frame length gives the mode's fastest frame rate.
	flDefault, err := frameLength(mode, mode.DefaultInterval)
	if err != nil {
		// Catalog intervals always fit; tripping this means broken mode data.
		s.logger.Warn("default frame interval out of range", "width", mode.Width,
			"height", mode.Height, "error", err)
	}

	s.longExpShift = 0

	vb := s.controls[CtrlVBlank]
	vb.Min = flDefault - int64(mode.Height)
	vb.Max = (1<<longExpShiftMax)*frameLengthMax - int64(mode.Height)
	vb.Default = flDefault - int64(mode.Height)
	vb.Value = vb.Default
	s.adjustExposureRange()

	hb := s.controls[CtrlHBlank]
	hbVal := int64(mode.LineLength - mode.Width)
	hb.Min, hb.Max, hb.Default, hb.Value = hbVal, hbVal, hbVal, hbVal
}
