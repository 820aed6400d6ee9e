package sensor

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestFrameLength(t *testing.T) {
	tests := []struct {
		name    string
		mode    *Mode
		tpf     Fraction
		want    int64
		wantErr error
	}{
		{
			name: "full resolution default interval",
			mode: &supportedModes[0],
			tpf:  Fraction{Numerator: 100, Denominator: 270},
			want: 7127,
		},
		{
			name: "720p default interval",
			mode: &supportedModes[6],
			tpf:  Fraction{Numerator: 100, Denominator: 12000},
			want: 1083,
		},
		{
			name: "too fast clamps to mode height",
			mode: &supportedModes[0],
			tpf:  Fraction{Numerator: 1, Denominator: 10000},
			want: 6944,
		},
		{
			name:    "too slow exceeds the register range",
			mode:    &supportedModes[6],
			tpf:     Fraction{Numerator: 100, Denominator: 1},
			want:    frameLengthMax,
			wantErr: ErrFrameLengthRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := frameLength(tt.mode, tt.tpf)
			if got != tt.want {
				t.Errorf("frameLength = %d, want %d", got, tt.want)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("frameLength error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCatalogIntervalsFit(t *testing.T) {
	for i := range supportedModes {
		m := &supportedModes[i]
		fl, err := frameLength(m, m.DefaultInterval)
		if err != nil {
			t.Errorf("mode %dx%d: default interval: %v", m.Width, m.Height, err)
		}
		if fl < int64(m.Height) {
			t.Errorf("mode %dx%d: frame length %d below height", m.Width, m.Height, fl)
		}
	}
}

// framingSensor builds a Sensor with just enough state to exercise the
// control range computations, no bus attached.
func framingSensor(mode *Mode) *Sensor {
	return &Sensor{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		mode:     mode,
		controls: newControlSet(),
	}
}

func TestSetFramingLimits(t *testing.T) {
	tests := []struct {
		name          string
		mode          *Mode
		wantVBDefault int64
		wantVBMax     int64
		wantHBlank    int64
		wantExpMax    int64
	}{
		{
			name:          "9152x6944",
			mode:          &supportedModes[0],
			wantVBDefault: 183,
			wantVBMax:     (1<<7)*0xffff - 6944,
			wantHBlank:    46770 - 9152,
			wantExpMax:    6944 + 183 - 48,
		},
		{
			name:          "1920x1080",
			mode:          &supportedModes[5],
			wantVBDefault: 318,
			wantVBMax:     (1<<7)*0xffff - 1080,
			wantHBlank:    10723 - 1920,
			wantExpMax:    1080 + 318 - 48,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := framingSensor(tt.mode)
			s.setFramingLimits()

			vb := s.controls[CtrlVBlank]
			if vb.Default != tt.wantVBDefault || vb.Value != tt.wantVBDefault {
				t.Errorf("vblank default = %d (value %d), want %d", vb.Default, vb.Value, tt.wantVBDefault)
			}
			if vb.Min != tt.wantVBDefault {
				t.Errorf("vblank min = %d, want %d", vb.Min, tt.wantVBDefault)
			}
			if vb.Max != tt.wantVBMax {
				t.Errorf("vblank max = %d, want %d", vb.Max, tt.wantVBMax)
			}

			hb := s.controls[CtrlHBlank]
			if hb.Value != tt.wantHBlank || hb.Min != tt.wantHBlank || hb.Max != tt.wantHBlank {
				t.Errorf("hblank = %d [%d, %d], want pinned to %d", hb.Value, hb.Min, hb.Max, tt.wantHBlank)
			}

			if exp := s.controls[CtrlExposure]; exp.Max != tt.wantExpMax {
				t.Errorf("exposure max = %d, want %d", exp.Max, tt.wantExpMax)
			}
			if s.longExpShift != 0 {
				t.Errorf("long exposure shift = %d, want 0", s.longExpShift)
			}
		})
	}
}

func TestAdjustExposureRangeClampsValue(t *testing.T) {
	s := framingSensor(&supportedModes[0])
	s.setFramingLimits()

	// Widen the window, push exposure to its new ceiling, then narrow the
	// window back down: the cached value must follow the ceiling.
	s.controls[CtrlVBlank].Value = 1000
	s.adjustExposureRange()
	wantMax := int64(6944 + 1000 - 48)
	exp := s.controls[CtrlExposure]
	if exp.Max != wantMax {
		t.Fatalf("exposure max = %d, want %d", exp.Max, wantMax)
	}
	exp.Value = wantMax

	s.controls[CtrlVBlank].Value = 183
	s.adjustExposureRange()
	wantMax = 6944 + 183 - 48
	if exp.Max != wantMax {
		t.Errorf("exposure max = %d, want %d", exp.Max, wantMax)
	}
	if exp.Value != wantMax {
		t.Errorf("exposure value = %d, want clamped to %d", exp.Value, wantMax)
	}
}
