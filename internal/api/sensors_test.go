package api

import (
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/sensornode/internal/config"
	"github.com/smazurov/sensornode/internal/sensor"
)

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error %v does not carry an HTTP status", err)
	}
	return se.GetStatus()
}

func TestMapSensorError(t *testing.T) {
	s := &Server{}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown control", sensor.ErrUnsupportedControl, 404},
		{"invalid pad", sensor.ErrInvalidPad, 404},
		{"invalid selection", sensor.ErrInvalidSelection, 404},
		{"read only control", sensor.ErrReadOnlyControl, 400},
		{"range error", &sensor.RangeError{ID: "exposure", Value: 1 << 30, Min: 9, Max: 7079}, 400},
		{"config error", &sensor.ConfigError{Field: "data lanes", Reason: "only 2-lane mode is supported"}, 400},
		{"state error", &sensor.StateError{Op: "set format", State: "streaming"}, 409},
		{"unknown error", errors.New("bus glitch"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := statusOf(t, s.mapSensorError(tt.err))
			if got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParsePad(t *testing.T) {
	if pad, err := parsePad("image"); err != nil || pad != sensor.PadImage {
		t.Errorf("parsePad(image) = %v, %v", pad, err)
	}
	if pad, err := parsePad("metadata"); err != nil || pad != sensor.PadMetadata {
		t.Errorf("parsePad(metadata) = %v, %v", pad, err)
	}
	if _, err := parsePad("thumbnail"); !errors.Is(err, sensor.ErrInvalidPad) {
		t.Errorf("parsePad(thumbnail) err = %v, want ErrInvalidPad", err)
	}
}

func TestDomainToAPIControlAttachesMenu(t *testing.T) {
	plain := domainToAPIControl(sensor.Control{ID: sensor.CtrlExposure, Min: 9, Max: 7079, Value: 1000})
	if plain.Menu != nil {
		t.Errorf("exposure control has menu %v, want none", plain.Menu)
	}

	menu := domainToAPIControl(sensor.Control{ID: sensor.CtrlTestPattern, Min: 0, Max: 4})
	if len(menu.Menu) != 5 {
		t.Fatalf("test pattern menu has %d items, want 5", len(menu.Menu))
	}
	if menu.Menu[0] != "Disabled" || menu.Menu[4] != "PN9" {
		t.Errorf("menu = %v", menu.Menu)
	}
}

func TestDomainToAPIMode(t *testing.T) {
	modes := sensor.Modes()
	got := domainToAPIMode(modes[0])

	if got.Width != 9152 || got.Height != 6944 {
		t.Errorf("mode = %dx%d, want 9152x6944", got.Width, got.Height)
	}
	if got.Crop.Left != 48 || got.Crop.Top != 40 {
		t.Errorf("crop origin = (%d, %d), want (48, 40)", got.Crop.Left, got.Crop.Top)
	}
	if got.Crop.Width != 9248 || got.Crop.Height != 6944 {
		t.Errorf("crop size = %dx%d, want 9248x6944", got.Crop.Width, got.Crop.Height)
	}
	if got.DefaultInterval.Numerator != 100 || got.DefaultInterval.Denominator != 270 {
		t.Errorf("interval = %d/%d, want 100/270",
			got.DefaultInterval.Numerator, got.DefaultInterval.Denominator)
	}
}

func TestDomainToAPIPreset(t *testing.T) {
	got := domainToAPIPreset(config.Preset{
		Name:        "night",
		Description: "long exposure",
		Controls:    map[string]int64{"exposure": 6000, "analogue_gain": 900},
	})

	if got.Name != "night" || got.Controls["exposure"] != 6000 {
		t.Errorf("preset = %+v", got)
	}
}
