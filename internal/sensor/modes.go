package sensor

import (
	"bufio"
	"embed"
	"fmt"
	"strings"

	"github.com/smazurov/sensornode/internal/regmap"
)

// Register payload tables are opaque tuning data shipped as assets: one
// "addr value" hex pair per line, applied in file order.
//
//go:embed data/*.regs
var payloadFS embed.FS

// Fraction is a frame interval as a rational number of seconds.
type Fraction struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

// Rect is a pixel rectangle on the sensor array.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Mode is one supported capture geometry with its fixed timing and
// register payload. Modes are immutable after package init.
type Mode struct {
	// Frame size in pixels.
	Width  int
	Height int

	// LineLength is the H-timing in pixel-rate cycles per row.
	LineLength int

	// Crop is the analog crop rectangle.
	Crop Rect

	// DefaultInterval is the default (fastest) frame interval.
	DefaultInterval Fraction

	payload []regmap.Reg
}

// commonRegs is the shared tuning sequence applied once per power cycle,
// independent of the active mode.
var commonRegs = loadPayload("common")

// supportedModes is the mode catalog, declaration order largest first.
var supportedModes = []Mode{
	{
		Width:           9152,
		Height:          6944,
		LineLength:      0xb6b2,
		Crop:            Rect{Left: pixelArrayLeft, Top: pixelArrayTop, Width: 9248, Height: 6944},
		DefaultInterval: Fraction{Numerator: 100, Denominator: 270},
		payload:         loadPayload("mode_9152x6944"),
	},
	{
		Width:           8000,
		Height:          6000,
		LineLength:      0xb6b2,
		Crop:            Rect{Left: pixelArrayLeft + 624, Top: pixelArrayTop + 472, Width: 9248, Height: 6944},
		DefaultInterval: Fraction{Numerator: 100, Denominator: 300},
		payload:         loadPayload("mode_8000x6000"),
	},
	{
		Width:           4624,
		Height:          3472,
		LineLength:      0x6397,
		Crop:            Rect{Left: pixelArrayLeft, Top: pixelArrayTop, Width: 9248, Height: 6944},
		DefaultInterval: Fraction{Numerator: 100, Denominator: 1000},
		payload:         loadPayload("mode_4624x3472"),
	},
	{
		Width:           3840,
		Height:          2160,
		LineLength:      0x4eb7,
		Crop:            Rect{Left: pixelArrayLeft + 784, Top: pixelArrayTop + 1312, Width: 7680, Height: 4320},
		DefaultInterval: Fraction{Numerator: 100, Denominator: 2000},
		payload:         loadPayload("mode_3840x2160"),
	},
	{
		Width:           2312,
		Height:          1736,
		LineLength:      0x3360,
		Crop:            Rect{Left: pixelArrayLeft, Top: pixelArrayTop, Width: 9248, Height: 6944},
		DefaultInterval: Fraction{Numerator: 100, Denominator: 3000},
		payload:         loadPayload("mode_2312x1736"),
	},
	{
		Width:           1920,
		Height:          1080,
		LineLength:      0x29e3,
		Crop:            Rect{Left: pixelArrayLeft + 784, Top: pixelArrayTop + 1312, Width: 7680, Height: 4320},
		DefaultInterval: Fraction{Numerator: 100, Denominator: 6000},
		payload:         loadPayload("mode_1920x1080"),
	},
	{
		Width:           1280,
		Height:          720,
		LineLength:      0x1b08,
		Crop:            Rect{Left: pixelArrayLeft + 2064, Top: pixelArrayTop + 2032, Width: 5120, Height: 2880},
		DefaultInterval: Fraction{Numerator: 100, Denominator: 12000},
		payload:         loadPayload("mode_1280x720"),
	},
}

func loadPayload(name string) []regmap.Reg {
	f, err := payloadFS.Open("data/" + name + ".regs")
	if err != nil {
		panic(fmt.Sprintf("sensor: missing payload table %s: %v", name, err))
	}
	defer f.Close()

	var regs []regmap.Reg
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var addr uint16
		var val uint8
		if _, err := fmt.Sscanf(line, "%x %x", &addr, &val); err != nil {
			panic(fmt.Sprintf("sensor: payload table %s line %d: %v", name, lineNo, err))
		}
		regs = append(regs, regmap.Reg{Addr: addr, Val: val})
	}
	if err := sc.Err(); err != nil {
		panic(fmt.Sprintf("sensor: payload table %s: %v", name, err))
	}
	return regs
}

// Modes returns the supported capture modes in declaration order, largest
// resolution first.
func Modes() []Mode {
	out := make([]Mode, len(supportedModes))
	copy(out, supportedModes)
	return out
}

// nearestMode selects the catalog entry closest to the requested size,
// minimizing the squared distance of both dimensions. Ties keep the
// earlier catalog entry.
func nearestMode(width, height int) *Mode {
	best := &supportedModes[0]
	bestDist := int64(-1)
	for i := range supportedModes {
		m := &supportedModes[i]
		dw := int64(m.Width - width)
		dh := int64(m.Height - height)
		dist := dw*dw + dh*dh
		if bestDist < 0 || dist < bestDist {
			best = m
			bestDist = dist
		}
	}
	return best
}
