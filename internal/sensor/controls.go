package sensor

// ControlID identifies a device control parameter.
type ControlID string

const (
	CtrlPixelRate   ControlID = "pixel_rate"
	CtrlLinkFreq    ControlID = "link_freq"
	CtrlVBlank      ControlID = "vblank"
	CtrlHBlank      ControlID = "hblank"
	CtrlExposure    ControlID = "exposure"
	CtrlAnalogGain  ControlID = "analogue_gain"
	CtrlDigitalGain ControlID = "digital_gain"
	CtrlHFlip       ControlID = "hflip"
	CtrlVFlip       ControlID = "vflip"
	CtrlTestPattern ControlID = "test_pattern"

	CtrlTestPatternRed    ControlID = "test_pattern_red"
	CtrlTestPatternGreenR ControlID = "test_pattern_greenr"
	CtrlTestPatternBlue   ControlID = "test_pattern_blue"
	CtrlTestPatternGreenB ControlID = "test_pattern_greenb"
)

// controlOrder is the registration order. Stream start re-applies the
// cached values of writable controls in exactly this order.
var controlOrder = []ControlID{
	CtrlPixelRate,
	CtrlLinkFreq,
	CtrlVBlank,
	CtrlHBlank,
	CtrlExposure,
	CtrlAnalogGain,
	CtrlDigitalGain,
	CtrlHFlip,
	CtrlVFlip,
	CtrlTestPattern,
	CtrlTestPatternRed,
	CtrlTestPatternGreenR,
	CtrlTestPatternBlue,
	CtrlTestPatternGreenB,
}

// Control is one parameter with its current value and legal range.
// Mode-derived controls are read-only; their ranges move on mode change.
type Control struct {
	ID       ControlID `json:"id"`
	Min      int64     `json:"min"`
	Max      int64     `json:"max"`
	Step     int64     `json:"step"`
	Default  int64     `json:"default"`
	Value    int64     `json:"value"`
	ReadOnly bool      `json:"read_only"`
}

// TestPatternMenu lists the selectable test patterns by menu index.
func TestPatternMenu() []string {
	return []string{"Disabled", "Color Bars", "Solid Color", "Grey Color Bars", "PN9"}
}

// testPatternValues maps menu indices to register values. The menu order
// does not match the register encoding.
var testPatternValues = []uint32{0, 2, 1, 3, 4}

// newControlSet builds the control table with power-on defaults. The
// mode-dependent ranges (vblank, hblank, exposure max) are placeholders
// until the first setFramingLimits call.
func newControlSet() map[ControlID]*Control {
	set := map[ControlID]*Control{
		CtrlPixelRate: {
			Min: PixelRate, Max: PixelRate, Step: 1, Default: PixelRate,
			ReadOnly: true,
		},
		CtrlLinkFreq: {
			Min: LinkFreq, Max: LinkFreq, Step: 1, Default: LinkFreq,
			ReadOnly: true,
		},
		CtrlVBlank: {Min: 0, Max: frameLengthMax, Step: 1},
		CtrlHBlank: {Min: 0, Max: frameLengthMax, Step: 1, ReadOnly: true},
		CtrlExposure: {
			Min:     exposureMin,
			Max:     frameLengthMax - exposureOffset,
			Step:    1,
			Default: exposureDefault,
		},
		CtrlAnalogGain:  {Min: 0, Max: analogGainMax, Step: 1, Default: 0},
		CtrlDigitalGain: {Min: digitalGainMin, Max: digitalGainMax, Step: 1, Default: digitalGainMin},
		CtrlHFlip:       {Min: 0, Max: 1, Step: 1, Default: 0},
		CtrlVFlip:       {Min: 0, Max: 1, Step: 1, Default: 0},
		CtrlTestPattern: {Min: 0, Max: int64(len(testPatternValues) - 1), Step: 1, Default: 0},

		// All colour components default to full scale, so the solid
		// pattern starts out white.
		CtrlTestPatternRed:    {Min: 0, Max: testPatternColourMax, Step: 1, Default: testPatternColourMax},
		CtrlTestPatternGreenR: {Min: 0, Max: testPatternColourMax, Step: 1, Default: testPatternColourMax},
		CtrlTestPatternBlue:   {Min: 0, Max: testPatternColourMax, Step: 1, Default: testPatternColourMax},
		CtrlTestPatternGreenB: {Min: 0, Max: testPatternColourMax, Step: 1, Default: testPatternColourMax},
	}
	for id, c := range set {
		c.ID = id
		c.Value = c.Default
	}
	return set
}
