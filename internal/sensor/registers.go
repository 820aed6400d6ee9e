package sensor

// Register map and fixed hardware parameters of the 64MP module.
const (
	// The chip identifier is exposed by a secondary peripheral on the
	// module, not by the sensor's own address.
	IdentAddr uint16 = 0x50
	// DefaultAddr is the sensor's control-bus address.
	DefaultAddr uint16 = 0x1a

	regChipID  uint16 = 0x005e
	chipIDWant uint32 = 0x4136

	regModeSelect uint16 = 0x0100
	modeStandby   uint32 = 0x00
	modeStreaming uint32 = 0x01

	regOrientation uint16 = 0x0101

	// V-timing.
	regFrameLength uint16 = 0x0340
	frameLengthMax        = 0xffff

	// Long exposure multiplier.
	regLongExpShift uint16 = 0x3100
	longExpShiftMax        = 7

	regExposure     uint16 = 0x0202
	exposureOffset         = 48
	exposureMin            = 9
	exposureDefault        = 0x3e8

	regAnalogGain  uint16 = 0x0204
	analogGainMax         = 1008

	regDigitalGain  uint16 = 0x020e
	digitalGainMin         = 0x0100
	digitalGainMax         = 0x0fff

	regTestPattern       uint16 = 0x0600
	regTestPatternRed    uint16 = 0x0602
	regTestPatternGreenR uint16 = 0x0604
	regTestPatternBlue   uint16 = 0x0606
	regTestPatternGreenB uint16 = 0x0608
	testPatternColourMax        = 0x0fff
)

// Attach-time configuration constants. The host wiring must match these
// exactly; there is no support for other geometries.
const (
	// XClkFreq is the only supported input clock rate in Hz.
	XClkFreq int64 = 24_000_000
	// LinkFreq is the only supported CSI-2 link frequency in Hz.
	LinkFreq int64 = 456_000_000
	// PixelRate is fixed for all modes, in pixels per second.
	PixelRate int64 = 900_000_000
	// NumDataLanes is the number of CSI-2 data lanes the module drives.
	NumDataLanes = 2
)

// Pixel array geometry.
const (
	nativeWidth  = 9344
	nativeHeight = 7032

	pixelArrayLeft   = 48
	pixelArrayTop    = 40
	pixelArrayWidth  = 9248
	pixelArrayHeight = 6944
)

// Embedded per-frame metadata channel geometry.
const (
	embeddedLineWidth = 11560 * 3
	numEmbeddedLines  = 1
)
