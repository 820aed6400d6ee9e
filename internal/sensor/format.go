package sensor

// Pad identifies one of the device's source channels.
type Pad int

const (
	// PadImage carries the Bayer image stream.
	PadImage Pad = iota
	// PadMetadata carries the embedded per-frame metadata lines.
	PadMetadata

	numPads
)

// PixelCode names a media-bus pixel encoding.
type PixelCode string

// The image pad produces one of four 10-bit Bayer permutations selected
// purely by the flip controls. The metadata pad always produces raw
// sensor data.
const (
	CodeSRGGB10 PixelCode = "SRGGB10_1X10"
	CodeSGRBG10 PixelCode = "SGRBG10_1X10"
	CodeSGBRG10 PixelCode = "SGBRG10_1X10"
	CodeSBGGR10 PixelCode = "SBGGR10_1X10"

	CodeSensorData PixelCode = "SENSOR_DATA"
)

// Order is fixed: no flip, hflip, vflip, both.
var bayerCodes = [4]PixelCode{CodeSRGGB10, CodeSGRBG10, CodeSGBRG10, CodeSBGGR10}

// bayerCode maps the flip bits to the produced Bayer order.
func bayerCode(hflip, vflip bool) PixelCode {
	i := 0
	if hflip {
		i |= 1
	}
	if vflip {
		i |= 2
	}
	return bayerCodes[i]
}

// Format describes a pad's active geometry and encoding.
type Format struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Code   PixelCode `json:"code"`
}

// FrameSize is one entry of the frame-size enumeration.
type FrameSize struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Code   PixelCode `json:"code"`
}

// SelectionTarget selects which rectangle GetSelection reports.
type SelectionTarget string

const (
	// SelectionCrop is the active mode's analog crop rectangle.
	SelectionCrop SelectionTarget = "crop"
	// SelectionNative is the full native array including dummy pixels.
	SelectionNative SelectionTarget = "native"
	// SelectionDefault and SelectionBounds are the usable pixel array.
	SelectionDefault SelectionTarget = "default"
	SelectionBounds  SelectionTarget = "bounds"
)
