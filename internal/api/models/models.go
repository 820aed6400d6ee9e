package models

import (
	"time"

	"github.com/smazurov/sensornode/internal/logging"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc123" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2025-01-27T10:30:00Z" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"12345" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go version used to build"`
	Compiler  string `json:"compiler" example:"gc" doc:"Go compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Target platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Geometry models
type RectData struct {
	Left   int `json:"left" example:"48" doc:"Left offset in pixels"`
	Top    int `json:"top" example:"40" doc:"Top offset in pixels"`
	Width  int `json:"width" example:"9248" doc:"Width in pixels"`
	Height int `json:"height" example:"6944" doc:"Height in pixels"`
}

type FractionData struct {
	Numerator   uint32 `json:"numerator" example:"100" doc:"Interval numerator"`
	Denominator uint32 `json:"denominator" example:"270" doc:"Interval denominator"`
}

// Mode models
type ModeData struct {
	Width           int          `json:"width" example:"9152" doc:"Frame width in pixels"`
	Height          int          `json:"height" example:"6944" doc:"Frame height in pixels"`
	LineLength      int          `json:"line_length" example:"46770" doc:"Row length in pixel-rate cycles"`
	Crop            RectData     `json:"crop" doc:"Analog crop rectangle"`
	DefaultInterval FractionData `json:"default_interval" doc:"Default frame interval in seconds"`
}

type ModeListData struct {
	Modes []ModeData `json:"modes" doc:"Supported capture modes, largest first"`
	Count int        `json:"count" example:"7" doc:"Number of supported modes"`
}

type ModeListResponse struct {
	Body ModeListData
}

// Device status models
type StatusData struct {
	Powered   bool     `json:"powered" doc:"Whether the device is energized"`
	Streaming bool     `json:"streaming" doc:"Whether pixel output is active"`
	Mode      ModeData `json:"mode" doc:"Active capture mode"`
}

type StatusResponse struct {
	Body StatusData
}

type PowerRequestData struct {
	Powered bool `json:"powered" doc:"Desired power state"`
}

type PowerRequest struct {
	Body PowerRequestData
}

type StreamRequestData struct {
	Streaming bool `json:"streaming" doc:"Desired streaming state"`
}

type StreamRequest struct {
	Body StreamRequestData
}

// Format models
type FormatData struct {
	Pad    string `json:"pad" example:"image" doc:"Source pad name"`
	Width  int    `json:"width" example:"1920" doc:"Frame width in pixels"`
	Height int    `json:"height" example:"1080" doc:"Frame height in pixels"`
	Code   string `json:"code" example:"SRGGB10_1X10" doc:"Media-bus pixel encoding"`
}

type FormatResponse struct {
	Body FormatData
}

type FormatUpdateData struct {
	Width  int `json:"width" minimum:"1" example:"1920" doc:"Requested frame width"`
	Height int `json:"height" minimum:"1" example:"1080" doc:"Requested frame height"`
}

type FormatUpdateRequest struct {
	Pad  string `path:"pad" enum:"image,metadata" doc:"Source pad name"`
	Body FormatUpdateData
}

type FrameSizeData struct {
	Width  int    `json:"width" example:"1280" doc:"Frame width in pixels"`
	Height int    `json:"height" example:"720" doc:"Frame height in pixels"`
	Code   string `json:"code" example:"SRGGB10_1X10" doc:"Media-bus pixel encoding"`
}

type FrameSizeListData struct {
	Sizes []FrameSizeData `json:"sizes" doc:"Enumerable frame sizes for the pad"`
	Count int             `json:"count" example:"7" doc:"Number of frame sizes"`
}

type FrameSizeListResponse struct {
	Body FrameSizeListData
}

// Selection models
type SelectionData struct {
	Target string   `json:"target" example:"crop" doc:"Selection target"`
	Rect   RectData `json:"rect" doc:"Selected rectangle"`
}

type SelectionResponse struct {
	Body SelectionData
}

// Control models
type ControlData struct {
	ID       string   `json:"id" example:"exposure" doc:"Control identifier"`
	Min      int64    `json:"min" example:"9" doc:"Minimum legal value"`
	Max      int64    `json:"max" example:"7079" doc:"Maximum legal value"`
	Step     int64    `json:"step" example:"1" doc:"Value granularity"`
	Default  int64    `json:"default" example:"1000" doc:"Power-on default"`
	Value    int64    `json:"value" example:"1000" doc:"Current value"`
	ReadOnly bool     `json:"read_only" doc:"Whether the control is mode-derived and immutable"`
	Menu     []string `json:"menu,omitempty" doc:"Menu item names for menu controls"`
}

type ControlListData struct {
	Controls []ControlData `json:"controls" doc:"Device controls in registration order"`
	Count    int           `json:"count" example:"14" doc:"Number of controls"`
}

type ControlListResponse struct {
	Body ControlListData
}

type ControlResponse struct {
	Body ControlData
}

type ControlUpdateData struct {
	Value int64 `json:"value" example:"1500" doc:"New control value"`
}

type ControlUpdateRequest struct {
	ID   string `path:"id" example:"exposure" doc:"Control identifier"`
	Body ControlUpdateData
}

// Preset models
type PresetData struct {
	Name        string           `json:"name" example:"night" doc:"Preset name"`
	Description string           `json:"description,omitempty" example:"Long exposure for low light" doc:"Human-readable description"`
	Controls    map[string]int64 `json:"controls" doc:"Control values keyed by control identifier"`
	CreatedAt   time.Time        `json:"created_at,omitempty" doc:"When the preset was created"`
	UpdatedAt   time.Time        `json:"updated_at,omitempty" doc:"When the preset was last modified"`
}

type PresetListData struct {
	Presets []PresetData `json:"presets" doc:"Saved control presets"`
	Count   int          `json:"count" example:"2" doc:"Number of presets"`
}

type PresetListResponse struct {
	Body PresetListData
}

type PresetResponse struct {
	Body PresetData
}

type PresetCreateData struct {
	Name        string           `json:"name" pattern:"^[a-zA-Z0-9_-]+$" minLength:"1" maxLength:"50" example:"night" doc:"Preset name (alphanumeric, dashes, underscores only)"`
	Description string           `json:"description,omitempty" maxLength:"200" doc:"Human-readable description"`
	Controls    map[string]int64 `json:"controls" doc:"Control values keyed by control identifier"`
}

type PresetCreateRequest struct {
	Body PresetCreateData
}

type ControlApplyResult struct {
	ID    string `json:"id" example:"exposure" doc:"Control identifier"`
	Value int64  `json:"value" example:"1500" doc:"Requested value"`
	Error string `json:"error,omitempty" doc:"Rejection reason, empty on success"`
}

type PresetApplyData struct {
	Name    string               `json:"name" example:"night" doc:"Applied preset name"`
	Results []ControlApplyResult `json:"results" doc:"Per-control outcome in application order"`
	Failed  int                  `json:"failed" example:"0" doc:"Number of controls that were rejected"`
}

type PresetApplyResponse struct {
	Body PresetApplyData
}

// Log models
type LogHistoryData struct {
	Entries []logging.LogEntry `json:"entries" doc:"Buffered log entries, oldest first"`
	Count   int                `json:"count" example:"120" doc:"Number of entries"`
}

type LogHistoryResponse struct {
	Body LogHistoryData
}
