package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/sensornode/internal/api/models"
	"github.com/smazurov/sensornode/internal/sensor"
)

// registerSensorRoutes registers device state, mode, format, and control routes.
func (s *Server) registerSensorRoutes() {
	// Device status
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Device Status",
		Description: "Get power, streaming, and active mode state",
		Tags:        []string{"device"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{
			Body: models.StatusData{
				Powered:   s.sensor.Powered(),
				Streaming: s.sensor.Streaming(),
				Mode:      domainToAPIMode(s.sensor.ActiveMode()),
			},
		}, nil
	})

	// Power control
	huma.Register(s.api, huma.Operation{
		OperationID: "set-power",
		Method:      http.MethodPost,
		Path:        "/api/power",
		Summary:     "Set Power",
		Description: "Energize or shut down the device. Powering off an active device stops streaming first.",
		Tags:        []string{"device"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, input *models.PowerRequest) (*models.StatusResponse, error) {
		if input.Body.Powered {
			if err := s.sensor.PowerOn(); err != nil {
				return nil, s.mapSensorError(err)
			}
		} else {
			s.sensor.PowerOff()
		}

		return &models.StatusResponse{
			Body: models.StatusData{
				Powered:   s.sensor.Powered(),
				Streaming: s.sensor.Streaming(),
				Mode:      domainToAPIMode(s.sensor.ActiveMode()),
			},
		}, nil
	})

	// Streaming control
	huma.Register(s.api, huma.Operation{
		OperationID: "set-streaming",
		Method:      http.MethodPost,
		Path:        "/api/stream",
		Summary:     "Set Streaming",
		Description: "Start or stop pixel output. Starting requires the device to be powered.",
		Tags:        []string{"device"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(_ context.Context, input *models.StreamRequest) (*models.StatusResponse, error) {
		if err := s.sensor.SetStreaming(input.Body.Streaming); err != nil {
			return nil, s.mapSensorError(err)
		}

		return &models.StatusResponse{
			Body: models.StatusData{
				Powered:   s.sensor.Powered(),
				Streaming: s.sensor.Streaming(),
				Mode:      domainToAPIMode(s.sensor.ActiveMode()),
			},
		}, nil
	})

	// Mode catalog
	huma.Register(s.api, huma.Operation{
		OperationID: "list-modes",
		Method:      http.MethodGet,
		Path:        "/api/modes",
		Summary:     "List Modes",
		Description: "List the supported capture modes, largest first",
		Tags:        []string{"modes"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.ModeListResponse, error) {
		catalog := sensor.Modes()
		apiModes := make([]models.ModeData, len(catalog))
		for i, m := range catalog {
			apiModes[i] = domainToAPIMode(m)
		}

		return &models.ModeListResponse{
			Body: models.ModeListData{
				Modes: apiModes,
				Count: len(apiModes),
			},
		}, nil
	})

	// Pad format
	huma.Register(s.api, huma.Operation{
		OperationID: "get-format",
		Method:      http.MethodGet,
		Path:        "/api/pads/{pad}/format",
		Summary:     "Get Format",
		Description: "Get the active format on a source pad",
		Tags:        []string{"formats"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *struct {
		Pad string `path:"pad" enum:"image,metadata" doc:"Source pad name"`
	}) (*models.FormatResponse, error) {
		pad, err := parsePad(input.Pad)
		if err != nil {
			return nil, s.mapSensorError(err)
		}

		format, err := s.sensor.GetFormat(pad)
		if err != nil {
			return nil, s.mapSensorError(err)
		}

		return &models.FormatResponse{
			Body: domainToAPIFormat(input.Pad, format),
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-format",
		Method:      http.MethodPut,
		Path:        "/api/pads/{pad}/format",
		Summary:     "Set Format",
		Description: "Request a format on a source pad. The image pad snaps to the nearest catalog mode; the metadata pad is fixed.",
		Tags:        []string{"formats"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 409},
	}, func(_ context.Context, input *models.FormatUpdateRequest) (*models.FormatResponse, error) {
		pad, err := parsePad(input.Pad)
		if err != nil {
			return nil, s.mapSensorError(err)
		}

		format, err := s.sensor.SetFormat(pad, sensor.Format{
			Width:  input.Body.Width,
			Height: input.Body.Height,
		})
		if err != nil {
			return nil, s.mapSensorError(err)
		}

		return &models.FormatResponse{
			Body: domainToAPIFormat(input.Pad, format),
		}, nil
	})

	// Frame size enumeration
	huma.Register(s.api, huma.Operation{
		OperationID: "list-frame-sizes",
		Method:      http.MethodGet,
		Path:        "/api/pads/{pad}/frame-sizes",
		Summary:     "List Frame Sizes",
		Description: "Enumerate the frame sizes a source pad can produce",
		Tags:        []string{"formats"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *struct {
		Pad string `path:"pad" enum:"image,metadata" doc:"Source pad name"`
	}) (*models.FrameSizeListResponse, error) {
		pad, err := parsePad(input.Pad)
		if err != nil {
			return nil, s.mapSensorError(err)
		}

		sizes, err := s.sensor.EnumFrameSizes(pad)
		if err != nil {
			return nil, s.mapSensorError(err)
		}

		apiSizes := make([]models.FrameSizeData, len(sizes))
		for i, fs := range sizes {
			apiSizes[i] = models.FrameSizeData{
				Width:  fs.Width,
				Height: fs.Height,
				Code:   string(fs.Code),
			}
		}

		return &models.FrameSizeListResponse{
			Body: models.FrameSizeListData{
				Sizes: apiSizes,
				Count: len(apiSizes),
			},
		}, nil
	})

	// Selection rectangles
	huma.Register(s.api, huma.Operation{
		OperationID: "get-selection",
		Method:      http.MethodGet,
		Path:        "/api/selection/{target}",
		Summary:     "Get Selection",
		Description: "Get a selection rectangle: the active crop, the native array, or the usable pixel array",
		Tags:        []string{"formats"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *struct {
		Target string `path:"target" enum:"crop,native,default,bounds" doc:"Selection target"`
	}) (*models.SelectionResponse, error) {
		rect, err := s.sensor.GetSelection(sensor.SelectionTarget(input.Target))
		if err != nil {
			return nil, s.mapSensorError(err)
		}

		return &models.SelectionResponse{
			Body: models.SelectionData{
				Target: input.Target,
				Rect:   domainToAPIRect(rect),
			},
		}, nil
	})

	// Controls
	huma.Register(s.api, huma.Operation{
		OperationID: "list-controls",
		Method:      http.MethodGet,
		Path:        "/api/controls",
		Summary:     "List Controls",
		Description: "List all device controls with their current values and ranges",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.ControlListResponse, error) {
		controls := s.sensor.Controls()
		apiControls := make([]models.ControlData, len(controls))
		for i, c := range controls {
			apiControls[i] = domainToAPIControl(c)
		}

		return &models.ControlListResponse{
			Body: models.ControlListData{
				Controls: apiControls,
				Count:    len(apiControls),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-control",
		Method:      http.MethodGet,
		Path:        "/api/controls/{id}",
		Summary:     "Get Control",
		Description: "Get one control's current value and range",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *struct {
		ID string `path:"id" example:"exposure" doc:"Control identifier"`
	}) (*models.ControlResponse, error) {
		control, err := s.sensor.GetControl(sensor.ControlID(input.ID))
		if err != nil {
			return nil, s.mapSensorError(err)
		}

		return &models.ControlResponse{
			Body: domainToAPIControl(control),
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-control",
		Method:      http.MethodPut,
		Path:        "/api/controls/{id}",
		Summary:     "Set Control",
		Description: "Set a control value. Values are cached while powered off and applied on the next stream start.",
		Tags:        []string{"controls"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 409, 500},
	}, func(_ context.Context, input *models.ControlUpdateRequest) (*models.ControlResponse, error) {
		id := sensor.ControlID(input.ID)
		if err := s.sensor.SetControl(id, input.Body.Value); err != nil {
			return nil, s.mapSensorError(err)
		}

		control, err := s.sensor.GetControl(id)
		if err != nil {
			return nil, s.mapSensorError(err)
		}

		return &models.ControlResponse{
			Body: domainToAPIControl(control),
		}, nil
	})
}

// parsePad maps a pad name to its domain identifier.
func parsePad(name string) (sensor.Pad, error) {
	switch name {
	case "image":
		return sensor.PadImage, nil
	case "metadata":
		return sensor.PadMetadata, nil
	default:
		return 0, sensor.ErrInvalidPad
	}
}

// domainToAPIMode converts a domain mode to its API representation.
func domainToAPIMode(m sensor.Mode) models.ModeData {
	return models.ModeData{
		Width:      m.Width,
		Height:     m.Height,
		LineLength: m.LineLength,
		Crop:       domainToAPIRect(m.Crop),
		DefaultInterval: models.FractionData{
			Numerator:   m.DefaultInterval.Numerator,
			Denominator: m.DefaultInterval.Denominator,
		},
	}
}

func domainToAPIRect(r sensor.Rect) models.RectData {
	return models.RectData{
		Left:   r.Left,
		Top:    r.Top,
		Width:  r.Width,
		Height: r.Height,
	}
}

func domainToAPIFormat(pad string, f sensor.Format) models.FormatData {
	return models.FormatData{
		Pad:    pad,
		Width:  f.Width,
		Height: f.Height,
		Code:   string(f.Code),
	}
}

// domainToAPIControl converts a domain control, attaching the menu item
// names for menu controls.
func domainToAPIControl(c sensor.Control) models.ControlData {
	data := models.ControlData{
		ID:       string(c.ID),
		Min:      c.Min,
		Max:      c.Max,
		Step:     c.Step,
		Default:  c.Default,
		Value:    c.Value,
		ReadOnly: c.ReadOnly,
	}
	if c.ID == sensor.CtrlTestPattern {
		data.Menu = sensor.TestPatternMenu()
	}
	return data
}

// mapSensorError converts domain errors into HTTP errors.
func (s *Server) mapSensorError(err error) error {
	var rangeErr *sensor.RangeError
	var stateErr *sensor.StateError
	var configErr *sensor.ConfigError

	switch {
	case errors.Is(err, sensor.ErrUnsupportedControl):
		return huma.Error404NotFound("unknown control", err)
	case errors.Is(err, sensor.ErrInvalidPad):
		return huma.Error404NotFound("unknown pad", err)
	case errors.Is(err, sensor.ErrInvalidSelection):
		return huma.Error404NotFound("unknown selection target", err)
	case errors.Is(err, sensor.ErrReadOnlyControl):
		return huma.Error400BadRequest("control is read only", err)
	case errors.As(err, &rangeErr):
		return huma.Error400BadRequest(rangeErr.Error(), err)
	case errors.As(err, &configErr):
		return huma.Error400BadRequest(configErr.Error(), err)
	case errors.As(err, &stateErr):
		return huma.Error409Conflict(stateErr.Error(), err)
	default:
		return huma.Error500InternalServerError("internal server error", err)
	}
}
