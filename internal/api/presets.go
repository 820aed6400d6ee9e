package api

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/sensornode/internal/api/models"
	"github.com/smazurov/sensornode/internal/config"
	"github.com/smazurov/sensornode/internal/sensor"
)

// registerPresetRoutes registers CRUD and apply routes for control presets.
func (s *Server) registerPresetRoutes() {
	// List presets
	huma.Register(s.api, huma.Operation{
		OperationID: "list-presets",
		Method:      http.MethodGet,
		Path:        "/api/presets",
		Summary:     "List Presets",
		Description: "List all saved control presets",
		Tags:        []string{"presets"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.PresetListResponse, error) {
		presets := s.presets.GetPresets()

		names := make([]string, 0, len(presets))
		for name := range presets {
			names = append(names, name)
		}
		sort.Strings(names)

		apiPresets := make([]models.PresetData, len(names))
		for i, name := range names {
			apiPresets[i] = domainToAPIPreset(presets[name])
		}

		return &models.PresetListResponse{
			Body: models.PresetListData{
				Presets: apiPresets,
				Count:   len(apiPresets),
			},
		}, nil
	})

	// Get one preset
	huma.Register(s.api, huma.Operation{
		OperationID: "get-preset",
		Method:      http.MethodGet,
		Path:        "/api/presets/{name}",
		Summary:     "Get Preset",
		Description: "Get one saved preset by name",
		Tags:        []string{"presets"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *struct {
		Name string `path:"name" example:"night" doc:"Preset name"`
	}) (*models.PresetResponse, error) {
		preset, ok := s.presets.GetPreset(input.Name)
		if !ok {
			return nil, huma.Error404NotFound("preset not found")
		}

		return &models.PresetResponse{
			Body: domainToAPIPreset(preset),
		}, nil
	})

	// Create or replace a preset
	huma.Register(s.api, huma.Operation{
		OperationID: "create-preset",
		Method:      http.MethodPost,
		Path:        "/api/presets",
		Summary:     "Create Preset",
		Description: "Save a named bundle of control values. Unknown control identifiers are rejected.",
		Tags:        []string{"presets"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 500},
	}, func(_ context.Context, input *models.PresetCreateRequest) (*models.PresetResponse, error) {
		// Reject control identifiers the device does not declare before
		// anything is persisted.
		for id := range input.Body.Controls {
			if _, err := s.sensor.GetControl(sensor.ControlID(id)); err != nil {
				return nil, huma.Error400BadRequest("unknown control in preset: "+id, err)
			}
		}

		preset := config.Preset{
			Name:        input.Body.Name,
			Description: input.Body.Description,
			Controls:    input.Body.Controls,
		}
		if err := s.presets.AddPreset(preset); err != nil {
			return nil, huma.Error400BadRequest("preset rejected", err)
		}

		saved, _ := s.presets.GetPreset(input.Body.Name)
		return &models.PresetResponse{
			Body: domainToAPIPreset(saved),
		}, nil
	})

	// Delete a preset
	huma.Register(s.api, huma.Operation{
		OperationID: "delete-preset",
		Method:      http.MethodDelete,
		Path:        "/api/presets/{name}",
		Summary:     "Delete Preset",
		Description: "Remove a saved preset",
		Tags:        []string{"presets"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(_ context.Context, input *struct {
		Name string `path:"name" example:"night" doc:"Preset name"`
	}) (*struct{}, error) {
		if _, ok := s.presets.GetPreset(input.Name); !ok {
			return nil, huma.Error404NotFound("preset not found")
		}
		if err := s.presets.RemovePreset(input.Name); err != nil {
			return nil, huma.Error500InternalServerError("failed to remove preset", err)
		}
		return &struct{}{}, nil
	})

	// Apply a preset to the device
	huma.Register(s.api, huma.Operation{
		OperationID: "apply-preset",
		Method:      http.MethodPost,
		Path:        "/api/presets/{name}/apply",
		Summary:     "Apply Preset",
		Description: "Apply a preset's control values in a stable order. Controls that fail are reported but do not stop the rest.",
		Tags:        []string{"presets"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *struct {
		Name string `path:"name" example:"night" doc:"Preset name"`
	}) (*models.PresetApplyResponse, error) {
		preset, ok := s.presets.GetPreset(input.Name)
		if !ok {
			return nil, huma.Error404NotFound("preset not found")
		}

		// Stable order so repeated applies behave identically.
		ids := make([]string, 0, len(preset.Controls))
		for id := range preset.Controls {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		results := make([]models.ControlApplyResult, 0, len(ids))
		failed := 0
		for _, id := range ids {
			value := preset.Controls[id]
			result := models.ControlApplyResult{ID: id, Value: value}
			if err := s.sensor.SetControl(sensor.ControlID(id), value); err != nil {
				result.Error = err.Error()
				failed++
			}
			results = append(results, result)
		}

		if failed > 0 {
			s.logger.Warn("Preset applied with rejected controls",
				"preset", input.Name, "failed", failed, "total", len(ids))
		}

		return &models.PresetApplyResponse{
			Body: models.PresetApplyData{
				Name:    input.Name,
				Results: results,
				Failed:  failed,
			},
		}, nil
	})
}

func domainToAPIPreset(p config.Preset) models.PresetData {
	return models.PresetData{
		Name:        p.Name,
		Description: p.Description,
		Controls:    p.Controls,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
