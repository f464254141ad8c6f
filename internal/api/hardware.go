package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/playoutnode/internal/api/models"
	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/hardware"
)

func (s *Server) registerHardwareRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-hardware",
		Method:      http.MethodGet,
		Path:        "/api/hardware",
		Summary:     "Hardware Capabilities",
		Description: "Get the accelerator inventory new pipelines are built against",
		Tags:        []string{"hardware"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.HardwareResponse, error) {
		if s.options.Hardware == nil {
			return nil, huma.Error503ServiceUnavailable("hardware detection is not configured")
		}
		return &models.HardwareResponse{Body: s.options.Hardware.Get()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "detect-hardware",
		Method:      http.MethodPost,
		Path:        "/api/hardware/detect",
		Summary:     "Detect Hardware",
		Description: "Re-run hardware detection, optionally with another ffmpeg binary or override",
		Tags:        []string{"hardware"},
		Security:    withAuth(),
		Errors:      []int{401, 422, 503},
	}, func(ctx context.Context, input *models.DetectRequest) (*models.HardwareResponse, error) {
		cache := s.options.Hardware
		if cache == nil {
			return nil, huma.Error503ServiceUnavailable("hardware detection is not configured")
		}

		if req := input.Body; req != nil && (req.FFmpegPath != "" || req.Hardware != "") {
			if req.Hardware != "" && !hardware.IsAuto(req.Hardware) {
				if _, ok := state.ParseHardwareAccel(req.Hardware); !ok {
					return nil, huma.Error422UnprocessableEntity("unknown hardware override: " + req.Hardware)
				}
			}
			path, override := cache.Settings()
			if req.FFmpegPath != "" {
				path = req.FFmpegPath
			}
			if req.Hardware != "" {
				override = req.Hardware
			}
			s.logger.Info("Reconfiguring hardware detection", "ffmpeg", path, "override", override)
			cache.Configure(path, override)
		}

		return &models.HardwareResponse{Body: cache.Refresh(ctx)}, nil
	})
}
