package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/playoutnode/internal/api/models"
	"github.com/smazurov/playoutnode/internal/ffmpeg"
)

// registerOptionsRoutes serves the input option table so clients editing a
// channel profile can offer only valid, non-conflicting flags.
func (s *Server) registerOptionsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-input-options",
		Method:      http.MethodGet,
		Path:        "/api/options",
		Summary:     "List Input Options",
		Description: "Input flags a channel profile can enable, grouped by category, with the options each one conflicts with",
		Tags:        []string{"channels"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.OptionsResponse, error) {
		return &models.OptionsResponse{
			Body: models.OptionsData{
				Options: ffmpeg.AllOptions,
			},
		}, nil
	})
}
