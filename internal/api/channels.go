package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/playoutnode/internal/api/models"
	"github.com/smazurov/playoutnode/internal/channels"
)

func (s *Server) registerChannelRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-channels",
		Method:      http.MethodGet,
		Path:        "/api/channels",
		Summary:     "List Channels",
		Description: "List the loaded channel profiles",
		Tags:        []string{"channels"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.ChannelListResponse, error) {
		store, err := s.channelStore()
		if err != nil {
			return nil, err
		}
		return channelList(store), nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-channel",
		Method:      http.MethodGet,
		Path:        "/api/channels/{id}",
		Summary:     "Get Channel",
		Description: "Get one channel profile",
		Tags:        []string{"channels"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 503},
	}, func(_ context.Context, input *models.ChannelIDInput) (*models.ChannelResponse, error) {
		store, err := s.channelStore()
		if err != nil {
			return nil, err
		}
		profile, ok := store.Get(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("channel not found: " + input.ID)
		}
		return &models.ChannelResponse{Body: profile}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "put-channel",
		Method:      http.MethodPut,
		Path:        "/api/channels/{id}",
		Summary:     "Save Channel",
		Description: "Create or replace a channel profile and write the channel file",
		Tags:        []string{"channels"},
		Security:    withAuth(),
		Errors:      []int{401, 422, 500, 503},
	}, func(_ context.Context, input *models.ChannelPutRequest) (*models.ChannelResponse, error) {
		store, err := s.channelStore()
		if err != nil {
			return nil, err
		}
		profile := input.Body
		if profile.ID != "" && profile.ID != input.ID {
			return nil, huma.Error422UnprocessableEntity("body id does not match path id")
		}
		profile.ID = input.ID
		if err := store.Put(profile); err != nil {
			return nil, toHumaError(err)
		}
		s.logger.Info("Channel saved", "channel", profile.ID)
		return &models.ChannelResponse{Body: profile}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-channel",
		Method:        http.MethodDelete,
		Path:          "/api/channels/{id}",
		Summary:       "Delete Channel",
		Description:   "Remove a channel profile and write the channel file",
		Tags:          []string{"channels"},
		Security:      withAuth(),
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{401, 404, 500, 503},
	}, func(_ context.Context, input *models.ChannelIDInput) (*struct{}, error) {
		store, err := s.channelStore()
		if err != nil {
			return nil, err
		}
		if err := store.Remove(input.ID); err != nil {
			return nil, toHumaError(err)
		}
		s.logger.Info("Channel removed", "channel", input.ID)
		return nil, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "reload-channels",
		Method:      http.MethodPost,
		Path:        "/api/channels/reload",
		Summary:     "Reload Channels",
		Description: "Re-read the channel file; on failure the previous profiles stay active",
		Tags:        []string{"channels"},
		Security:    withAuth(),
		Errors:      []int{401, 422, 503},
	}, func(_ context.Context, _ *struct{}) (*models.ChannelListResponse, error) {
		store, err := s.channelStore()
		if err != nil {
			return nil, err
		}
		if err := store.Load(); err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return channelList(store), nil
	})
}

func (s *Server) channelStore() (*channels.Store, error) {
	if s.options.Channels == nil {
		return nil, huma.Error503ServiceUnavailable("channel profiles are not configured")
	}
	return s.options.Channels, nil
}

func channelList(store *channels.Store) *models.ChannelListResponse {
	list := store.List()
	return &models.ChannelListResponse{
		Body: models.ChannelListData{
			Channels: list,
			Count:    len(list),
			Path:     store.Path(),
		},
	}
}
