package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/playoutnode/internal/api/models"
	"github.com/smazurov/playoutnode/internal/channels"
	"github.com/smazurov/playoutnode/internal/ffmpeg"
	"github.com/smazurov/playoutnode/internal/ffmpeg/encoder"
	"github.com/smazurov/playoutnode/internal/hardware"
	"github.com/smazurov/playoutnode/internal/types"
)

func (s *Server) registerPipelineRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "preview-pipeline",
		Method:      http.MethodPost,
		Path:        "/api/pipeline/preview",
		Summary:     "Preview Pipeline",
		Description: "Build the ffmpeg command for a source and output settings without running it",
		Tags:        []string{"pipeline"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 422, 502, 503},
	}, func(ctx context.Context, input *models.PreviewRequest) (*models.PipelineResponse, error) {
		req := input.Body

		out := s.options.DefaultOutput
		if req.Output != nil {
			out = *req.Output
		}

		var opts []ffmpeg.BuildOption
		if req.Channel != "" {
			if s.options.Channels == nil {
				return nil, huma.Error404NotFound("channel profiles are not configured")
			}
			profile, ok := s.options.Channels.Get(req.Channel)
			if !ok {
				return nil, huma.Error404NotFound(fmt.Sprintf("channel %q not found", req.Channel))
			}
			out = profile.ToOutputSettings(out)
			opts = append(opts, profile.BuildOptions()...)
		}
		if req.Start > 0 {
			opts = append(opts, ffmpeg.WithStart(seconds(req.Start)))
		}
		if req.Finish > 0 {
			opts = append(opts, ffmpeg.WithFinish(seconds(req.Finish)))
		}
		if req.PtsOffset != 0 {
			opts = append(opts, ffmpeg.WithPtsOffset(seconds(req.PtsOffset)))
		}

		in := req.Source
		var probed *types.StreamInfo
		if req.Probe {
			info, err := s.probe(ctx, in.Path)
			if err != nil {
				return nil, toHumaError(err)
			}
			in, probed = info, &info
		}

		if s.options.Builder == nil {
			return nil, huma.Error503ServiceUnavailable("pipeline builder is not configured")
		}
		cmd, err := s.options.Builder.Build(in, out, opts...)
		if err != nil {
			return nil, toHumaError(err)
		}

		return &models.PipelineResponse{
			Body: models.PipelineData{
				ID:             cmd.ID.String(),
				Command:        cmd.String(),
				Argv:           cmd.Argv(),
				Env:            cmd.Env,
				VideoEncoder:   cmd.VideoEncoder,
				AudioEncoder:   cmd.AudioEncoder,
				Accel:          string(cmd.Accel),
				DecodeAccel:    string(cmd.Pipeline.DecoderMode),
				SoftwareDecode: cmd.SoftwareDecode,
				Filters:        cmd.Filters(),
				Channel:        cmd.ChannelID,
				Source:         probed,
				Output:         out,
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "probe-source",
		Method:      http.MethodPost,
		Path:        "/api/probe",
		Summary:     "Probe Source",
		Description: "Describe a file or URL with ffprobe",
		Tags:        []string{"pipeline"},
		Security:    withAuth(),
		Errors:      []int{401, 422, 502, 503},
	}, func(ctx context.Context, input *models.ProbeRequest) (*models.ProbeResponse, error) {
		info, err := s.probe(ctx, input.Body.Path)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &models.ProbeResponse{Body: info}, nil
	})
}

func (s *Server) probe(ctx context.Context, path string) (types.StreamInfo, error) {
	if s.options.Prober == nil {
		return types.StreamInfo{}, huma.Error503ServiceUnavailable("probing is not configured")
	}
	ffprobe := ""
	if s.options.Hardware != nil {
		ffprobe = s.options.Hardware.Get().FFprobePath
	}
	if ffprobe == "" {
		ffprobe = hardware.ProbePath(hardware.DefaultFFmpegPath)
	}
	return s.options.Prober.Probe(ctx, ffprobe, path)
}

// toHumaError maps domain errors to HTTP status codes.
func toHumaError(err error) error {
	var se huma.StatusError
	switch {
	case errors.As(err, &se):
		return err
	case errors.Is(err, channels.ErrChannelNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, ffmpeg.ErrMissingInput),
		errors.Is(err, ffmpeg.ErrInvalidOption),
		errors.Is(err, ffmpeg.ErrInvalidOutput),
		errors.Is(err, ffmpeg.ErrMediaUnreadable),
		errors.Is(err, encoder.ErrUnsupportedCodec),
		errors.Is(err, encoder.ErrUnsupportedRateControl),
		errors.Is(err, channels.ErrInvalidChannel):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, ffmpeg.ErrProbeFailed):
		return huma.Error502BadGateway(err.Error())
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
