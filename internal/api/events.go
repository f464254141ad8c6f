package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/playoutnode/internal/events"
)

// keepaliveInterval bounds how long an idle SSE connection stays silent.
const keepaliveInterval = 30 * time.Second

// KeepaliveEvent is sent on idle SSE connections and once on connect.
type KeepaliveEvent struct {
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z"`
}

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of hardware detections, channel reloads and built pipelines",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"keepalive":             KeepaliveEvent{},
		"capabilities-detected": events.CapabilitiesDetectedEvent{},
		"channels-reloaded":     events.ChannelsReloadedEvent{},
		"pipeline-built":        events.PipelineBuiltEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		if s.eventBus == nil {
			return
		}

		eventCh := make(chan any, 16)
		unsubscribers := []func(){
			events.SubscribeToChannel[events.CapabilitiesDetectedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ChannelsReloadedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PipelineBuiltEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(KeepaliveEvent{Timestamp: time.Now().Format(time.RFC3339)}); err != nil {
			return
		}

		ticker := time.NewTicker(keepaliveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := send.Data(KeepaliveEvent{Timestamp: time.Now().Format(time.RFC3339)}); err != nil {
					return
				}
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
