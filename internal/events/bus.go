// Package events is the in-process event bus shared by the detector, the
// channel store and the pipeline orchestrator.
package events

import (
	"github.com/kelindar/event"
)

// Bus fans capability, channel and pipeline events out to subscribers.
// Delivery is asynchronous; handlers must not assume ordering across types.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers ev to the subscribers of its type. A nil Bus drops it so
// the detector and builder can run without one.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	switch e := ev.(type) {
	case CapabilitiesDetectedEvent:
		event.Publish(b.dispatcher, e)
	case ChannelsReloadedEvent:
		event.Publish(b.dispatcher, e)
	case PipelineBuiltEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type named by its parameter,
// e.g. func(PipelineBuiltEvent). Handlers of any other shape are ignored and
// get a no-op cancel func.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(CapabilitiesDetectedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ChannelsReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PipelineBuiltEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
