package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan CapabilitiesDetectedEvent, 1)

	unsub := bus.Subscribe(func(e CapabilitiesDetectedEvent) {
		received <- e
	})
	defer unsub()

	ev := CapabilitiesDetectedEvent{
		Available: []string{"nvenc"},
		Preferred: "nvenc",
		Platform:  "linux",
		Timestamp: "2026-01-27T10:30:00Z",
	}
	bus.Publish(ev)

	got := <-received
	if got.Preferred != ev.Preferred {
		t.Errorf("Expected preferred %s, got %s", ev.Preferred, got.Preferred)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan PipelineBuiltEvent, 1)
	received2 := make(chan PipelineBuiltEvent, 1)

	unsub1 := bus.Subscribe(func(e PipelineBuiltEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e PipelineBuiltEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(PipelineBuiltEvent{ID: "abc", VideoEncoder: "libx264"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ChannelsReloadedEvent, 1)

	unsub := bus.Subscribe(func(e ChannelsReloadedEvent) {
		received <- e
	})

	bus.Publish(ChannelsReloadedEvent{Channels: []string{"one"}})
	<-received

	unsub()

	bus.Publish(ChannelsReloadedEvent{Channels: []string{"two"}})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	capsReceived := make(chan bool, 1)
	buildReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ CapabilitiesDetectedEvent) {
		capsReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ PipelineBuiltEvent) {
		buildReceived <- true
	})
	defer unsub2()

	bus.Publish(CapabilitiesDetectedEvent{Preferred: "none"})
	<-capsReceived

	select {
	case <-buildReceived:
		t.Fatal("Build subscriber should NOT have received CapabilitiesDetectedEvent")
	case <-time.After(10 * time.Millisecond):
	}

	bus.Publish(PipelineBuiltEvent{ID: "x"})
	<-buildReceived

	select {
	case <-capsReceived:
		t.Fatal("Capabilities subscriber should NOT have received PipelineBuiltEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)

	unsub := bus.Subscribe(func(_ PipelineBuiltEvent) {
		receivedCh <- true
	})
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(PipelineBuiltEvent{
					VideoEncoder: "libx264",
					Timestamp:    time.Now().Format(time.RFC3339),
				})
			}
		}()
	}

	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_NilPublish(_ *testing.T) {
	var bus *Bus
	bus.Publish(PipelineBuiltEvent{ID: "dropped"})
}

func TestBus_UnknownHandler(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestEventJSONSerialization(t *testing.T) {
	tests := []struct {
		name  string
		event any
		key   string
	}{
		{"CapabilitiesDetectedEvent", CapabilitiesDetectedEvent{Available: []string{"vaapi"}, Preferred: "vaapi"}, "preferred"},
		{"ChannelsReloadedEvent", ChannelsReloadedEvent{Channels: []string{"news"}}, "channels"},
		{"PipelineBuiltEvent", PipelineBuiltEvent{ID: "id", VideoEncoder: "h264_vaapi"}, "video_encoder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}

			var result map[string]any
			if unmarshalErr := json.Unmarshal(data, &result); unmarshalErr != nil {
				t.Fatalf("Failed to unmarshal: %v", unmarshalErr)
			}

			if _, ok := result[tt.key]; !ok {
				t.Fatalf("missing key %q in %s", tt.key, data)
			}
		})
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	unsub := SubscribeToChannel[PipelineBuiltEvent](bus, ch)
	defer unsub()

	bus.Publish(PipelineBuiltEvent{ID: "cmd-1"})

	received := <-ch
	built, ok := received.(PipelineBuiltEvent)
	if !ok {
		t.Fatalf("Expected PipelineBuiltEvent, got %T", received)
	}
	if built.ID != "cmd-1" {
		t.Errorf("Expected id cmd-1, got %s", built.ID)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any)

	unsub := SubscribeToChannel[ChannelsReloadedEvent](bus, ch)
	defer unsub()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(ChannelsReloadedEvent{})
		done <- true
	}()

	<-done
}
