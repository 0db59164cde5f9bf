package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentriq/sentriq-backend/internal/models"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(context.Background())

	assert.NotNil(t, hub)
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	hub := NewHub(ctx)
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()

	<-ctx.Done()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after context cancellation")
	}
}

func TestHubClientRegistration(t *testing.T) {
	hub := NewHub(context.Background())
	go hub.Run()
	defer hub.Stop()

	client := &Client{send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubBroadcastModbusEvent(t *testing.T) {
	hub := NewHub(context.Background())
	go hub.Run()
	defer hub.Stop()

	client := &Client{send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	event := &models.ModbusEvent{
		EventID:        "evt-1",
		EventType:      "write_coil",
		DeviceID:       "plc-7",
		ModbusFunction: 16,
	}
	require.NoError(t, hub.BroadcastModbusEvent(event))

	select {
	case frame := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(frame, &msg))
		assert.Equal(t, "modbus_event", msg.Type)
		assert.False(t, msg.Timestamp.IsZero())

		payload, ok := msg.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "evt-1", payload["event_id"])
		assert.Equal(t, "plc-7", payload["device_id"])
	case <-time.After(time.Second):
		t.Fatal("broadcast frame never arrived")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(context.Background())
	go hub.Run()
	defer hub.Stop()

	// A client with no buffer cannot accept any frame.
	slow := &Client{send: make(chan []byte)}
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, hub.BroadcastModbusEvent(&models.ModbusEvent{EventID: "evt-1"}))
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubStopDisconnectsClients(t *testing.T) {
	hub := NewHub(context.Background())
	go hub.Run()

	for i := 0; i < 3; i++ {
		hub.register <- &Client{send: make(chan []byte, 256)}
	}
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 3, hub.ClientCount())

	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestBroadcastAfterStopReturnsError(t *testing.T) {
	hub := NewHub(context.Background())
	go hub.Run()
	hub.Stop()
	time.Sleep(10 * time.Millisecond)

	err := hub.BroadcastModbusEvent(&models.ModbusEvent{EventID: "evt-1"})
	assert.Error(t, err)
}
