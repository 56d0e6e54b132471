package mqtt

import (
	"errors"
	"testing"
)

func TestTopics(t *testing.T) {
	topics := Topics{}

	if got := topics.LampControl("n1"); got != "lamp/control/n1" {
		t.Errorf("LampControl(n1) = %q, want lamp/control/n1", got)
	}
	if got := topics.LampControl("street-7-pole-12"); got != "lamp/control/street-7-pole-12" {
		t.Errorf("LampControl() = %q", got)
	}
	if got := topics.SystemStatus(); got != "luxgrid/system/status" {
		t.Errorf("SystemStatus() = %q, want luxgrid/system/status", got)
	}
}

func TestPublishValidation(t *testing.T) {
	// A zero-value client is never connected; validation failures must
	// surface before any connection check touches the network.
	c := &Client{}

	t.Run("empty topic", func(t *testing.T) {
		err := c.Publish("", []byte("{}"), 0, false)
		if !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
		}
	})

	t.Run("invalid qos", func(t *testing.T) {
		err := c.Publish("lamp/control/n1", []byte("{}"), 3, false)
		if !errors.Is(err, ErrInvalidQoS) {
			t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
		}
	})

	t.Run("oversized payload", func(t *testing.T) {
		payload := make([]byte, maxPayloadSize+1)
		err := c.Publish("lamp/control/n1", payload, 0, false)
		if !errors.Is(err, ErrPublishFailed) {
			t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
		}
	})

	t.Run("disconnected client", func(t *testing.T) {
		err := c.Publish("lamp/control/n1", []byte("{}"), 0, false)
		if !errors.Is(err, ErrNotConnected) {
			t.Errorf("Publish() error = %v, want ErrNotConnected", err)
		}
	})
}

func TestBuildStatusPayloads(t *testing.T) {
	online := buildOnlinePayload("luxgrid-core")
	if online == "" || online == buildOfflinePayload("luxgrid-core") {
		t.Error("online and offline payloads must be distinct and non-empty")
	}
}
