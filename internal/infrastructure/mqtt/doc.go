// Package mqtt provides MQTT connectivity for Luxgrid Core.
//
// Luxgrid uses MQTT as the command channel to the physical lamp
// devices: every accepted control request results in a fire-and-forget
// (QoS 0) publish to the device's command topic. The backend never
// subscribes — device-to-backend traffic is out of scope.
//
// # Connection lifecycle
//
// The client connects once at process start and is shared by every
// request. Auto-reconnect with exponential backoff is enabled; while
// the broker is unreachable, publishes fail with ErrNotConnected and
// the caller surfaces that to the client. No queuing or replay is
// performed on reconnect.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    // broker unreachable: log and continue, the client retries in the background
//	}
//	topic := mqtt.Topics{}.LampControl("n1")
//	err = client.Publish(topic, payload, 0, false)
package mqtt
