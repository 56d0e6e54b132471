package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteLampTelemetry records one telemetry point for a lamp device.
//
// Called by the control service after a lamp record has been persisted.
// The write is non-blocking; data is batched and sent asynchronously.
// If the client is disconnected the point is silently skipped —
// telemetry is best-effort and never blocks or fails a control request.
//
// Parameters:
//   - gwID: Owning gateway identifier (tag)
//   - nodeID: Device identifier within the gateway (tag)
//   - state: Persisted lamp state ("ON" or "OFF")
//   - dim: Persisted dim level (0-100)
//   - lux: Illuminance sensor reading
//   - currentA: Current draw sensor reading (amperes)
func (c *Client) WriteLampTelemetry(gwID, nodeID, state string, dim, lux, currentA float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"lamp_telemetry",
		map[string]string{
			"gw_id":   gwID,
			"node_id": nodeID,
		},
		map[string]interface{}{
			"lamp_state": state,
			"lamp_dim":   dim,
			"lux":        lux,
			"current_a":  currentA,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
