// Package influxdb provides time-series storage for lamp telemetry.
//
// Every accepted control request carries sensor readings (illuminance
// and current draw) alongside the commanded state. When InfluxDB is
// enabled in config, the control service records one point per request
// so operators can chart sensor history per device. Writes are
// non-blocking and batched; the integration is optional and disabled
// by default.
package influxdb
