// Package influxdb provides InfluxDB connectivity for doorcore.
//
// It wraps the official influxdb-client-go v2 library with doorcore-specific
// patterns for connection management, telemetry writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Door status transitions (door_status measurement)
//   - Motion duration tracking for wear detection (door_motion)
//   - Cumulative close-cycle counts (door_cycles)
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "oakmoor",
//	    Bucket: "doorcore",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record a status transition
//	client.WriteStatusChange(ev)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead when the door is busy.
package influxdb
