package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/oakmoor-systems/doorcore/internal/door"
)

// WriteStatusChange records a door status transition.
//
// This is the primary telemetry method. Each resolved status change
// becomes one point in the door_status measurement, tagged by status
// and source so dashboards can slice by either.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - ev: The status change event to record
func (c *Client) WriteStatusChange(ev door.Event) {
	if !c.IsConnected() {
		return
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	point := write.NewPoint(
		"door_status",
		map[string]string{
			"status": ev.Status.Description(),
			"source": string(ev.Source),
		},
		map[string]interface{}{
			"status_code": int(ev.Status),
			"previous":    ev.Previous.Description(),
			"remote":      ev.Remote,
			"pulsed":      ev.Pulsed,
		},
		at,
	)

	c.writeAPI.WritePoint(point)
}

// WriteMotionDuration records how long a movement took from command
// to settled position. Used for drift detection: a door that takes
// progressively longer to close usually needs a service visit.
//
// Parameters:
//   - finalStatus: The settled status the motion ended in
//   - duration: Time from pulse to settled reed switch
func (c *Client) WriteMotionDuration(finalStatus door.Status, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"door_motion",
		map[string]string{
			"status": finalStatus.Description(),
		},
		map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCycleCount records the cumulative close-cycle counter.
//
// Parameters:
//   - count: Total completed close cycles since install
func (c *Client) WriteCycleCount(count int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"door_cycles",
		nil,
		map[string]interface{}{
			"count": count,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "garage-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
