// Package door implements the door-state reconciliation engine for doorcore.
//
// It maps the two reed-switch readings and inbound commands onto a canonical
// door status, decides when the actuator relay is pulsed, and keeps status
// consistent with reality through sensor-edge and move-timeout driven
// re-resolution.
//
// # Components
//
//   - Status / SensorPair / transition table: the data model. Each status has
//     an expected sensor pair that identifies it when the door is settled, and
//     next-status entries for each supported command protocol.
//   - Resolve: derives a status from a sampled sensor pair, with a
//     disambiguation rule for cancelled motion.
//   - Controller: the owned state object. All mutation of door status and the
//     move timer funnels through its methods; the sensor edge channel and the
//     command surface are its only inputs.
//
// # Protocols
//
// Two command protocols are supported as parameterisations of one engine:
//
//   - legacy: a single "trigger" command cycles the door through its motion
//     schedule. Triggers are refused while the door is stuck or faulted.
//   - directional: explicit "open" and "close" commands. The relay is pulsed
//     only when the command causes an actual status transition, so commanding
//     a direction the door already satisfies is a no-op.
//
// # Concurrency
//
// The Controller serialises all mutation behind a single mutex. Sensor edges
// and move timeouts are serviced by Run; commands arrive via Apply from the
// network surfaces. Status-change events are placed on a bounded queue and
// published by a separate drain goroutine, so the edge path never performs
// I/O beyond the GPIO read itself.
package door
