// Package gpio provides the hardware abstraction for doorcore's reed
// switches and relay output.
//
// Two drivers are available, selected by configuration:
//
//   - periph: real GPIO access on the single-board host via periph.io.
//     Reed switches are inputs with pull-ups and both-edge interrupts;
//     the relay is a plain output held high for the pulse width.
//   - memory: an in-process stand-in for development off-hardware and for
//     tests. Sensor state is settable and pulses are recorded.
//
// Both drivers implement door.SensorReader and door.Actuator, and expose an
// edge channel that delivers one value per reed-switch transition for the
// controller's interrupt path.
package gpio
