// doorcore - garage door controller
//
// This is the main entry point for the doorcore daemon. It reconciles the
// door's two reed switches and relay actuator into a published door status,
// and serves that status over MQTT, HTTP, WebSocket, and a raw TCP line
// protocol.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	_ "github.com/oakmoor-systems/doorcore/migrations"

	"github.com/oakmoor-systems/doorcore/internal/api"
	"github.com/oakmoor-systems/doorcore/internal/audit"
	"github.com/oakmoor-systems/doorcore/internal/door"
	"github.com/oakmoor-systems/doorcore/internal/gpio"
	"github.com/oakmoor-systems/doorcore/internal/infrastructure/config"
	"github.com/oakmoor-systems/doorcore/internal/infrastructure/database"
	"github.com/oakmoor-systems/doorcore/internal/infrastructure/influxdb"
	"github.com/oakmoor-systems/doorcore/internal/infrastructure/logging"
	"github.com/oakmoor-systems/doorcore/internal/infrastructure/mqtt"
	"github.com/oakmoor-systems/doorcore/internal/lineproto"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// edgeBuffer is the capacity of the sensor edge channel between the GPIO
// watcher and the controller loop.
const edgeBuffer = 8

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // Startup wiring is sequential by nature
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting doorcore",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	auditRepo := audit.NewSQLiteRepository(db.DB)

	// Open GPIO driver (periph on hardware, memory off it)
	hw, err := gpio.Open(gpio.Config{
		Driver:          cfg.GPIO.Driver,
		OpenSwitchPin:   cfg.GPIO.OpenSwitchPin,
		ClosedSwitchPin: cfg.GPIO.ClosedSwitchPin,
		RelayPin:        cfg.GPIO.RelayPin,
		ActiveLow:       cfg.GPIO.ActiveLow,
		Debounce:        cfg.GetDebounce(),
	})
	if err != nil {
		return fmt.Errorf("opening gpio: %w", err)
	}
	defer func() {
		log.Info("closing gpio")
		if closeErr := hw.Close(); closeErr != nil {
			log.Error("error closing gpio", "error", closeErr)
		}
	}()
	log.Info("gpio driver opened", "driver", cfg.GPIO.Driver)

	// Create the door controller and resolve the initial status
	protocol, err := door.ParseProtocol(cfg.Door.Protocol)
	if err != nil {
		return fmt.Errorf("parsing door protocol: %w", err)
	}
	controller := door.New(door.Config{
		Protocol:    protocol,
		PulseWidth:  cfg.GetPulseWidth(),
		MoveTimeout: cfg.GetMoveTimeout(),
		QueueSize:   cfg.Door.EventQueueSize,
	}, hw, hw)
	controller.SetLogger(log.With("component", "door"))

	if startErr := controller.Start(ctx); startErr != nil {
		return fmt.Errorf("resolving initial door status: %w", startErr)
	}
	log.Info("door controller started",
		"status", controller.Description(),
		"protocol", protocol.String(),
	)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		if subErr := subscribeCommands(mqttClient, controller, byte(cfg.MQTT.QoS), log); subErr != nil {
			return fmt.Errorf("subscribing to command topic: %w", subErr)
		}

		// Seed the retained status topic so late subscribers see the door
		// immediately.
		topics := mqtt.Topics{}
		if pubErr := mqttClient.PublishRetained(topics.DoorStatus(), []byte(controller.Description())); pubErr != nil {
			log.Warn("failed to publish initial door status", "error", pubErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub is created here so the event drain can broadcast
	// through it; the API server receives it as an external hub.
	hub := api.NewHub(cfg.WebSocket, log.With("component", "websocket"))

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log.With("component", "api"),
		Controller:  controller,
		Audit:       auditRepo,
		DB:          db,
		MQTT:        mqttClient,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Start the raw line-protocol listener (optional)
	lineServer, err := lineproto.New(cfg.LineProto, log.With("component", "lineproto"), controller)
	if err != nil {
		return fmt.Errorf("creating line protocol server: %w", err)
	}
	if startErr := lineServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting line protocol server: %w", startErr)
	}
	defer func() {
		log.Info("stopping line protocol server")
		if closeErr := lineServer.Close(); closeErr != nil {
			log.Error("error closing line protocol server", "error", closeErr)
		}
	}()

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete")

	// Supervise the long-running loops. The edge channel couples the GPIO
	// watcher to the controller; the drain fans controller events out to
	// audit, MQTT, WebSocket, and telemetry.
	g, gCtx := errgroup.WithContext(ctx)
	edges := make(chan struct{}, edgeBuffer)

	g.Go(func() error {
		hw.Watch(gCtx, edges)
		return nil
	})
	g.Go(func() error {
		return controller.Run(gCtx, edges)
	})
	g.Go(func() error {
		hub.Run(gCtx)
		return nil
	})
	g.Go(func() error {
		runEventDrain(gCtx, controller, auditRepo, hub, mqttClient, influxClient, byte(cfg.MQTT.QoS), log)
		return nil
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("runtime failure: %w", err)
	}

	log.Info("shutdown signal received, cleaning up")
	log.Info("doorcore stopped")
	return nil
}

// subscribeCommands wires the MQTT command topic into the controller.
// Payloads are bare command tokens; unrecognised tokens are silent no-ops.
func subscribeCommands(client *mqtt.Client, controller *door.Controller, qos byte, log *logging.Logger) error {
	topics := mqtt.Topics{}
	return client.Subscribe(topics.DoorCommand(), qos, func(_ string, payload []byte) error {
		cmd := door.ParseCommand(string(payload), controller.Protocol())
		status, pulsed := controller.Apply(context.Background(), cmd)
		log.Debug("MQTT command applied",
			"command", cmd.String(),
			"status", status.Description(),
			"pulsed", pulsed,
		)

		// Confirm on the retained status topic even when nothing changed,
		// so a command is always answered.
		return client.PublishRetained(topics.DoorStatus(), []byte(status.Description()))
	})
}

// runEventDrain consumes controller events and fans them out. It is the
// single consumer of the bounded event queue; downstream I/O failures are
// logged, never propagated back to the controller.
func runEventDrain(ctx context.Context, controller *door.Controller, auditRepo audit.Repository, hub *api.Hub, mqttClient *mqtt.Client, influxClient *influxdb.Client, qos byte, log *logging.Logger) {
	topics := mqtt.Topics{}
	var motionSince time.Time

	for {
		select {
		case <-ctx.Done():
			// Flush anything still buffered so shutdown loses no events.
			// Downstream writes use a fresh short-lived context because
			// ctx is already cancelled.
			flushCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			for {
				select {
				case ev := <-controller.Events():
					if err := auditRepo.Record(flushCtx, ev); err != nil {
						log.Error("failed to record door event during shutdown", "error", err)
					}
				default:
					return
				}
			}
		case ev := <-controller.Events():
			if err := auditRepo.Record(ctx, ev); err != nil {
				log.Error("failed to record door event", "error", err)
			}

			hub.BroadcastDoorEvent(ev)

			if mqttClient != nil {
				if err := mqttClient.PublishRetained(topics.DoorStatus(), []byte(ev.Status.Description())); err != nil {
					log.Warn("failed to publish door status", "error", err)
				}
				payload, err := json.Marshal(ev)
				if err == nil {
					if err := mqttClient.Publish(topics.DoorEvent(), payload, qos, false); err != nil {
						log.Warn("failed to publish door event", "error", err)
					}
				}
			}

			if influxClient != nil {
				influxClient.WriteStatusChange(ev)

				// Motion duration: time from leaving a settled state to
				// arriving at the next one.
				switch {
				case !ev.Status.Settled() && ev.Previous.Settled():
					motionSince = ev.At
				case ev.Status.Settled() && !ev.Previous.Settled():
					if !motionSince.IsZero() {
						influxClient.WriteMotionDuration(ev.Status, ev.At.Sub(motionSince))
						motionSince = time.Time{}
					}
				}

				if ev.Status == door.StatusClosed && ev.Previous != door.StatusClosed {
					if count, err := auditRepo.CycleCount(ctx); err == nil {
						influxClient.WriteCycleCount(count)
					}
				}
			}
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses DOORCORE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DOORCORE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies infrastructure connections are healthy. The MQTT and
// InfluxDB clients may be nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
