package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-zwave/internal/api"
	"github.com/nerrad567/gray-logic-zwave/internal/audit"
	"github.com/nerrad567/gray-logic-zwave/internal/command"
	"github.com/nerrad567/gray-logic-zwave/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-zwave/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-zwave/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-zwave/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-zwave/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-zwave/internal/liveness"
	"github.com/nerrad567/gray-logic-zwave/internal/mode"
	"github.com/nerrad567/gray-logic-zwave/internal/node"
	"github.com/nerrad567/gray-logic-zwave/internal/process"
	"github.com/nerrad567/gray-logic-zwave/internal/reactor"
	"github.com/nerrad567/gray-logic-zwave/internal/server"
	"github.com/nerrad567/gray-logic-zwave/internal/telemetry"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave/gateway"
	"github.com/nerrad567/gray-logic-zwave/internal/zwave/sim"
	"github.com/nerrad567/gray-logic-zwave/migrations"
)

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", os.Getenv("ZWAVED_CONFIG"), "Path to the YAML configuration (env ZWAVED_CONFIG); empty uses built-in defaults")
	return cmd
}

// run loads configuration, builds the daemon and serves until a stop command
// or ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML file, or empty for defaults
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting zwaved", "version", version, "commit", commit, "build_date", date)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "driver", cfg.ZWave.Driver)

	d, err := newDaemon(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.close()

	stop, err := d.run(ctx)
	if err != nil {
		return err
	}
	log.Info("zwaved stopped", "stop", stop.String())
	return nil
}

// daemon owns every long-lived component. Fields for optional components
// are nil when disabled.
type daemon struct {
	cfg *config.Config
	log *logging.Logger

	db      *database.DB
	mqtt    *mqtt.Client
	influx  *influxdb.Client
	metrics *telemetry.Metrics

	manager  zwave.Manager
	logs     *node.LogStore
	registry *node.Registry
	modes    *mode.Store
	recorder *telemetry.Recorder
	reactor  *reactor.Reactor
	monitor  *liveness.Monitor
	journal  *audit.Journal
	sock     *server.Server
	api      *api.Server

	closers []func()
}

// newDaemon opens storage and transports, wires the components together,
// registers the reactor as the controller's watcher and binds the socket.
// On error everything opened so far is closed.
func newDaemon(ctx context.Context, cfg *config.Config, log *logging.Logger) (d *daemon, err error) {
	d = &daemon{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			d.close()
		}
	}()

	if err = d.openStorage(ctx); err != nil {
		return d, err
	}
	if err = d.openTransports(ctx); err != nil {
		return d, err
	}
	if d.metrics, err = telemetry.NewMetrics(); err != nil {
		return d, fmt.Errorf("creating metrics: %w", err)
	}
	if err = d.openManager(); err != nil {
		return d, err
	}
	if err = d.build(); err != nil {
		return d, err
	}

	if err = d.manager.AddWatcher(d.reactor.Handle); err != nil {
		return d, fmt.Errorf("registering watcher: %w", err)
	}
	if err = d.manager.AddDriver(cfg.ZWave.Device); err != nil {
		return d, fmt.Errorf("adding driver %s: %w", cfg.ZWave.Device, err)
	}
	log.Info("driver added", "device", cfg.ZWave.Device)

	if err = d.sock.Listen(); err != nil {
		return d, fmt.Errorf("binding socket: %w", err)
	}
	log.Info("socket listening", "address", d.sock.Addr().String())

	if cfg.API.Enabled {
		if err = d.startAPI(ctx); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (d *daemon) onClose(fn func()) {
	d.closers = append(d.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (d *daemon) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

func (d *daemon) openStorage(ctx context.Context) error {
	db, err := database.Open(ctx, database.Config{
		Path:        d.cfg.Database.Path,
		WALMode:     d.cfg.Database.WALMode,
		BusyTimeout: d.cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	d.db = db
	d.onClose(func() {
		d.log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			d.log.Error("error closing database", "error", closeErr)
		}
	})

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	d.log.Info("database ready", "path", db.Path())

	logs, err := node.NewLogStore(d.cfg.Paths.NodeLogs)
	if err != nil {
		return fmt.Errorf("opening node logs: %w", err)
	}
	d.logs = logs
	d.onClose(func() {
		if closeErr := logs.Close(); closeErr != nil {
			d.log.Error("error closing node logs", "error", closeErr)
		}
	})
	return nil
}

func (d *daemon) openTransports(ctx context.Context) error {
	if d.cfg.MQTT.Enabled {
		client, err := mqtt.Connect(ctx, d.cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		client.SetLogger(d.log.With("component", "mqtt"))
		client.SetOnConnect(func() { d.log.Info("MQTT reconnected") })
		client.SetOnDisconnect(func(err error) { d.log.Warn("MQTT disconnected", "error", err) })
		d.mqtt = client
		d.onClose(func() {
			d.log.Info("disconnecting from MQTT")
			if closeErr := client.Close(); closeErr != nil {
				d.log.Error("error closing MQTT", "error", closeErr)
			}
		})
		d.log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", d.cfg.MQTT.Broker.Host, d.cfg.MQTT.Broker.Port),
			"client_id", d.cfg.MQTT.Broker.ClientID,
		)
	} else {
		d.log.Info("MQTT disabled")
	}

	if d.cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(ctx, d.cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		client.SetOnError(func(err error) { d.log.Error("InfluxDB write error", "error", err) })
		d.influx = client
		d.onClose(func() {
			d.log.Info("closing InfluxDB connection")
			if closeErr := client.Close(); closeErr != nil {
				d.log.Error("error closing InfluxDB", "error", closeErr)
			}
		})
		d.log.Info("InfluxDB connected", "url", d.cfg.InfluxDB.URL, "bucket", d.cfg.InfluxDB.Bucket)
	} else {
		d.log.Info("InfluxDB disabled")
	}
	return nil
}

func (d *daemon) openManager() error {
	switch d.cfg.ZWave.Driver {
	case config.DriverGateway:
		if d.mqtt == nil {
			return errors.New("gateway driver requires MQTT")
		}
		gw, err := gateway.Connect(d.mqtt, gateway.Config{
			Prefix:  d.cfg.ZWave.Gateway.TopicPrefix,
			Timeout: d.cfg.GatewayTimeout(),
			QoS:     byte(d.cfg.MQTT.QoS), // #nosec G115 -- validated to 0..2
		})
		if err != nil {
			return fmt.Errorf("connecting to gateway: %w", err)
		}
		gw.SetLogger(d.log.With("component", "gateway"))
		d.manager = gw
	default:
		d.manager = sim.New(d.cfg.ZWave.HomeID)
	}
	return nil
}

// build creates the registry, reactor, monitor, journal, recorder,
// dispatcher and socket server, and wires their outputs.
func (d *daemon) build() error {
	catalog, err := d.cfg.ModeCatalog()
	if err != nil {
		return fmt.Errorf("building mode catalog: %w", err)
	}
	d.modes = mode.NewStore(d.cfg.Paths.ModeFile, d.cfg.ZWave.Device, catalog)
	d.modes.SetLogger(d.log.With("component", "mode"))
	current := d.modes.Load()
	d.log.SetLevel(current.Log)
	d.log.Info("mode loaded", "mode", current.Name, "poll_interval", current.PollInterval)

	nodeSinks := []telemetry.NodeSink{telemetry.NewSnapshotStore(d.db.DB)}
	livenessSinks := []telemetry.LivenessSink{d.metrics}
	observers := telemetry.CommandObservers{d.metrics}
	var modeSinks []telemetry.ModeSink
	if d.mqtt != nil {
		sink := telemetry.NewMQTTSink(d.mqtt, d.mqtt.Topics())
		nodeSinks = append(nodeSinks, sink)
		livenessSinks = append(livenessSinks, sink)
		modeSinks = append(modeSinks, sink)
	}
	if d.influx != nil {
		sink := telemetry.NewInfluxSink(d.influx)
		nodeSinks = append(nodeSinks, sink)
		livenessSinks = append(livenessSinks, sink)
		observers = append(observers, sink)
	}
	d.recorder = telemetry.NewRecorder(telemetry.Config{
		Nodes:    nodeSinks,
		Liveness: livenessSinks,
		Modes:    modeSinks,
	})
	d.recorder.SetLogger(d.log.With("component", "telemetry"))

	d.registry = node.NewRegistry(d.logs)
	d.registry.SetLogger(d.log.With("component", "registry"))

	d.reactor = reactor.New(d.registry, d.manager, reactor.Options{
		Logs:                    d.logs,
		Publisher:               d.recorder,
		Observer:                d.metrics,
		ResyncNeighborsOnChange: d.cfg.Reactor.ResyncNeighborsOnChange,
	})
	d.reactor.SetLogger(d.log.With("component", "reactor"))

	d.monitor = liveness.New(d.registry, d.manager, liveness.Config{
		Interval:  current.Interval(),
		Publisher: d.recorder,
		Sink:      d.recorder,
	})
	d.monitor.SetLogger(d.log.With("component", "liveness"))

	d.journal, err = audit.NewJournal(audit.Config{
		Dir:        d.cfg.Paths.AuditDir,
		Level:      current.Log,
		Repository: audit.NewSQLiteRepository(d.db.DB),
	})
	if err != nil {
		return fmt.Errorf("opening audit journal: %w", err)
	}
	d.journal.SetLogger(d.log.With("component", "audit"))

	dispatcher := command.New(command.Config{
		Registry:  d.registry,
		Manager:   d.manager,
		Modes:     d.modes,
		Journal:   d.journal,
		Monitor:   d.monitor,
		Publisher: d.recorder,
		Observer:  observers,
		ModeListeners: []command.ModeListener{
			command.ModeListenerFunc(func(m mode.Mode) { d.log.SetLevel(m.Log) }),
			d.recorder,
		},
	})
	dispatcher.SetLogger(d.log.With("component", "dispatcher"))

	runner := process.NewRunner(process.Config{
		Scripts: map[string]string{
			process.ActionReinstall: d.cfg.Scripts.Reinstall,
			process.ActionReboot:    d.cfg.Scripts.Reboot,
			process.ActionShutdown:  d.cfg.Scripts.Shutdown,
		},
		Timeout: d.cfg.ScriptTimeout(),
	})
	runner.SetLogger(d.log.With("component", "process"))

	d.sock = server.New(server.Config{
		Address:      d.cfg.Socket.Address,
		BufferSize:   d.cfg.Socket.BufferSize,
		ReadTimeout:  d.cfg.GetSocketReadTimeout(),
		WriteTimeout: d.cfg.GetSocketWriteTimeout(),
	}, server.Deps{
		Dispatcher: dispatcher,
		Controller: d.manager,
		Registry:   d.registry,
		Queue:      d.reactor,
		Runner:     runner,
	})
	d.sock.SetLogger(d.log.With("component", "server"))

	if err := d.metrics.RegisterQueue("reactor", d.reactor.Pending); err != nil {
		return err
	}
	return d.metrics.RegisterQueue("telemetry", d.recorder.Pending)
}

func (d *daemon) startAPI(ctx context.Context) error {
	checks := map[string]api.HealthChecker{"database": d.db}
	if d.mqtt != nil {
		checks["mqtt"] = d.mqtt
	}
	if d.influx != nil {
		checks["influxdb"] = d.influx
	}

	srv, err := api.New(api.Deps{
		Config:    d.cfg.API,
		Logger:    d.log.With("component", "api"),
		Registry:  d.registry,
		Modes:     d.modes,
		Audit:     audit.NewSQLiteRepository(d.db.DB),
		Snapshots: telemetry.NewSnapshotStore(d.db.DB),
		Metrics:   d.metrics.Handler(),
		DB:        d.db,
		Checks:    checks,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	d.api = srv
	d.onClose(func() {
		if closeErr := srv.Close(); closeErr != nil {
			d.log.Error("error closing API server", "error", closeErr)
		}
	})
	return nil
}

// run starts the background workers and serves the socket. It returns once
// the socket server has stopped and every worker has drained.
func (d *daemon) run(ctx context.Context) (command.Stop, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.reactor.Run(gctx) })
	g.Go(func() error { return d.journal.Run(gctx) })
	g.Go(func() error { return d.recorder.Run(gctx) })
	if d.cfg.Liveness.Enabled {
		g.Go(func() error { return d.monitor.Run(gctx) })
	}

	var stop command.Stop
	g.Go(func() error {
		// Stopping the socket ends the daemon, whatever the reason.
		defer cancel()
		s, err := d.sock.Serve(gctx)
		stop = s
		if err != nil {
			return fmt.Errorf("socket server: %w", err)
		}
		return nil
	})

	d.log.Info("initialisation complete", "started_at", time.Now().UTC().Format(time.RFC3339))
	err := g.Wait()
	return stop, err
}
