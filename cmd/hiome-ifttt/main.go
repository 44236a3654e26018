// hiome-ifttt bridges Hiome sensor telemetry on the local MQTT bus to IFTTT
// Maker webhook events.
//
// The IFTTT key is provisioned at runtime by publishing it to the
// _hiome/integrate/ifttt control topic. Until a key arrives, sensor
// telemetry is dropped.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hiome/core-ifttt/internal/api"
	"github.com/Hiome/core-ifttt/internal/bridges/ifttt"
	"github.com/Hiome/core-ifttt/internal/deadletter"
	"github.com/Hiome/core-ifttt/internal/infrastructure/config"
	"github.com/Hiome/core-ifttt/internal/infrastructure/identity"
	"github.com/Hiome/core-ifttt/internal/infrastructure/influxdb"
	"github.com/Hiome/core-ifttt/internal/infrastructure/logging"
	"github.com/Hiome/core-ifttt/internal/infrastructure/mqtt"
	"github.com/Hiome/core-ifttt/internal/keystore"
	"github.com/Hiome/core-ifttt/internal/webhook"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	// defaultConfigPath is used when HIOME_IFTTT_CONFIG is unset and the file exists.
	defaultConfigPath = "configs/config.yaml"

	// webhookDrainTimeout bounds how long shutdown waits for in-flight triggers.
	webhookDrainTimeout = 5 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the bridge together and blocks until ctx is cancelled.
// Components are closed in reverse order of creation via defers.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting hiome-ifttt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	if configPath == "" {
		log.Info("configuration loaded from defaults and environment")
	} else {
		log.Info("configuration loaded", "path", configPath)
	}

	site, err := identity.ReadMachineID(cfg.Site.UIDFile)
	if err != nil {
		return fmt.Errorf("reading site identity from %s: %w", cfg.Site.UIDFile, err)
	}
	log = log.WithSite(site)

	influxClient := connectInfluxDB(cfg.InfluxDB, site, log)
	if influxClient != nil {
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
	}

	dlq, err := openDeadLetter(cfg.DeadLetter, site, log)
	if err != nil {
		return err
	}
	if dlq != nil {
		defer func() {
			log.Info("closing dead-letter writer")
			if closeErr := dlq.Close(); closeErr != nil {
				log.Error("error closing dead-letter writer", "error", closeErr)
			}
		}()
	}

	hook := webhook.New(cfg.IFTTT, log)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), webhookDrainTimeout)
		defer cancel()
		if closeErr := hook.Close(drainCtx); closeErr != nil {
			log.Warn("webhook triggers still in flight at shutdown", "error", closeErr)
		}
	}()

	keys := keystore.New()

	log.Info("connecting to MQTT", "broker", cfg.BrokerAddress(), "client_id", cfg.MQTT.Broker.ClientID)
	mqttClient, err := mqtt.ConnectWithRetry(ctx, cfg.MQTT, log)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected", "broker", cfg.BrokerAddress())

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	opts := ifttt.BridgeOptions{
		Keys:           keys,
		MQTTClient:     &mqttBridgeAdapter{client: mqttClient},
		Webhook:        hook,
		Logger:         log,
		Site:           site,
		Version:        version,
		HealthInterval: cfg.GetHealthInterval(),
	}
	if influxClient != nil {
		opts.Metrics = influxClient
	}
	if dlq != nil {
		opts.DeadLetter = dlq
	}

	bridge, err := ifttt.NewBridge(opts)
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}
	defer func() {
		log.Info("stopping bridge")
		bridge.Stop()
	}()

	if cfg.API.Enabled {
		server, err := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			MQTT:    mqttClient,
			Bridge:  bridge,
			Version: version,
			Site:    site,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// getConfigPath returns the configuration file path.
// HIOME_IFTTT_CONFIG wins; otherwise the default path is used if it exists.
func getConfigPath() string {
	return config.ResolvePath(os.Getenv("HIOME_IFTTT_CONFIG"), defaultConfigPath)
}

// connectInfluxDB returns nil when metrics are disabled or unreachable.
// Trigger metrics are optional; the bridge runs without them.
func connectInfluxDB(cfg config.InfluxDBConfig, site string, log *logging.Logger) *influxdb.Client {
	client, err := influxdb.Connect(cfg, site)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil
	}
	if err != nil {
		log.Warn("InfluxDB unavailable, trigger metrics disabled", "error", err)
		return nil
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected",
		"url", cfg.URL,
		"org", cfg.Org,
		"bucket", cfg.Bucket,
	)
	return client
}

// openDeadLetter returns nil when the dead-letter sink is disabled.
func openDeadLetter(cfg config.DeadLetterConfig, site string, log *logging.Logger) (*deadletter.Writer, error) {
	dlq, err := deadletter.New(cfg, site, log)
	if errors.Is(err, deadletter.ErrDisabled) {
		log.Info("dead-letter sink disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening dead-letter writer: %w", err)
	}

	log.Info("dead-letter sink enabled", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return dlq, nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The bridge's handlers do not return errors; the
// infrastructure client's do.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements ifttt.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements ifttt.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements ifttt.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
