// Package config handles loading and validating hiome-ifttt configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Environment variables keep the names used by the hub's container images:
// MQTT_HOST, MQTT_PORT and UID_FILE. Bridge-specific settings use the
// HIOME_IFTTT_ prefix.
//
// Security Considerations:
//   - Broker credentials and the InfluxDB token should be set via environment variables
//   - The IFTTT key is never part of configuration; it is provisioned over MQTT
//
// Usage:
//
//	cfg, err := config.Load(config.ResolvePath(os.Getenv("HIOME_IFTTT_CONFIG"), "configs/config.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.BrokerAddress())
package config
