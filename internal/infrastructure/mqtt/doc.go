// Package mqtt provides MQTT client connectivity to the Hiome hub broker.
//
// This package manages:
//   - Connection to the hub's broker, with backoff on startup and
//     auto-reconnect afterwards
//   - A persistent session under a fixed client id, so QoS 1 sensor
//     messages queued while the bridge was down are still delivered
//   - Topic subscriptions, restored after every reconnect
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	_hiome/integrate/ifttt          key provisioning (control)
//	_hiome/integrate/ifttt/status   retained online/offline (LWT)
//	_hiome/integrate/ifttt/health   retained periodic health
//	hiome/1/sensor/#                sensor telemetry
//
// # Usage
//
//	client, err := mqtt.ConnectWithRetry(ctx, cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllSensors(), 1, handler)
package mqtt
