package deadletter

import "errors"

var (
	// ErrDisabled indicates the dead-letter sink is disabled in config.
	ErrDisabled = errors.New("deadletter: disabled in configuration")

	// ErrNoBrokers indicates no Kafka brokers were configured.
	ErrNoBrokers = errors.New("deadletter: no brokers configured")
)
