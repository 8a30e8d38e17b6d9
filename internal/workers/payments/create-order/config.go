// internal/workers/payments/create-order/config.go
package createorder

import "time"

const Currency = "INR"

type Config struct {
	Timeout time.Duration
	// CompensationTimeout bounds the update that marks a transaction failed
	// after the gateway call failed. It runs even if the request ctx is done.
	CompensationTimeout time.Duration
	// MessageTTL is the buffer time of the "order-created" Zeebe message.
	MessageTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:             30 * time.Second,
		CompensationTimeout: 5 * time.Second,
		MessageTTL:          time.Hour,
	}
}
