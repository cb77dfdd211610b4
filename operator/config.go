package operator

import (
	"log"
	"os"
)

// Config configures Operator construction (§6).
type Config struct {
	// WorkerCount is the fixed number of parallel workers. Required,
	// must be > 0.
	WorkerCount int

	// Handler is the computation handler consumed by NetworkMerger.
	// Defaults to a CPU float32 averaging handler.
	Handler ComputationHandler

	// NetworkMerger reduces N pushed networks into the authoritative
	// one. Defaults to DefaultNetworkMerger over "layers.*.*".
	NetworkMerger NetworkMerger

	// Logger receives operator diagnostics, including hook invocation
	// failures (§7: a foreground hook's failure is logged, not
	// propagated). Defaults to a stderr logger.
	Logger *log.Logger
}

func (c Config) withDefaults() Config {
	if c.Handler == nil {
		c.Handler = NewFloat32AverageHandler()
	}

	if c.NetworkMerger == nil {
		c.NetworkMerger = NewDefaultNetworkMerger()
	}

	if c.Logger == nil {
		c.Logger = log.New(os.Stderr, "operator: ", log.LstdFlags)
	}

	return c
}
