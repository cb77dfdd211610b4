// Command zerfoo-train runs a small data-parallel training demo against
// the operator core: a fixed worker pool trains independent copies of a
// toy regression network on a shared synthetic dataset, periodically
// merging parameters at epoch boundaries.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/zerfoo/zerfoo/compute"
	"github.com/zerfoo/zerfoo/hook"
	"github.com/zerfoo/zerfoo/numeric"
	"github.com/zerfoo/zerfoo/operator"
)

// CLIConfig represents command-line configuration for the training demo.
type CLIConfig struct {
	OutputDir string `json:"output_dir"`
	RunName   string `json:"run_name"`

	WorkerCount   int     `json:"worker_count"`
	NumEpochs     int     `json:"num_epochs"`
	StepsPerEpoch int     `json:"steps_per_epoch"`
	LearningRate  float64 `json:"learning_rate"`

	InputSize  int `json:"input_size"`
	HiddenSize int `json:"hidden_size"`

	RandomSeed int  `json:"random_seed"`
	Verbose    bool `json:"verbose"`
}

// RunResult contains the outcome of a training run.
type RunResult struct {
	RunName      string        `json:"run_name"`
	Timestamp    time.Time     `json:"timestamp"`
	Config       *CLIConfig    `json:"config"`
	FinalState   string        `json:"final_state"`
	Duration     time.Duration `json:"duration"`
	Success      bool          `json:"success"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

func main() {
	config := parseFlags()

	if config.Verbose {
		log.Printf("starting zerfoo-train with config: %+v", config)
	}

	start := time.Now()

	state, err := run(config)

	result := &RunResult{
		RunName:    config.RunName,
		Timestamp:  start,
		Config:     config,
		FinalState: state,
		Duration:   time.Since(start),
		Success:    err == nil,
	}

	if err != nil {
		result.ErrorMessage = err.Error()
		log.Printf("training run failed: %v", err)
	}

	if saveErr := saveResult(config, result); saveErr != nil {
		log.Printf("failed to save result: %v", saveErr)
	}

	if err != nil {
		os.Exit(1)
	}
}

func parseFlags() *CLIConfig {
	config := &CLIConfig{}

	flag.StringVar(&config.OutputDir, "output", "./output", "Output directory")
	flag.StringVar(&config.RunName, "name", "zerfoo_train_demo", "Run name for output files")
	flag.IntVar(&config.WorkerCount, "workers", 4, "Number of parallel workers")
	flag.IntVar(&config.NumEpochs, "epochs", 5, "Number of training epochs")
	flag.IntVar(&config.StepsPerEpoch, "steps", 20, "Training steps per epoch")
	flag.Float64Var(&config.LearningRate, "lr", 0.01, "Learning rate")
	flag.IntVar(&config.InputSize, "input-size", 8, "Input feature dimension")
	flag.IntVar(&config.HiddenSize, "hidden-size", 16, "Hidden layer dimension")
	flag.IntVar(&config.RandomSeed, "seed", 42, "Random seed")
	flag.BoolVar(&config.Verbose, "verbose", false, "Verbose output")

	help := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	return config
}

// run wires the toy network, worker kind, and operator together, drives
// the operator through Start/WaitForStateChanged/SignalStop, and returns
// the operator's final lifecycle state.
func run(config *CLIConfig) (string, error) {
	engine := compute.NewCPUEngine[float32](numeric.Float32Ops{})
	ops := numeric.Float32Ops{}

	rng := rand.New(rand.NewSource(int64(config.RandomSeed)))
	dataset := newSyntheticDataset(rng, config.InputSize)

	newNetwork := func() (*toyNetwork, error) {
		return newToyNetwork(engine, ops, config.InputSize, config.HiddenSize)
	}

	logger := log.New(os.Stdout, "zerfoo-train: ", log.LstdFlags)

	kind := newToyWorkerKind(
		engine,
		config.InputSize,
		config.StepsPerEpoch,
		config.NumEpochs,
		float32(config.LearningRate),
		dataset,
		newNetwork,
		rng.Int63(),
		logger,
	)

	op, err := operator.New(operator.Config{
		WorkerCount:   config.WorkerCount,
		Handler:       newTensorAverageHandler(engine),
		NetworkMerger: operator.NewDefaultNetworkMerger(),
		Logger:        logger,
	}, kind)
	if err != nil {
		return "", fmt.Errorf("zerfoo-train: failed to construct operator: %w", err)
	}

	kind.attachOperator(op)

	initialNetwork, err := newNetwork()
	if err != nil {
		return "", fmt.Errorf("zerfoo-train: failed to build initial network: %w", err)
	}

	op.SetNetwork(initialNetwork)

	if _, err := op.AttachGlobalHook(newLoggingHook("epoch-merged", hook.Epoch, logger)); err != nil {
		return "", fmt.Errorf("zerfoo-train: failed to attach epoch hook: %w", err)
	}

	if _, err := op.AttachLocalHook(newLoggingHook("worker-start", hook.Start, logger)); err != nil {
		return "", fmt.Errorf("zerfoo-train: failed to attach start hook: %w", err)
	}

	if err := op.Start(); err != nil {
		return "", fmt.Errorf("zerfoo-train: failed to start operator: %w", err)
	}

	op.WaitForStateChanged()

	settle := time.Duration(config.NumEpochs*config.StepsPerEpoch) * 2 * time.Millisecond
	if settle < 200*time.Millisecond {
		settle = 200 * time.Millisecond
	}

	time.Sleep(settle)

	if err := op.SignalStop(); err != nil {
		return "", fmt.Errorf("zerfoo-train: failed to stop operator: %w", err)
	}

	op.WaitForStateChanged()

	return op.CurrentState().String(), nil
}

func saveResult(config *CLIConfig, result *RunResult) error {
	if err := os.MkdirAll(config.OutputDir, 0o750); err != nil {
		return fmt.Errorf("zerfoo-train: failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("zerfoo-train: failed to marshal result: %w", err)
	}

	path := filepath.Join(config.OutputDir, config.RunName+"_result.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("zerfoo-train: failed to write result file: %w", err)
	}

	return nil
}

func printUsage() {
	fmt.Print(`
Zerfoo Training Operator Demo

USAGE:
    zerfoo-train [OPTIONS]

WORKER OPTIONS:
    -workers <int>      Number of parallel workers (default: 4)
    -epochs <int>       Number of training epochs (default: 5)
    -steps <int>        Training steps per epoch (default: 20)
    -lr <float>         Learning rate (default: 0.01)

NETWORK OPTIONS:
    -input-size <int>   Input feature dimension (default: 8)
    -hidden-size <int>  Hidden layer dimension (default: 16)

OUTPUT OPTIONS:
    -output <dir>       Output directory (default: ./output)
    -name <string>      Run name for output files (default: zerfoo_train_demo)

OTHER OPTIONS:
    -seed <int>         Random seed (default: 42)
    -verbose            Verbose output (default: false)

EXAMPLES:
    zerfoo-train
    zerfoo-train -workers 8 -epochs 10 -lr 0.005
    zerfoo-train -output ./runs -name experiment1

`)
}
