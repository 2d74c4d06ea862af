package graceful_shutdown

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

var (
	mu                  sync.Mutex
	inputsShutdownFuncs []func()
	outputShutdownFuncs []func()
	drain               = 10 * time.Second
)

// AddInputShutdownFunc registers a func that stops accepting work: HTTP
// listeners, consumers, live game sessions.
func AddInputShutdownFunc(f func()) {
	mu.Lock()
	defer mu.Unlock()
	inputsShutdownFuncs = append(inputsShutdownFuncs, f)
}

// AddOutputShutdownFunc registers a func that releases a downstream client.
// Output funcs run after inputs are stopped and the drain period has passed.
func AddOutputShutdownFunc(f func()) {
	mu.Lock()
	defer mu.Unlock()
	outputShutdownFuncs = append(outputShutdownFuncs, f)
}

func SetDrain(d time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	drain = d
}

func WaitForSignals() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	<-signalChan

	slog.Info("Received shutdown signal, shutting down...")
	Shutdown()
}

// Shutdown runs every registered func once, inputs first.
func Shutdown() {
	mu.Lock()
	inputs, outputs, d := inputsShutdownFuncs, outputShutdownFuncs, drain
	inputsShutdownFuncs, outputShutdownFuncs = nil, nil
	mu.Unlock()

	for _, f := range inputs {
		f()
	}

	time.Sleep(d)

	for _, f := range outputs {
		f()
	}
	slog.Info("Shutdown complete")
}
