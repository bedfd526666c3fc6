// Package logging installs the process-wide structured logger: an slog
// bridge over an OpenTelemetry logger provider exporting to stdout.
package logging

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const instrumentationName = "github.com/dukaforge/cadence"

// Setup builds the logger provider, installs it globally, and makes the
// bridged logger the slog default. The returned shutdown function flushes
// buffered records and must run before process exit.
func Setup(ctx context.Context) (*slog.Logger, func(context.Context) error, error) {
	exporter, err := stdoutlog.New()
	if err != nil {
		return nil, nil, fmt.Errorf("creating log exporter: %w", err)
	}
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(provider)

	logger := otelslog.NewLogger(instrumentationName)
	slog.SetDefault(logger)
	return logger, provider.Shutdown, nil
}
