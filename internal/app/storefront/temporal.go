package storefront

import (
	"errors"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	platformobservability "github.com/Apurer/storefront-core/internal/platform/observability"
	"github.com/Apurer/storefront-core/internal/platform/temporal/codec"
)

// ErrTemporalDisabled is returned by DialTemporal when TEMPORAL_DISABLED is set.
var ErrTemporalDisabled = errors.New("temporal disabled via TEMPORAL_DISABLED env")

// DialTemporal connects a traced Temporal client. component names the tracer.
func DialTemporal(cfg Config, instruments *platformobservability.Instruments, component string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, ErrTemporalDisabled
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(component),
	})
	if err != nil {
		return nil, err
	}
	logger := effectiveLogger(instruments)
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	if err := applyPayloadCodec(&options, cfg.TemporalPayloadKey, logger); err != nil {
		return nil, err
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

// applyPayloadCodec seals payloads when key is set. Client and worker must
// share the key.
func applyPayloadCodec(options *client.Options, key string, logger *slog.Logger) error {
	if key == "" {
		logger.Warn("TEMPORAL_PAYLOAD_KEY not set, order placement inputs including bearer tokens are stored unencrypted in workflow history")
		return nil
	}
	sealer, err := codec.NewAESGCM(key)
	if err != nil {
		return err
	}
	options.DataConverter = sealer.DataConverter()
	return nil
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
