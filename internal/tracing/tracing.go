package tracing

import (
	"context"
	"io"
	"os"

	"bookpay-be/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type ShutdownFunc func(context.Context) error

// Init installs a global tracer provider. Spans are printed to w when
// APP_ENV is not production; in production they are sampled out until an
// exporter is configured.
func Init(appEnv string, w io.Writer) (ShutdownFunc, error) {
	if w == nil {
		w = os.Stdout
	}

	opts := []sdktrace.TracerProviderOption{}
	if appEnv == "production" {
		opts = append(opts, sdktrace.WithSampler(sdktrace.NeverSample()))
	} else {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.L().Info("Tracing initialized", zap.String("env", appEnv))
	return tp.Shutdown, nil
}
