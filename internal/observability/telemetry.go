package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/blockverse/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracerName имя трассировщика игрового цикла
const TracerName = "github.com/annel0/blockverse/game"

// InitTelemetry включает экспорт спанов тиков и HTTP-запросов по OTLP/HTTP.
// Контекст трассировки принимается из заголовков traceparent админского API.
// Возвращаемый shutdown выгружает накопленные спаны.
func InitTelemetry(ctx context.Context, serviceName, endpoint string) (func(context.Context) error, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithInsecure()}
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("OTLP экспортер: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("ресурс телеметрии: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp, sdktrace.WithBatchTimeout(2*time.Second)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logging.Info("📡 Трассировка включена: OTLP %s, service=%s", endpoint, serviceName)

	return tp.Shutdown, nil
}

// Tracer возвращает трассировщик игрового цикла из глобального провайдера.
// До InitTelemetry спаны не записываются.
func Tracer() oteltrace.Tracer {
	return otel.Tracer(TracerName)
}
