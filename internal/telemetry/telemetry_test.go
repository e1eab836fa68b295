package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zaptest"

	"github.com/clinicalnotes/reportrepair/config"
	"github.com/clinicalnotes/reportrepair/types"
)

// saveAndRestoreGlobalProviders snapshots the current global OTel providers
// and restores them via t.Cleanup so tests don't leak state.
func saveAndRestoreGlobalProviders(t *testing.T) {
	t.Helper()
	origTP := otel.GetTracerProvider()
	origMP := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(origTP)
		otel.SetMeterProvider(origMP)
	})
}

func TestInit_Disabled(t *testing.T) {
	saveAndRestoreGlobalProviders(t)

	p, err := Init(context.Background(), config.TelemetryConfig{Enabled: false}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Nil(t, p.tp)
	assert.Nil(t, p.mp)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_Enabled(t *testing.T) {
	saveAndRestoreGlobalProviders(t)

	cfg := config.TelemetryConfig{
		Enabled:      true,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "reportrepair-test",
		SampleRate:   0.5,
	}

	p, err := Init(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})

	assert.NotNil(t, p.tp)
	assert.NotNil(t, p.mp)

	_, tpIsSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	_, mpIsSDK := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, tpIsSDK)
	assert.True(t, mpIsSDK)
}

func TestProviders_Shutdown_Nil(t *testing.T) {
	var p *Providers
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestTracer_EndSpan(t *testing.T) {
	saveAndRestoreGlobalProviders(t)
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	_, ok := Tracer().Start(context.Background(), "record.ok")
	EndSpan(ok, nil)
	_, failed := Tracer().Start(context.Background(), "record.failed")
	EndSpan(failed, errors.New("recovery failure"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "recovery failure", spans[1].Status().Description)
	assert.Len(t, spans[1].Events(), 1)
	assert.Equal(t, InstrumentationName, spans[1].InstrumentationScope().Name)
}

func TestStartRecord(t *testing.T) {
	saveAndRestoreGlobalProviders(t)
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	ctx := types.WithRunID(context.Background(), "run-7")
	ctx, span := StartRecord(ctx, "pipeline.process", "VAC_00123.json")
	EndSpan(span, nil)
	_, bare := StartRecord(context.Background(), "extract.document", "VAC_9.txt")
	EndSpan(bare, nil)

	label, ok := types.Label(ctx)
	require.True(t, ok)
	assert.Equal(t, "VAC_00123.json", label)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "VAC_00123.json", attrs[string(AttrRecordLabel)])
	assert.Equal(t, "run-7", attrs[string(AttrRunID)])

	assert.Len(t, spans[1].Attributes(), 1)
	assert.Equal(t, AttrRecordLabel, spans[1].Attributes()[0].Key)
}

func TestSampleRate(t *testing.T) {
	assert.Equal(t, 0.0, sampleRate(-0.5))
	assert.Equal(t, 0.25, sampleRate(0.25))
	assert.Equal(t, 1.0, sampleRate(3))
}

func TestBuildVersion(t *testing.T) {
	assert.Equal(t, "dev", buildVersion())
}
