package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ProjectAether/navlink/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(config.OTelConfig{}, nil)
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutExporter(t *testing.T) {
	_, err := New(config.OTelConfig{Enabled: true, ServiceName: "aether-navlink"}, nil)
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestNew_FileExporter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "aether-navlink",
		BatchTimeout: time.Second,
	}, &buf)
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	var rec otellog.Record
	rec.SetBody(otellog.StringValue("link snapped"))
	p.LoggerProvider().Logger("test").Emit(context.Background(), rec)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "link snapped")
	assert.Contains(t, buf.String(), "aether-navlink")
	require.NoError(t, p.Shutdown(context.Background()))
}
