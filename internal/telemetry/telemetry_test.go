package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitWithEmptyEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "", "test-version")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}

func TestStartTurnAndDispatchProduceSpans(t *testing.T) {
	ctx, span := StartTurn(context.Background(), "session-1")
	require.NotNil(t, span)
	span.End()

	ctx, dispatchSpan := StartDispatch(ctx)
	require.NotNil(t, dispatchSpan)
	dispatchSpan.End()
}

func TestNewPrometheusMeterProviderBuilds(t *testing.T) {
	mp, err := NewPrometheusMeterProvider()
	require.NoError(t, err)
	require.NotNil(t, mp)
	require.NoError(t, mp.Shutdown(context.Background()))
}
