package session

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sandeepkv93/voxdash/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountTransitionsAndEvents(t *testing.T) {
	active := transitionsTotal.WithLabelValues(Active.String())
	volume := providerEventsTotal.WithLabelValues(provider.NameVolumeLevel)
	beforeActive, beforeVolume := testutil.ToFloat64(active), testutil.ToFloat64(volume)

	h := newHarness()
	require.NoError(t, h.ctrl.Start(context.Background(), identity()))
	h.ctrl.handle(provider.CallStarted{})
	h.ctrl.handle(provider.VolumeLevel{Level: 10})
	h.ctrl.handle(provider.VolumeLevel{Level: 20})

	assert.Equal(t, beforeActive+1, testutil.ToFloat64(active))
	assert.Equal(t, beforeVolume+2, testutil.ToFloat64(volume))
}
