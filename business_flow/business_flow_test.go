package businessflow

import (
	"context"
	"testing"

	"github.com/Mashyrano/Pos-performance-Tracker/utils"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowLoggerRequestFields(t *testing.T) {
	logger, hook := test.NewNullLogger()

	ctx := context.WithValue(context.Background(), utils.RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, utils.EndpointKey, "/clients/upload")
	ctx = context.WithValue(ctx, utils.IPAddressKey, "10.0.0.7")

	flowLogger(ctx, logger).Info("clients imported")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.Fields{
		"request_id": "req-1",
		"endpoint":   "/clients/upload",
		"ip_address": "10.0.0.7",
	}, entry.Data)

	hook.Reset()
	flowLogger(context.Background(), logger).Info("no request")
	require.NotNil(t, hook.LastEntry())
	assert.Empty(t, hook.LastEntry().Data)
}
