package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	cevents "github.com/radieske/banca-tracker/pkg/contracts/events"
)

func TestRelayForward(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rl := NewRelay(zap.New(core), nil)

	var got []cevents.BetEvent
	deliver := func(_ context.Context, e cevents.BetEvent) error {
		got = append(got, e)
		return nil
	}

	rl.forward(context.Background(), `{"userId":"u1","type":"created","payload":{"id":"a1"},"ts":"2024-06-01T12:00:00Z"}`, deliver)
	rl.forward(context.Background(), `not json`, deliver)

	require.Len(t, got, 1)
	assert.Equal(t, "u1", got[0].UserID)
	assert.Equal(t, cevents.BetCreated, got[0].Type)
	assert.Equal(t, 1, logs.FilterMessage("ws relay unmarshal").Len())
}
