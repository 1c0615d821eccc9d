package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"VolScreen/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topic  string
	key    []byte
	value  []byte
	err    error
	closed bool
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	if f.err != nil {
		return f.err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.topic, f.key, f.value = topic, key, b
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaResultPublisher(t *testing.T) {
	prod := &fakeProducer{}
	pub := NewKafkaResultPublisher(prod, "volscreen.results")

	rsi := 71.5
	res := &models.ScreenResult{
		RunID: "run-1",
		TopN:  5,
		Results: []models.VolatilityMetrics{
			{Symbol: "TSLA", VolatilityScore: 3.2, RSILatest: &rsi, PredictedDirection: models.DirectionUp},
		},
	}
	require.NoError(t, pub.PublishResult(context.Background(), res))
	assert.Equal(t, "volscreen.results", prod.topic)
	assert.Equal(t, []byte("run-1"), prod.key)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(prod.value, &decoded))
	first := decoded["results"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "TSLA", first["symbol"])
	assert.Equal(t, 71.5, first["rsi_latest"])
	assert.Equal(t, 1.0, first["predicted_direction"])

	require.NoError(t, pub.Close())
	assert.True(t, prod.closed)
}

func TestKafkaResultPublisherError(t *testing.T) {
	prod := &fakeProducer{err: errors.New("leader not available")}
	pub := NewKafkaResultPublisher(prod, "t")

	err := pub.PublishResult(context.Background(), &models.ScreenResult{RunID: "r"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run r")
	assert.NoError(t, pub.PublishResult(context.Background(), nil))
}
