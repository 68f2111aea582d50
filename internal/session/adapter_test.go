package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zipxxx1/GravityBox-sub001/internal/progress"
)

func TestWireAdapterRecords(t *testing.T) {
	w := WireNotification{
		SourceID: "org.example.sync",
		Tag:      "job:1",
		ID:       4,
		Tracking: true,
		Actions:  progressActions(5, 10),
	}
	data, err := json.Marshal(w)
	require.NoError(t, err)

	n, err := WireAdapter{}.Notification(json.RawMessage(data))
	require.NoError(t, err)
	assert.Equal(t, "org.example.sync", n.SourceID)
	assert.Equal(t, "job:1", n.Tag)
	assert.Equal(t, 4, n.ID)
	assert.True(t, n.Tracking)
	assert.Equal(t, progress.Info{HasProgressBar: true, Progress: 5, Max: 10}, progress.Decode(n.Actions))
}

func TestWireAdapterFramedStream(t *testing.T) {
	var stream []byte
	for _, rec := range progressActions(3, 4) {
		stream = progress.AppendFrame(stream, rec)
	}

	n, err := WireAdapter{}.Notification(&WireNotification{SourceID: "a", ActionStream: stream})
	require.NoError(t, err)
	require.Len(t, n.Actions, 2)
	assert.Equal(t, 3, progress.Decode(n.Actions).Progress)
}

func TestWireAdapterPayloadPresence(t *testing.T) {
	n, err := WireAdapter{}.Notification([]byte(`{"sourceId":"a","id":1}`))
	require.NoError(t, err)
	assert.Nil(t, n.Actions, "no actions field means no payload")

	n, err = WireAdapter{}.Notification([]byte(`{"sourceId":"a","id":1,"actions":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, n.Actions)
	assert.Empty(t, n.Actions)
}

func TestWireAdapterErrors(t *testing.T) {
	_, err := WireAdapter{}.Notification(42)
	assert.ErrorIs(t, err, ErrUnsupportedPayload)

	_, err = WireAdapter{}.Notification((*WireNotification)(nil))
	assert.ErrorIs(t, err, ErrUnsupportedPayload)

	_, err = WireAdapter{}.Notification([]byte(`{"id":1}`))
	assert.ErrorIs(t, err, ErrUnsupportedPayload)

	_, err = WireAdapter{}.Notification([]byte(`not json`))
	assert.Error(t, err)
}
