package progress

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const barID int32 = 0x7f0b0042

func TestDecodeMaxThenProgress(t *testing.T) {
	info := Decode([]Record{
		NewInvoke(barID, MethodSetMax, 100),
		NewInvoke(barID, MethodSetProgress, 42),
	})

	assert.Equal(t, Info{HasProgressBar: true, Progress: 42, Max: 100}, info)
	assert.InDelta(t, 0.42, info.Fraction(), 1e-9)
}

func TestDecodeOrderIndependent(t *testing.T) {
	info := Decode([]Record{
		NewInvoke(barID, MethodSetProgress, 7),
		NewInvoke(barID, MethodSetMax, 10),
	})
	assert.Equal(t, Info{HasProgressBar: true, Progress: 7, Max: 10}, info)
}

func TestDecodeNoProgressBar(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
	}{
		{"nil", nil},
		{"empty record", []Record{{}}},
		{"max only", []Record{NewInvoke(barID, MethodSetMax, 100)}},
		{"other method", []Record{NewInvoke(barID, "setVisibility", 0)}},
		{"other kind", []Record{NewRecord(1, []byte{1, 2, 3, 4, 5, 6, 7, 8})}},
		{"kind only", []Record{NewRecord(KindInvoke, nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Decode(tt.records)
			assert.False(t, info.HasProgressBar)
		})
	}
}

func TestDecodeSkipsUnknownKinds(t *testing.T) {
	info := Decode([]Record{
		NewRecord(12, []byte("opaque bitmap payload")),
		NewInvoke(barID, MethodSetMax, 50),
		NewRecord(3, nil),
		NewInvoke(barID, "setText", 1),
		NewInvoke(barID, MethodSetProgress, 25),
	})
	assert.Equal(t, Info{HasProgressBar: true, Progress: 25, Max: 50}, info)
}

func TestDecodeTruncatedPrefixes(t *testing.T) {
	for _, method := range []string{MethodSetMax, MethodSetProgress} {
		full := NewInvoke(barID, method, 42)
		for n := 0; n < len(full); n++ {
			prefix := full[:n]
			assert.NotPanics(t, func() {
				info := Decode([]Record{prefix})
				assert.False(t, info.HasProgressBar, "%s prefix of %d bytes", method, n)
			})
		}
	}
}

func TestDecodeTruncatedRecordDoesNotAbortStream(t *testing.T) {
	good := NewInvoke(barID, MethodSetProgress, 3)
	info := Decode([]Record{
		NewInvoke(barID, MethodSetMax, 9)[:10],
		good,
		NewInvoke(barID, MethodSetMax, 9),
	})
	assert.Equal(t, Info{HasProgressBar: true, Progress: 3, Max: 9}, info)
}

func TestDecodeMalformedNames(t *testing.T) {
	body := binary.LittleEndian.AppendUint32(nil, uint32(barID))

	t.Run("null name", func(t *testing.T) {
		b := binary.LittleEndian.AppendUint32(append([]byte{}, body...), 0xffffffff)
		assert.False(t, Decode([]Record{NewRecord(KindInvoke, b)}).HasProgressBar)
	})

	t.Run("length past end", func(t *testing.T) {
		b := binary.LittleEndian.AppendUint32(append([]byte{}, body...), 1<<30)
		b = append(b, "setProgress"...)
		assert.False(t, Decode([]Record{NewRecord(KindInvoke, b)}).HasProgressBar)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		b := binary.LittleEndian.AppendUint32(append([]byte{}, body...), 3)
		b = append(b, 0xff, 0xfe, 0xfd)
		b = binary.LittleEndian.AppendUint32(b, uint32(ArgInt))
		b = binary.LittleEndian.AppendUint32(b, 1)
		assert.False(t, Decode([]Record{NewRecord(KindInvoke, b)}).HasProgressBar)
	})
}

func TestDecodeIsPure(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		records := make([]Record, rng.Intn(5))
		for j := range records {
			rec := make(Record, rng.Intn(40))
			rng.Read(rec)
			if rng.Intn(2) == 0 && len(rec) >= 4 {
				binary.LittleEndian.PutUint32(rec, KindInvoke)
			}
			records[j] = rec
		}
		require.NotPanics(t, func() {
			assert.Equal(t, Decode(records), Decode(records))
		})
	}
}

func TestSplitFrames(t *testing.T) {
	a := NewInvoke(barID, MethodSetMax, 100)
	b := NewInvoke(barID, MethodSetProgress, 10)

	stream := AppendFrame(AppendFrame(nil, a), b)
	records := SplitFrames(stream)
	require.Len(t, records, 2)
	assert.Equal(t, a, records[0])
	assert.Equal(t, b, records[1])

	// A short trailing frame is dropped, the complete ones survive.
	records = SplitFrames(stream[:len(stream)-1])
	require.Len(t, records, 1)
	assert.Equal(t, a, records[0])

	assert.Empty(t, SplitFrames([]byte{1, 0}))
}
