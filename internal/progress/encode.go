package progress

import "encoding/binary"

// NewRecord frames body behind a kind tag.
func NewRecord(kind uint32, body []byte) Record {
	rec := make(Record, 4, 4+len(body))
	binary.LittleEndian.PutUint32(rec, kind)
	return append(rec, body...)
}

// NewInvoke builds an invoke-by-name record calling method with one int
// argument on the view identified by viewID.
func NewInvoke(viewID int32, method string, value int32) Record {
	body := make([]byte, 0, 16+len(method))
	body = binary.LittleEndian.AppendUint32(body, uint32(viewID))
	body = binary.LittleEndian.AppendUint32(body, uint32(len(method)))
	body = append(body, method...)
	body = binary.LittleEndian.AppendUint32(body, uint32(ArgInt))
	body = binary.LittleEndian.AppendUint32(body, uint32(value))
	return NewRecord(KindInvoke, body)
}

// AppendFrame appends rec to stream behind a uint32 little-endian length.
func AppendFrame(stream []byte, rec Record) []byte {
	stream = binary.LittleEndian.AppendUint32(stream, uint32(len(rec)))
	return append(stream, rec...)
}

// SplitFrames cuts a length-framed blob produced by AppendFrame back into
// records. It stops at the first frame that runs past the end of stream.
// The returned records alias stream.
func SplitFrames(stream []byte) []Record {
	var records []Record
	for len(stream) >= 4 {
		n := binary.LittleEndian.Uint32(stream)
		stream = stream[4:]
		if uint64(n) > uint64(len(stream)) {
			break
		}
		records = append(records, Record(stream[:n]))
		stream = stream[n:]
	}
	return records
}
