package progress

import (
	"encoding/binary"
	"errors"
	"unicode/utf8"
)

// KindInvoke is the kind tag of an invoke-by-name record, the only kind the
// decoder interprets.
const KindInvoke uint32 = 2

// Method names carried by invoke records that feed the progress bar.
const (
	MethodSetMax      = "setMax"
	MethodSetProgress = "setProgress"
)

// ArgInt is the argument type word the host writes before an int argument.
// The decoder ignores it; it is exported for encoders.
const ArgInt int32 = 4

// Record is one self-framed unit of an action stream.
type Record []byte

var (
	errShortRecord = errors.New("progress: read past end of record")
	errBadName     = errors.New("progress: method name is not valid utf-8")
)

// Decode extracts progress bar state from a sequence of action records.
//
// The record format has no public contract, so Decode never fails: a record
// that is truncated, malformed or of an unknown kind contributes nothing and
// decoding moves on to the next one. A result without HasProgressBar is the
// normal outcome for notifications that carry no progress bar.
func Decode(records []Record) Info {
	var info Info
	for _, rec := range records {
		decodeRecord(rec, &info)
	}
	return info
}

// decodeRecord applies a single record to info. A value is stored only once
// it has been read in full, so a truncated record leaves info untouched.
func decodeRecord(rec Record, info *Info) {
	defer func() {
		_ = recover()
	}()

	r := &reader{buf: rec}
	kind, err := r.uint32()
	if err != nil || kind != KindInvoke {
		return
	}
	if _, err := r.int32(); err != nil { // target view id
		return
	}
	method, ok, err := r.string()
	if err != nil || !ok {
		return
	}

	switch method {
	case MethodSetMax:
		v, err := r.intArg()
		if err != nil {
			return
		}
		info.Max = int(v)
	case MethodSetProgress:
		v, err := r.intArg()
		if err != nil {
			return
		}
		info.Progress = int(v)
		info.HasProgressBar = true
	}
}

// reader is a bounds-checked little-endian cursor over one record.
type reader struct {
	buf []byte
	off int
}

func (r *reader) uint32() (uint32, error) {
	if len(r.buf)-r.off < 4 {
		return 0, errShortRecord
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) int32() (int32, error) {
	v, err := r.uint32()
	return int32(v), err
}

// intArg reads an argument type word followed by an int32 value.
func (r *reader) intArg() (int32, error) {
	if _, err := r.int32(); err != nil {
		return 0, err
	}
	return r.int32()
}

// string reads an int32 byte length followed by UTF-8 bytes. A negative
// length encodes a null string and reports ok=false.
func (r *reader) string() (s string, ok bool, err error) {
	n, err := r.int32()
	if err != nil {
		return "", false, err
	}
	if n < 0 {
		return "", false, nil
	}
	if int64(n) > int64(len(r.buf)-r.off) {
		return "", false, errShortRecord
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	if !utf8.Valid(b) {
		return "", false, errBadName
	}
	return string(b), true, nil
}
