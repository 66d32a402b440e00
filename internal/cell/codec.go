package cell

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrCorruption is returned when a serialized record cannot be decoded.
var ErrCorruption = errors.New("cell: corrupt record")

// EncodeKey serializes a Key as:
//
//	[4-byte row length][row][4-byte column length][column][8-byte timestamp]
func EncodeKey(k Key) []byte {
	buf := make([]byte, 4+len(k.Row)+4+len(k.Column)+8)
	off := 0
	binary.BigEndian.PutUint32(buf[off:], uint32(len(k.Row)))
	off += 4
	copy(buf[off:], k.Row)
	off += len(k.Row)
	binary.BigEndian.PutUint32(buf[off:], uint32(len(k.Column)))
	off += 4
	copy(buf[off:], k.Column)
	off += len(k.Column)
	binary.BigEndian.PutUint64(buf[off:], k.Timestamp)
	return buf
}

// DecodeKey parses a Key produced by EncodeKey and returns it along with
// the number of bytes consumed.
func DecodeKey(buf []byte) (Key, int, error) {
	if len(buf) < 4 {
		return Key{}, 0, ErrCorruption
	}
	off := 0
	rowLen := int(binary.BigEndian.Uint32(buf[off:]))
	off += 4
	if len(buf) < off+rowLen+4 {
		return Key{}, 0, ErrCorruption
	}
	row := buf[off : off+rowLen]
	off += rowLen
	colLen := int(binary.BigEndian.Uint32(buf[off:]))
	off += 4
	if len(buf) < off+colLen+8 {
		return Key{}, 0, ErrCorruption
	}
	col := buf[off : off+colLen]
	off += colLen
	ts := binary.BigEndian.Uint64(buf[off:])
	off += 8
	return Key{Row: row, Column: col, Timestamp: ts}, off, nil
}

// EncodeValue serializes a Value as:
//
//	[1-byte kind] then, for Put: [4-byte length][bytes];
//	for Tombstone: [1-byte has-ttl][8-byte ttl-ms if present]
func EncodeValue(v Value) []byte {
	switch v.Kind {
	case KindPut:
		buf := make([]byte, 1+4+len(v.Bytes))
		buf[0] = byte(KindPut)
		binary.BigEndian.PutUint32(buf[1:], uint32(len(v.Bytes)))
		copy(buf[5:], v.Bytes)
		return buf
	default: // KindTombstone
		if v.TTLMs == nil {
			return []byte{byte(KindTombstone), 0}
		}
		buf := make([]byte, 1+1+8)
		buf[0] = byte(KindTombstone)
		buf[1] = 1
		binary.BigEndian.PutUint64(buf[2:], *v.TTLMs)
		return buf
	}
}

// DecodeValue parses a Value produced by EncodeValue and returns it along
// with the number of bytes consumed.
func DecodeValue(buf []byte) (Value, int, error) {
	if len(buf) < 1 {
		return Value{}, 0, ErrCorruption
	}
	switch Kind(buf[0]) {
	case KindPut:
		if len(buf) < 5 {
			return Value{}, 0, ErrCorruption
		}
		n := int(binary.BigEndian.Uint32(buf[1:]))
		if len(buf) < 5+n {
			return Value{}, 0, ErrCorruption
		}
		return NewPut(buf[5 : 5+n]), 5 + n, nil
	case KindTombstone:
		if len(buf) < 2 {
			return Value{}, 0, ErrCorruption
		}
		if buf[1] == 0 {
			return NewTombstone(nil), 2, nil
		}
		if len(buf) < 10 {
			return Value{}, 0, ErrCorruption
		}
		ttl := binary.BigEndian.Uint64(buf[2:])
		return NewTombstone(&ttl), 10, nil
	default:
		return Value{}, 0, ErrCorruption
	}
}

// EncodeEntry serializes an Entry as a length-prefixed key followed by a
// length-prefixed value:
//
//	[4-byte key length][key][4-byte value length][value]
//
// This is the on-disk framing used for every entry in an SSTable, and is
// also the WAL record payload, so the two representations are
// byte-for-byte interchangeable for a given entry.
func EncodeEntry(e Entry) []byte {
	k := EncodeKey(e.Key)
	v := EncodeValue(e.Value)
	buf := make([]byte, 4+len(k)+4+len(v))
	binary.BigEndian.PutUint32(buf, uint32(len(k)))
	copy(buf[4:], k)
	binary.BigEndian.PutUint32(buf[4+len(k):], uint32(len(v)))
	copy(buf[4+len(k)+4:], v)
	return buf
}

// DecodeEntry parses an Entry produced by EncodeEntry and returns it along
// with the number of bytes consumed.
func DecodeEntry(buf []byte) (Entry, int, error) {
	if len(buf) < 4 {
		return Entry{}, 0, ErrCorruption
	}
	keyLen := int(binary.BigEndian.Uint32(buf))
	if len(buf) < 4+keyLen+4 {
		return Entry{}, 0, ErrCorruption
	}
	key, _, err := DecodeKey(buf[4 : 4+keyLen])
	if err != nil {
		return Entry{}, 0, err
	}
	off := 4 + keyLen
	valLen := int(binary.BigEndian.Uint32(buf[off:]))
	off += 4
	if len(buf) < off+valLen {
		return Entry{}, 0, ErrCorruption
	}
	val, _, err := DecodeValue(buf[off : off+valLen])
	if err != nil {
		return Entry{}, 0, err
	}
	return Entry{Key: key, Value: val}, off + valLen, nil
}

// ReadEntry reads one length-prefixed entry from r: a big-endian 32-bit
// length followed by that many bytes of EncodeEntry payload. It returns
// io.EOF when r is exhausted before any bytes of a new record are read,
// and io.ErrUnexpectedEOF when a record is torn mid-way (used by WAL
// replay to distinguish a clean end from a truncated trailing record).
func ReadEntry(r io.Reader) (Entry, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		if errors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, io.ErrUnexpectedEOF
	}
	n := binary.BigEndian.Uint32(lenBuf)
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Entry{}, io.ErrUnexpectedEOF
	}
	e, _, err := DecodeEntry(payload)
	if err != nil {
		return Entry{}, io.ErrUnexpectedEOF
	}
	return e, nil
}

// WriteEntry writes one length-prefixed entry, matching the framing
// ReadEntry expects.
func WriteEntry(w io.Writer, e Entry) error {
	payload := EncodeEntry(e)
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(payload)))
	if _, err := w.Write(lenBuf); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
