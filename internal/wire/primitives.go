package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Fixed-width and length-prefixed field helpers for the hand-rolled
// tagged-union payload encoding. Everything is big-endian, matching
// the rest of the frame.

func putUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func putBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

// putString writes a u16 length prefix followed by the UTF-8 bytes.
func putString(buf *bytes.Buffer, s string) {
	putUint16(buf, uint16(len(s)))
	buf.WriteString(s)
}

// putBytes writes a u32 length prefix followed by the raw bytes —
// used for Part.data, which may be as large as a single chunk.
func putBytes(buf *bytes.Buffer, b []byte) {
	putUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func getUint16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func getUint32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func getUint64(r *bytes.Reader) (uint64, error) {
	var b [8]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func getBool(r *bytes.Reader) (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, fmt.Errorf("%w: bool", ErrShortBuffer)
	}
	return b != 0, nil
}

func getString(r *bytes.Reader) (string, error) {
	n, err := getUint16(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := readFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func getBytes(r *bytes.Reader) ([]byte, error) {
	n, err := getUint32(r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := readFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func readFull(r *bytes.Reader, b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	n, err := r.Read(b)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrShortBuffer, err)
	}
	if n != len(b) {
		return n, ErrShortBuffer
	}
	return n, nil
}
