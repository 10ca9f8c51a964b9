// Package wire is the query daemon's length-prefixed binary protocol,
// lifted from the teacher's protocol.go and trimmed to the one operation
// this index serves over the network: Lookup(key) -> value (SPEC_FULL §6.4
// "Query-serving daemon").
package wire

import (
	"encoding/binary"
	"errors"
	"io"

	"airindex/pkg/common"
)

// MagicNumber marks a well-formed frame, continuing the teacher's
// single-byte magic-number framing convention.
const MagicNumber = 0x41 // 'A'

// Op identifies a request's operation. Lookup is the only one this index
// serves; the byte is still carried so the wire format has room to grow the
// way the teacher's protocol carries Put/Get/Del/Scan.
const OpLookup = 0x01

// Status codes a response carries in place of the teacher's RespOK/RespErr.
const (
	StatusOK       = 0x00
	StatusNotFound = 0x01
	StatusErr      = 0xFF
)

var ErrInvalidMagic = errors.New("wire: invalid magic number")

// Request is a Lookup call: op + key, key fixed at 8 bytes regardless of
// the underlying dataset's on-disk dtype (common.Key is always uint64 at
// runtime, §3).
type Request struct {
	Op  byte
	Key common.Key
}

// EncodeRequest writes req as: magic, op, 8-byte big-endian key.
func EncodeRequest(w io.Writer, req Request) error {
	buf := make([]byte, 10)
	buf[0] = MagicNumber
	buf[1] = req.Op
	binary.BigEndian.PutUint64(buf[2:10], req.Key)
	_, err := w.Write(buf)
	return err
}

// DecodeRequest reads a Request written by EncodeRequest.
func DecodeRequest(r io.Reader) (Request, error) {
	buf := make([]byte, 10)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Request{}, err
	}
	if buf[0] != MagicNumber {
		return Request{}, ErrInvalidMagic
	}
	return Request{Op: buf[1], Key: binary.BigEndian.Uint64(buf[2:10])}, nil
}

// Response carries a Lookup's outcome: Status plus, on StatusOK, Value.
type Response struct {
	Status byte
	Value  []byte
}

// EncodeResponse writes resp as: magic, status, 4-byte big-endian value
// length, value bytes.
func EncodeResponse(w io.Writer, resp Response) error {
	header := make([]byte, 6)
	header[0] = MagicNumber
	header[1] = resp.Status
	binary.BigEndian.PutUint32(header[2:6], uint32(len(resp.Value)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	if len(resp.Value) > 0 {
		if _, err := w.Write(resp.Value); err != nil {
			return err
		}
	}
	return nil
}

// DecodeResponse reads a Response written by EncodeResponse.
func DecodeResponse(r io.Reader) (Response, error) {
	header := make([]byte, 6)
	if _, err := io.ReadFull(r, header); err != nil {
		return Response{}, err
	}
	if header[0] != MagicNumber {
		return Response{}, ErrInvalidMagic
	}
	vLen := binary.BigEndian.Uint32(header[2:6])
	val := make([]byte, vLen)
	if vLen > 0 {
		if _, err := io.ReadFull(r, val); err != nil {
			return Response{}, err
		}
	}
	return Response{Status: header[1], Value: val}, nil
}
