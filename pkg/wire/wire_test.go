package wire

import (
	"bytes"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	req := Request{Op: OpLookup, Key: 1000}
	if err := EncodeRequest(buf, req); err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	got, err := DecodeRequest(buf)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if got != req {
		t.Errorf("got %+v, want %+v", got, req)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	resp := Response{Status: StatusOK, Value: []byte("hello")}
	if err := EncodeResponse(buf, resp); err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	got, err := DecodeResponse(buf)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if got.Status != resp.Status || !bytes.Equal(got.Value, resp.Value) {
		t.Errorf("got %+v, want %+v", got, resp)
	}
}

func TestResponseRoundTripEmptyValue(t *testing.T) {
	buf := new(bytes.Buffer)
	resp := Response{Status: StatusNotFound}
	if err := EncodeResponse(buf, resp); err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	got, err := DecodeResponse(buf)
	if err != nil {
		t.Fatalf("DecodeResponse: %v", err)
	}
	if got.Status != StatusNotFound || len(got.Value) != 0 {
		t.Errorf("got %+v, want empty value with StatusNotFound", got)
	}
}

func TestDecodeRequestInvalidMagic(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x00, OpLookup, 0, 0, 0, 0, 0, 0, 0, 1})
	if _, err := DecodeRequest(buf); err != ErrInvalidMagic {
		t.Errorf("got %v, want ErrInvalidMagic", err)
	}
}
