package wire

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func TestFrame_RoundTripRequest(t *testing.T) {
	cases := []Request{
		ReqList("some/dir"),
		ReqDownload("a.txt"),
		ReqDownloadPart("a.txt", 1234, 500),
	}
	for _, in := range cases {
		frame, err := EncodeRequest(in)
		if err != nil {
			t.Fatalf("EncodeRequest: %v", err)
		}
		out, err := DecodeRequest(frame)
		if err != nil {
			t.Fatalf("DecodeRequest: %v", err)
		}
		if out != in {
			t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
		}
	}
}

func TestFrame_RoundTripResponse(t *testing.T) {
	cases := []Response{
		RespDirectory([]FileData{
			{Path: "a.txt", Created: 5 * time.Second, Size: 10},
			{Path: "b.txt", Created: 0, Size: 0},
		}),
		RespSummary(12345),
		RespPart(1234, []byte("hello"), false),
		RespPart(5000, nil, true),
		RespNotAllowed(),
	}
	for _, in := range cases {
		frame, err := EncodeResponse(in)
		if err != nil {
			t.Fatalf("EncodeResponse: %v", err)
		}
		out, err := DecodeResponse(frame)
		if err != nil {
			t.Fatalf("DecodeResponse: %v", err)
		}
		if out.Kind != in.Kind || out.TotalLen != in.TotalLen || out.StartByte != in.StartByte ||
			out.Last != in.Last || string(out.Data) != string(in.Data) || len(out.Entries) != len(in.Entries) {
			t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
		}
		for i := range in.Entries {
			if out.Entries[i] != in.Entries[i] {
				t.Fatalf("entry %d mismatch: got %+v want %+v", i, out.Entries[i], in.Entries[i])
			}
		}
	}
}

func TestFrame_ChecksumDetection(t *testing.T) {
	frame, err := EncodeRequest(ReqDownload("a.txt"))
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	// Flip a bit in the payload region (after the 4-byte length prefix).
	frame[4] ^= 0x01
	if _, err := DecodeRequest(frame); !errors.Is(err, ErrWrongChecksum) {
		t.Fatalf("expected ErrWrongChecksum, got %v", err)
	}
}

func TestFrame_SizeBound(t *testing.T) {
	payload := make([]byte, MaximumDataSize)
	if _, err := EncodeFrame(payload); err != nil {
		t.Fatalf("expected payload at the bound to encode, got %v", err)
	}
	over := make([]byte, MaximumDataSize+1)
	if _, err := EncodeFrame(over); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestFrame_Endianness(t *testing.T) {
	frame, err := EncodeRequest(ReqDownload("x"))
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	got := binary.BigEndian.Uint32(frame[0:4])
	want := uint32(len(frame) - lengthFieldSize - checksumSize)
	if got != want {
		t.Fatalf("length prefix = %d, want %d", got, want)
	}
}

func TestFrame_DecodeImpossibleDataLen(t *testing.T) {
	buf := make([]byte, 4+checksumSize)
	binary.BigEndian.PutUint32(buf[0:4], MaximumDataSize+1)
	if _, err := DecodeFrame(buf); !errors.Is(err, ErrImpossibleDataLen) {
		t.Fatalf("expected ErrImpossibleDataLen, got %v", err)
	}
}

func TestFrame_RejectsWrongSide(t *testing.T) {
	respFrame, err := EncodeResponse(RespNotAllowed())
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	if _, err := DecodeRequest(respFrame); !errors.Is(err, ErrUnexpectedType) {
		t.Fatalf("expected ErrUnexpectedType decoding a response as a request, got %v", err)
	}
}
