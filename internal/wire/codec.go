package wire

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"time"
)

// EncodeFrame serializes payload into a Frame: a 4-byte big-endian
// length, the payload itself, and a trailing 20-byte SHA-1 digest of
// the payload. Fails if payload would make the frame exceed
// MaximumSize.
func EncodeFrame(payload []byte) ([]byte, error) {
	if len(payload) > MaximumDataSize {
		return nil, fmt.Errorf("%w: %d", ErrPayloadTooLarge, len(payload))
	}
	sum := sha1.Sum(payload)
	buf := make([]byte, lengthFieldSize+len(payload)+checksumSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(payload)))
	copy(buf[4:4+len(payload)], payload)
	copy(buf[4+len(payload):], sum[:])
	return buf, nil
}

// DecodeFrame validates and strips the length prefix and checksum
// trailer from buf, returning the payload bytes.
func DecodeFrame(buf []byte) ([]byte, error) {
	if len(buf) < lengthFieldSize+checksumSize {
		return nil, ErrShortBuffer
	}
	dataLen := binary.BigEndian.Uint32(buf[0:4])
	if dataLen > MaximumDataSize {
		return nil, fmt.Errorf("%w: %d", ErrImpossibleDataLen, dataLen)
	}
	want := lengthFieldSize + int(dataLen) + checksumSize
	if len(buf) < want {
		return nil, ErrShortBuffer
	}
	payload := buf[lengthFieldSize : lengthFieldSize+dataLen]
	trailer := buf[lengthFieldSize+dataLen : want]
	sum := sha1.Sum(payload)
	if !bytes.Equal(sum[:], trailer) {
		return nil, ErrWrongChecksum
	}
	return payload, nil
}

// EncodeRequest serializes req into a complete wire Frame.
func EncodeRequest(req Request) ([]byte, error) {
	return EncodeFrame(marshalRequest(req))
}

// DecodeRequest decodes a Frame and parses its payload as a Request.
func DecodeRequest(buf []byte) (Request, error) {
	payload, err := DecodeFrame(buf)
	if err != nil {
		return Request{}, err
	}
	return unmarshalRequest(payload)
}

// EncodeResponse serializes resp into a complete wire Frame.
func EncodeResponse(resp Response) ([]byte, error) {
	return EncodeFrame(marshalResponse(resp))
}

// DecodeResponse decodes a Frame and parses its payload as a Response.
func DecodeResponse(buf []byte) (Response, error) {
	payload, err := DecodeFrame(buf)
	if err != nil {
		return Response{}, err
	}
	return unmarshalResponse(payload)
}

func marshalRequest(req Request) []byte {
	var buf bytes.Buffer
	switch req.Kind {
	case RequestList:
		buf.WriteByte(tagReqList)
		putString(&buf, req.Path)
	case RequestDownload:
		buf.WriteByte(tagReqDownload)
		putString(&buf, req.Path)
	case RequestDownloadPart:
		buf.WriteByte(tagReqDownloadPart)
		putString(&buf, req.Path)
		putUint32(&buf, req.StartByte)
		putUint32(&buf, req.Len)
	}
	return buf.Bytes()
}

func unmarshalRequest(b []byte) (Request, error) {
	r := bytes.NewReader(b)
	tag, err := r.ReadByte()
	if err != nil {
		return Request{}, fmt.Errorf("%w: empty request payload", ErrShortBuffer)
	}
	switch tag {
	case tagReqList:
		path, err := getString(r)
		if err != nil {
			return Request{}, err
		}
		return ReqList(path), nil
	case tagReqDownload:
		path, err := getString(r)
		if err != nil {
			return Request{}, err
		}
		return ReqDownload(path), nil
	case tagReqDownloadPart:
		path, err := getString(r)
		if err != nil {
			return Request{}, err
		}
		start, err := getUint32(r)
		if err != nil {
			return Request{}, err
		}
		length, err := getUint32(r)
		if err != nil {
			return Request{}, err
		}
		return ReqDownloadPart(path, start, length), nil
	default:
		return Request{}, fmt.Errorf("%w: request tag %d", ErrUnexpectedType, tag)
	}
}

func marshalResponse(resp Response) []byte {
	var buf bytes.Buffer
	switch resp.Kind {
	case ResponseDirectory:
		buf.WriteByte(tagRespDirectory)
		putUint16(&buf, uint16(len(resp.Entries)))
		for _, fd := range resp.Entries {
			putString(&buf, fd.Path)
			putUint64(&buf, uint64(fd.Created))
			putUint64(&buf, fd.Size)
		}
	case ResponseSummary:
		buf.WriteByte(tagRespSummary)
		putUint32(&buf, resp.TotalLen)
	case ResponsePart:
		buf.WriteByte(tagRespPart)
		putUint32(&buf, resp.StartByte)
		putBool(&buf, resp.Last)
		putBytes(&buf, resp.Data)
	case ResponseNotAllowed:
		buf.WriteByte(tagRespNotAllowed)
	}
	return buf.Bytes()
}

func unmarshalResponse(b []byte) (Response, error) {
	r := bytes.NewReader(b)
	tag, err := r.ReadByte()
	if err != nil {
		return Response{}, fmt.Errorf("%w: empty response payload", ErrShortBuffer)
	}
	switch tag {
	case tagRespDirectory:
		n, err := getUint16(r)
		if err != nil {
			return Response{}, err
		}
		entries := make([]FileData, 0, n)
		for i := 0; i < int(n); i++ {
			path, err := getString(r)
			if err != nil {
				return Response{}, err
			}
			created, err := getUint64(r)
			if err != nil {
				return Response{}, err
			}
			size, err := getUint64(r)
			if err != nil {
				return Response{}, err
			}
			entries = append(entries, FileData{Path: path, Created: time.Duration(created), Size: size})
		}
		return RespDirectory(entries), nil
	case tagRespSummary:
		total, err := getUint32(r)
		if err != nil {
			return Response{}, err
		}
		return RespSummary(total), nil
	case tagRespPart:
		start, err := getUint32(r)
		if err != nil {
			return Response{}, err
		}
		last, err := getBool(r)
		if err != nil {
			return Response{}, err
		}
		data, err := getBytes(r)
		if err != nil {
			return Response{}, err
		}
		return RespPart(start, data, last), nil
	case tagRespNotAllowed:
		return RespNotAllowed(), nil
	default:
		return Response{}, fmt.Errorf("%w: response tag %d", ErrUnexpectedType, tag)
	}
}
