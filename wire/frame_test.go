package wire

import (
	"bytes"
	"testing"
)

func TestWriteReadFrameRequest(t *testing.T) {
	msg := &Message{
		Op:    OpPut,
		Key:   []byte("hello"),
		Value: []byte("world"),
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, msg); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	decoded, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	if decoded.Op != msg.Op {
		t.Errorf("Op mismatch: got %d, want %d", decoded.Op, msg.Op)
	}
	if !bytes.Equal(decoded.Key, msg.Key) {
		t.Errorf("Key mismatch: got %q, want %q", decoded.Key, msg.Key)
	}
	if !bytes.Equal(decoded.Value, msg.Value) {
		t.Errorf("Value mismatch: got %q, want %q", decoded.Value, msg.Value)
	}
}

func TestWriteReadFrameError(t *testing.T) {
	msg := &Message{
		Op:      OpErrorResp,
		Code:    404,
		Message: "not found",
	}

	var buf bytes.Buffer
	if err := WriteFrame(&buf, msg); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}

	decoded, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	if !decoded.IsError() {
		t.Fatalf("expected IsError() true")
	}
	if decoded.Code != msg.Code {
		t.Errorf("Code mismatch: got %d, want %d", decoded.Code, msg.Code)
	}
	if decoded.Message != msg.Message {
		t.Errorf("Message mismatch: got %q, want %q", decoded.Message, msg.Message)
	}
}

func TestReadFrameBadMagic(t *testing.T) {
	buf := bytes.NewBuffer(make([]byte, headerSize))
	if _, err := ReadFrame(buf); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestFramesBackToBack(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		if err := WriteFrame(&buf, &Message{Op: OpGet, Key: []byte("k")}); err != nil {
			t.Fatalf("WriteFrame %d failed: %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		if _, err := ReadFrame(&buf); err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
	}
}
