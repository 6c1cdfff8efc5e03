package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// WriteFrame encodes v as JSON and writes it to w prefixed with its
// length as a big-endian uint32.
func WriteFrame(w io.Writer, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: marshal frame: %w", err)
	}
	if len(payload) > MaxMessageBytes {
		return fmt.Errorf("wire: frame of %d bytes exceeds %d byte limit", len(payload), MaxMessageBytes)
	}
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(payload)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("wire: write length prefix: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed JSON message from r and decodes it
// into v. It rejects a claimed length over MaxMessageBytes before reading
// the body, so a hostile peer cannot force an unbounded allocation.
func ReadFrame(r io.Reader, v interface{}) error {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return fmt.Errorf("wire: read length prefix: %w", err)
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	if n > MaxMessageBytes {
		return fmt.Errorf("wire: frame of %d bytes exceeds %d byte limit", n, MaxMessageBytes)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("wire: read payload: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("wire: unmarshal frame: %w", err)
	}
	return nil
}

// WriteEnvelope wraps payload in an Envelope tagged with typ and writes it
// as a frame.
func WriteEnvelope(w io.Writer, typ Type, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("wire: marshal payload: %w", err)
	}
	return WriteFrame(w, Envelope{Type: typ, Payload: raw})
}

// ReadEnvelope reads one frame and decodes its outer Envelope, leaving the
// caller to unmarshal Payload according to Type.
func ReadEnvelope(r io.Reader) (Envelope, error) {
	var env Envelope
	if err := ReadFrame(r, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
