// Package record defines the wire format carried by the SPSC transport queue.
//
// Every record is a self-describing byte run: a fixed header followed by an
// opaque payload. The header never needs a decoder to be skipped, which is
// what lets the backend stay in lock-step with the producer even when it has
// no idea what a particular tag means.
package record

import (
	"encoding/binary"

	"github.com/hyp3rd/ewrap"
)

// Tag discriminates the record variants flowing through one queue.
type Tag uint16

const (
	// LogTag marks an opaque, formatting-layer-owned log event.
	LogTag Tag = 1
	// CommandTag marks an in-band backend command (e.g. a flush notification).
	CommandTag Tag = 2
)

// HeaderSize is the fixed-size prefix every record carries: total_size, type_tag.
const HeaderSize = 4

// Alignment is the byte boundary every record's total_size is rounded up to.
const Alignment = 8

// MaxPayloadSize bounds a single record so total_size always fits in a uint16.
const MaxPayloadSize = int(^uint16(0)) - HeaderSize - (Alignment - 1)

// ErrPayloadTooLarge is returned when encoding a payload that cannot fit in the
// uint16 total_size field once padded to Alignment.
var ErrPayloadTooLarge = ewrap.New("record: payload exceeds maximum size")

// Padded rounds n up to the next multiple of Alignment.
func Padded(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// EncodedSize returns the total on-wire size (header + payload, padded) for a
// record carrying payloadLen bytes.
func EncodedSize(payloadLen int) int {
	return Padded(HeaderSize + payloadLen)
}

// PutHeader writes the [total_size][type_tag] header into dst, which must be
// at least HeaderSize bytes. totalSize must already include padding.
func PutHeader(dst []byte, totalSize int, tag Tag) error {
	if totalSize <= 0 || totalSize > int(^uint16(0)) {
		return ewrap.New("record: invalid total size").WithMetadata("total_size", totalSize)
	}

	if len(dst) < HeaderSize {
		return ewrap.New("record: destination too small for header")
	}

	binary.LittleEndian.PutUint16(dst[0:2], uint16(totalSize)) //nolint:gosec // bounds checked above
	binary.LittleEndian.PutUint16(dst[2:4], uint16(tag))

	return nil
}

// Header is the decoded form of a record's fixed prefix.
type Header struct {
	TotalSize int
	Tag       Tag
}

// ParseHeader decodes the header at the start of buf. It reports ok=false if
// buf is shorter than HeaderSize, which the caller must treat as "wait for
// more bytes", never as corruption.
func ParseHeader(buf []byte) (Header, bool) {
	if len(buf) < HeaderSize {
		return Header{}, false
	}

	return Header{
		TotalSize: int(binary.LittleEndian.Uint16(buf[0:2])),
		Tag:       Tag(binary.LittleEndian.Uint16(buf[2:4])),
	}, true
}

// Encode writes a complete, padded record (header + payload) into dst and
// returns the number of bytes used. dst must be at least EncodedSize(len(payload)) long.
func Encode(dst []byte, tag Tag, payload []byte) (int, error) {
	if len(payload) > MaxPayloadSize {
		return 0, ErrPayloadTooLarge.WithMetadata("len", len(payload))
	}

	total := EncodedSize(len(payload))
	if len(dst) < total {
		return 0, ewrap.New("record: destination slice too small").
			WithMetadata("need", total).
			WithMetadata("have", len(dst))
	}

	if err := PutHeader(dst, total, tag); err != nil {
		return 0, err
	}

	copy(dst[HeaderSize:HeaderSize+len(payload)], payload)

	// Zero the padding so a stale previous record can never be mistaken for
	// payload bytes by a handler that over-reads.
	for i := HeaderSize + len(payload); i < total; i++ {
		dst[i] = 0
	}

	return total, nil
}

// Payload returns the payload slice within a full record buffer, given a
// parsed header. The returned slice aliases buf.
func Payload(buf []byte, hdr Header) []byte {
	end := hdr.TotalSize
	if end > len(buf) {
		end = len(buf)
	}

	payloadEnd := end
	if payloadEnd < HeaderSize {
		return nil
	}

	return buf[HeaderSize:payloadEnd]
}
