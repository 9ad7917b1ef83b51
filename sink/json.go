package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hal177/quill/internal/constants"
	"github.com/hal177/quill/internal/ring"
)

// JSONEncoder renders a Record as one JSON object per line: tag, a raw
// base64-free view of the payload bytes when they're already UTF-8 text
// (the common case for a pre-formatted log line), and the observed time.
type JSONEncoder struct {
	// TimeFormat selects how Timestamp is rendered. Defaults to
	// constants.TimeFormatRFC3339 when empty.
	TimeFormat constants.TimeFormat
}

type jsonRecord struct {
	Time    string `json:"time"`
	Tag     uint16 `json:"tag"`
	Message string `json:"message"`
}

// Encode implements Encoder.
func (e JSONEncoder) Encode(rec Record, buf *bytes.Buffer) ([]byte, error) {
	buf.Reset()

	enc := json.NewEncoder(buf)
	if err := enc.Encode(jsonRecord{
		Time:    e.formatTime(rec.Timestamp),
		Tag:     rec.Tag,
		Message: string(rec.Bytes),
	}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// EstimateSize implements Encoder.
func (e JSONEncoder) EstimateSize(rec Record) int {
	return len(rec.Bytes) + 64
}

func (e JSONEncoder) formatTime(t time.Time) string {
	format := e.TimeFormat
	if format == "" {
		format = constants.TimeFormatRFC3339
	}

	switch format {
	case constants.TimeFormatUnix:
		return fmt.Sprintf("%d", t.Unix())
	case constants.TimeFormatUnixMs:
		return fmt.Sprintf("%d", t.UnixMilli())
	case constants.TimeFormatRFC, constants.TimeFormatRFC3339:
		return t.Format(time.RFC3339Nano)
	case constants.TimeFormatDefault:
		b := ring.UTCBreakdown(t.Unix(), t.Nanosecond())

		return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d.%09d",
			b.Year, b.Month, b.Day, b.Hour, b.Minute, b.Second, b.Nanos)
	default:
		return t.Format(time.RFC3339Nano)
	}
}
