package backend

import (
	"encoding/binary"

	"github.com/hal177/quill/internal/record"
)

// RecordHandler is the backend-facing dispatch hook (on_record). It is
// called once per consumed log record; bytes is valid only for the call.
type RecordHandler func(tag uint16, bytes []byte) error

// ErrorHandler is invoked when a RecordHandler call fails (on_error). The
// offending record is still consumed either way.
type ErrorHandler func(tag uint16, err error)

// Dispatcher decodes records drained from a queue and routes them either to
// the CommandTable (command records) or to a RecordHandler (everything
// else), per spec: a handler failure is reported, never retried, and the
// record is consumed regardless.
type Dispatcher struct {
	Commands *CommandTable
	Handler  RecordHandler
	OnError  ErrorHandler
}

// Dispatch consumes complete records from the start of buf while fewer than
// budget bytes have been consumed, stopping early at an incomplete record,
// and returns the number of bytes consumed. The last record consumed may end
// past budget.
func (d *Dispatcher) Dispatch(buf []byte, budget int) int {
	consumed := 0

	for consumed < budget {
		remaining := buf[consumed:]

		hdr, ok := record.ParseHeader(remaining)
		if !ok || hdr.TotalSize == 0 || hdr.TotalSize > len(remaining) {
			break
		}

		payload := record.Payload(remaining, hdr)

		switch hdr.Tag {
		case record.CommandTag:
			d.dispatchCommand(payload)
		default:
			d.dispatchRecord(uint16(hdr.Tag), payload)
		}

		consumed += hdr.TotalSize
	}

	return consumed
}

func (d *Dispatcher) dispatchCommand(payload []byte) {
	if d.Commands == nil || len(payload) < 8 {
		return
	}

	handle := binary.LittleEndian.Uint64(payload[:8])
	d.Commands.Invoke(handle)
}

func (d *Dispatcher) dispatchRecord(tag uint16, payload []byte) {
	if d.Handler == nil {
		return
	}

	if err := d.Handler(tag, payload); err != nil && d.OnError != nil {
		d.OnError(tag, err)
	}
}
