// Package capture records raw watch traffic to a CBOR frame log and reads it back.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction says which way a frame travelled.
type Direction uint8

const (
	Outgoing Direction = 1
	Incoming Direction = 2
)

func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "out"
	case Incoming:
		return "in"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Frame is one buffer written to or received from the watch.
type Frame struct {
	Time      time.Time `cbor:"1,keyasint"`
	Direction Direction `cbor:"2,keyasint"`
	Endpoint  string    `cbor:"3,keyasint"`
	Data      []byte    `cbor:"4,keyasint"`
	// Outcome is the decoded type name, or the decode error for incoming frames.
	Outcome string `cbor:"5,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("capture: cbor encoder mode: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("capture: cbor decoder mode: %v", err))
	}
}

// Writer appends frames to a file. It is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	closer io.Closer
	enc    *cbor.Encoder
	closed bool
}

// Create opens path for appending, creating it if needed.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("capture: open: %w", err)
	}
	return &Writer{closer: f, enc: encMode.NewEncoder(f)}, nil
}

// NewWriter encodes frames to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: encMode.NewEncoder(w)}
}

// Write appends f. Writes after Close are dropped.
func (w *Writer) Write(f Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	if err := w.enc.Encode(f); err != nil {
		return fmt.Errorf("capture: write: %w", err)
	}
	return nil
}

// Close closes the underlying file. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// Reader streams frames back in the order they were written.
type Reader struct {
	closer io.Closer
	dec    *cbor.Decoder
}

// Open opens a frame log for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open: %w", err)
	}
	return &Reader{closer: f, dec: decMode.NewDecoder(f)}, nil
}

// NewReader decodes frames from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Next returns the next frame, or io.EOF at the end of the log.
func (r *Reader) Next() (Frame, error) {
	var f Frame
	if err := r.dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("capture: read: %w", err)
	}
	return f, nil
}

// Close closes the underlying file, if any.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
