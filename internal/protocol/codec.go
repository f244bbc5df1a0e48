// Package protocol implements the LS02 wire codec.
//
// Every command is a fixed layout: one command byte, an optional sub-identifier byte, then
// payload fields in declaration order. There is no envelope, length or checksum. Single-byte
// fields dominate; the few multi-byte fields (dates, step counts, the step goal) are
// big-endian. Each type is bound to one endpoint through its Endpoint method, and requests
// also carry a WriteMode.
//
// General requests (general.write, with response):
//
//	Pair                  20 02 key[4]
//	PairKey               20 03
//	Battery               A2
//	Firmware              A1
//	SetDateTime           04 year_be[2] month day hour minute second
//	Reset                 07 mode
//	DisplayFormats        01 distance time_format
//	SetUserInfo           05 00 height 00 weight screen 00 00 goal_be[2] lift A0 00 age gender 00 01 01 28
//	WeatherToday          11 01 type 00 current max min
//	WeatherFollowingDays  11 02 (type 00 max min)x3
//	AlertStart            0F 00 type length utf16be...
//	AlertNext             0F index utf16be...
//	AlertPush             0F FD
//	RecordedSteps         B2 03 01
//
// Data2 requests (data2.write, without response):
//
//	HeartRateDataRequest  18 FA
//	HeartRateEnable       18 01
//	HeartRateDisable      18 02
//	DataRecordedSteps     0A 03 01
//
// Responses are listed with their endpoint in the demux package.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/wristlog/internal/models"
)

var (
	// ErrTypeMismatch means the identifier bytes belong to a different type.
	ErrTypeMismatch = errors.New("protocol: type mismatch")
	// ErrMalformed means the identifier matched but the remaining bytes do not fit the layout.
	ErrMalformed = errors.New("protocol: malformed")
)

// Encoder is implemented by every message value.
type Encoder interface {
	Endpoint() Endpoint
	// Append appends the wire form of the message to b.
	Append(b []byte) []byte
}

// Request is an outbound command.
type Request interface {
	Encoder
	WriteMode() WriteMode
}

// Response is implemented by pointers to inbound message types.
type Response interface {
	Endpoint() Endpoint
	UnmarshalBinary(data []byte) error
}

// Encode returns the wire bytes of m.
func Encode(m Encoder) []byte {
	return m.Append(nil)
}

// Decode parses data as a T. The whole buffer must be consumed.
func Decode[T any, P interface {
	*T
	Response
}](data []byte) (T, error) {
	var v T
	if err := P(&v).UnmarshalBinary(data); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// Name returns the unqualified type name of a message value or pointer.
func Name(m any) string {
	return strings.TrimPrefix(strings.TrimPrefix(fmt.Sprintf("%T", m), "*"), "protocol.")
}

// decoder reads fields in order and records the first error.
// Reads after an error return zero values.
type decoder struct {
	name string
	buf  []byte
	off  int
	err  error
}

func newDecoder(name string, buf []byte) *decoder {
	return &decoder{name: name, buf: buf}
}

func (d *decoder) mismatch() {
	d.err = fmt.Errorf("%w: %s", ErrTypeMismatch, d.name)
}

func (d *decoder) malformed(format string, args ...any) {
	d.err = fmt.Errorf("%w: %s: %s", ErrMalformed, d.name, fmt.Sprintf(format, args...))
}

// id checks the command byte. An empty buffer is a mismatch.
func (d *decoder) id(cmd CommandID) {
	if d.err != nil {
		return
	}
	if d.off >= len(d.buf) || d.buf[d.off] != byte(cmd) {
		d.mismatch()
		return
	}
	d.off++
}

// sub checks a sub-identifier byte. A buffer ending after the command byte is malformed.
func (d *decoder) sub(v byte) {
	if d.err != nil {
		return
	}
	if d.off >= len(d.buf) {
		d.malformed("missing sub-identifier")
		return
	}
	if d.buf[d.off] != v {
		d.mismatch()
		return
	}
	d.off++
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.buf)-d.off < n {
		d.malformed("short buffer: need %d bytes at offset %d, have %d", n, d.off, len(d.buf))
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *decoder) u16be() uint16 {
	if b := d.take(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (d *decoder) array(dst []byte) {
	if b := d.take(len(dst)); b != nil {
		copy(dst, b)
	}
}

func (d *decoder) date() models.Date {
	year := d.u16be()
	month := d.u8()
	day := d.u8()
	return models.NewDate(year, month, day)
}

// rest consumes everything that is left.
func (d *decoder) rest() []byte {
	if d.err != nil {
		return nil
	}
	b := d.buf[d.off:]
	d.off = len(d.buf)
	return b
}

func (d *decoder) finish() error {
	if d.err == nil && d.off != len(d.buf) {
		d.malformed("%d trailing bytes", len(d.buf)-d.off)
	}
	return d.err
}

func readEnum[E enum](d *decoder) E {
	v := E(d.u8())
	if d.err == nil && !v.Valid() {
		d.malformed("unknown %T value 0x%02x", v, uint8(v))
	}
	return v
}

func appendDate(b []byte, dt models.Date) []byte {
	b = binary.BigEndian.AppendUint16(b, dt.Year)
	return append(b, dt.Month, dt.Day)
}
