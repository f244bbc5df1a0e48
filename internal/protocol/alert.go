package protocol

import (
	"encoding/binary"
	"unicode/utf16"
)

// MaxAlertUnits is the longest alert text in UTF-16 code units. The start batch announces
// the byte length in a single byte.
const MaxAlertUnits = 127

// AlertStartRequest opens an alert and carries the first part of its text.
type AlertStartRequest struct {
	general
	Type AlertType
	// Length is the byte length of the complete UTF-16 text across all batches.
	Length uint8
	Text   []uint16
}

func (m AlertStartRequest) Append(b []byte) []byte {
	b = append(b, byte(CmdAlert), alertStartIndex, byte(m.Type), m.Length)
	return appendUTF16(b, m.Text)
}

func (m *AlertStartRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("AlertStartRequest", data)
	d.id(CmdAlert)
	d.sub(alertStartIndex)
	m.Type = readEnum[AlertType](d)
	m.Length = d.u8()
	m.Text = readUTF16(d)
	return d.finish()
}

// AlertNextRequest continues the alert text. Index starts at 1.
type AlertNextRequest struct {
	general
	Index uint8
	Text  []uint16
}

func (m AlertNextRequest) Append(b []byte) []byte {
	b = append(b, byte(CmdAlert), m.Index)
	return appendUTF16(b, m.Text)
}

func (m *AlertNextRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("AlertNextRequest", data)
	d.id(CmdAlert)
	if d.err == nil && len(data) > 1 && (data[1] == alertStartIndex || data[1] == alertPushIndex) {
		d.mismatch()
	}
	m.Index = d.u8()
	m.Text = readUTF16(d)
	return d.finish()
}

// AlertPushRequest displays the alert assembled from the previous batches.
type AlertPushRequest struct{ general }

func (AlertPushRequest) Append(b []byte) []byte {
	return append(b, byte(CmdAlert), alertPushIndex)
}

func (m *AlertPushRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("AlertPushRequest", data)
	d.id(CmdAlert)
	d.sub(alertPushIndex)
	return d.finish()
}

// AlertBatches splits text into a start batch, continuation batches and the push record,
// in the order they must be written. Each batch fits in MaxWriteSize. Text beyond
// MaxAlertUnits code units is cut.
func AlertBatches(kind AlertType, text string) []Request {
	units := utf16.Encode([]rune(text))
	if len(units) > MaxAlertUnits {
		units = units[:MaxAlertUnits]
	}

	start := AlertStartRequest{Type: kind, Length: uint8(len(units) * 2)}
	n := min(len(units), (MaxWriteSize-4)/2)
	start.Text, units = units[:n], units[n:]
	reqs := []Request{start}

	for idx := uint8(1); len(units) > 0; idx++ {
		n := min(len(units), (MaxWriteSize-2)/2)
		reqs = append(reqs, AlertNextRequest{Index: idx, Text: units[:n]})
		units = units[n:]
	}
	return append(reqs, AlertPushRequest{})
}

func appendUTF16(b []byte, units []uint16) []byte {
	for _, u := range units {
		b = binary.BigEndian.AppendUint16(b, u)
	}
	return b
}

func readUTF16(d *decoder) []uint16 {
	rest := d.rest()
	if d.err != nil || len(rest) == 0 {
		return nil
	}
	if len(rest)%2 != 0 {
		d.malformed("odd text length %d", len(rest))
		return nil
	}
	units := make([]uint16, len(rest)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(rest[2*i:])
	}
	return units
}
