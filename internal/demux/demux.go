// Package demux classifies notification buffers into protocol responses.
//
// The watch does not tag notifications with a type, so each buffer is tried against the
// responses bound to the endpoint it arrived on, in table order, and the first strict
// decode wins. The order of Default is part of the contract:
//
//	general.notify
//	  1  BatteryResponse              A2 pct
//	  2  PairKeyResponse              20 03 key[4]
//	  3  FirmwareResponse             A1 name[13]
//	  4  SetDateTimeResponse          04 year_be[2] month day hour minute second
//	  5  DevicePulseResponse          D1 type
//	  6  HeartRateMenuPeriodicResponse E5 11 pad hr
//	  7  HeartRateMenuChangeResponse  E5 11
//	  8  HeartRateMenuLeavingResponse E5 00 pad hr
//	  9  RecordedStepsEndResponse     B2 FD extra
//	 10  RecordedStepsEntryResponse   B2 steps_entry[17]
//	 11  SetWeatherResponse           11 day
//	 12  SilentModeChangeResponse     BE 02 mode extra[17]
//	 13  SportStatusResponse          FD action kind extra
//
//	data2.notify
//	  1  HeartRatePeriodicResponse    18 03 date[4] hour minute hr
//	  2  StepsResponse                09 date[4] hour minute steps extra[10]
//	  3  HeartRateTodayResponse       18 04 date[4] hour minute max min avg
//	  4  HeartRateDayHourResponse     18 date[4] hour hr[12]
//	  5  HeartRateEndResponse         18 FD extra
//	  6  DataRecordedStepsEntryResponse 0A steps_entry[17]
//	  7  DataRecordedStepsEndResponse 0A FD extra
//	  8  HeartRateEnableResponse      18 01
//	  9  HeartRateDisableResponse     18 02
//	 10  HeartRateMenuDataResponse    16 11 pad hr
//	 11  HeartRateMenuMoveDownResponse 16 11
//	 12  StepsAltResponse             B1 steps_entry[17]
//	 13  HeartRateTodayAltResponse    F7 04 date[4] hour minute max min avg
//	 14  HeartRatePeriodicAltResponse F7 03 date[4] hour minute hr
//	 15  DevicePulseAltResponse       12 type
//
// steps_entry is date[4] hour total_be[2] x run_minute x run_be[2] x walk_minute x walk_be[2].
package demux

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/starford/wristlog/internal/protocol"
)

// ErrUnrecognized means no candidate for the endpoint claimed the buffer.
var ErrUnrecognized = errors.New("demux: unrecognized notification")

// UndecodedError carries a buffer that could not be classified. Err wraps either
// ErrUnrecognized or protocol.ErrMalformed.
type UndecodedError struct {
	Endpoint protocol.Endpoint
	Raw      []byte
	Err      error
}

func (e *UndecodedError) Error() string {
	return fmt.Sprintf("demux: %s: %v [% x]", e.Endpoint, e.Err, e.Raw)
}

func (e *UndecodedError) Unwrap() error { return e.Err }

// Candidate decodes one response type.
type Candidate struct {
	Name   string
	Decode func(buf []byte) (protocol.Response, error)
}

// For returns the candidate for response type T.
func For[T any, P interface {
	*T
	protocol.Response
}]() Candidate {
	var zero T
	return Candidate{
		Name: protocol.Name(zero),
		Decode: func(buf []byte) (protocol.Response, error) {
			p := P(new(T))
			if err := p.UnmarshalBinary(buf); err != nil {
				return nil, err
			}
			return p, nil
		},
	}
}

// Table maps a notify endpoint to its candidates in priority order.
type Table map[protocol.Endpoint][]Candidate

// Default is the classification table for the LS02.
var Default = Table{
	protocol.GeneralNotify: {
		For[protocol.BatteryResponse](),
		For[protocol.PairKeyResponse](),
		For[protocol.FirmwareResponse](),
		For[protocol.SetDateTimeResponse](),
		For[protocol.DevicePulseResponse](),
		For[protocol.HeartRateMenuPeriodicResponse](),
		For[protocol.HeartRateMenuChangeResponse](),
		For[protocol.HeartRateMenuLeavingResponse](),
		For[protocol.RecordedStepsEndResponse](),
		For[protocol.RecordedStepsEntryResponse](),
		For[protocol.SetWeatherResponse](),
		For[protocol.SilentModeChangeResponse](),
		For[protocol.SportStatusResponse](),
	},
	protocol.Data2Notify: {
		For[protocol.HeartRatePeriodicResponse](),
		For[protocol.StepsResponse](),
		For[protocol.HeartRateTodayResponse](),
		For[protocol.HeartRateDayHourResponse](),
		For[protocol.HeartRateEndResponse](),
		For[protocol.DataRecordedStepsEntryResponse](),
		For[protocol.DataRecordedStepsEndResponse](),
		For[protocol.HeartRateEnableResponse](),
		For[protocol.HeartRateDisableResponse](),
		For[protocol.HeartRateMenuDataResponse](),
		For[protocol.HeartRateMenuMoveDownResponse](),
		For[protocol.StepsAltResponse](),
		For[protocol.HeartRateTodayAltResponse](),
		For[protocol.HeartRatePeriodicAltResponse](),
		For[protocol.DevicePulseAltResponse](),
	},
}

// Endpoints returns the endpoints t has candidates for.
func (t Table) Endpoints() []protocol.Endpoint {
	eps := make([]protocol.Endpoint, 0, len(t))
	for _, ep := range protocol.Endpoints() {
		if _, ok := t[ep]; ok {
			eps = append(eps, ep)
		}
	}
	return eps
}

// Classify returns the first candidate for ep that decodes buf. On failure the error is an
// *UndecodedError holding a copy of buf.
func (t Table) Classify(ep protocol.Endpoint, buf []byte) (protocol.Response, error) {
	var malformed error
	for _, c := range t[ep] {
		res, err := c.Decode(buf)
		if err == nil {
			return res, nil
		}
		if malformed == nil && !errors.Is(err, protocol.ErrTypeMismatch) {
			malformed = err
		}
	}
	cause := ErrUnrecognized
	if malformed != nil {
		cause = malformed
	}
	return nil, &UndecodedError{Endpoint: ep, Raw: bytes.Clone(buf), Err: cause}
}

// Classify uses the Default table.
func Classify(ep protocol.Endpoint, buf []byte) (protocol.Response, error) {
	return Default.Classify(ep, buf)
}
