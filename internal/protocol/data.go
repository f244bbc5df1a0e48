package protocol

import (
	"encoding/binary"

	"github.com/starford/wristlog/internal/models"
)

// StepsEntry is one hour of step history. Counts are the steps added since the previous
// entry; the minute fields hold the last minute each kind was updated.
type StepsEntry struct {
	Date           models.Date
	Hour           uint8
	NewTotal       uint16
	Extra1         uint8
	LastRunMinute  uint8
	Extra2         uint8
	NewRun         uint16
	Extra3         uint8
	LastWalkMinute uint8
	Extra4         uint8
	NewWalk        uint16
}

func (e StepsEntry) append(b []byte) []byte {
	b = appendDate(b, e.Date)
	b = append(b, e.Hour)
	b = binary.BigEndian.AppendUint16(b, e.NewTotal)
	b = append(b, e.Extra1, e.LastRunMinute, e.Extra2)
	b = binary.BigEndian.AppendUint16(b, e.NewRun)
	b = append(b, e.Extra3, e.LastWalkMinute, e.Extra4)
	return binary.BigEndian.AppendUint16(b, e.NewWalk)
}

func (e *StepsEntry) read(d *decoder) {
	e.Date = d.date()
	e.Hour = d.u8()
	e.NewTotal = d.u16be()
	e.Extra1 = d.u8()
	e.LastRunMinute = d.u8()
	e.Extra2 = d.u8()
	e.NewRun = d.u16be()
	e.Extra3 = d.u8()
	e.LastWalkMinute = d.u8()
	e.Extra4 = d.u8()
	e.NewWalk = d.u16be()
}

// data2 requests are written to data2.write without response.
type data2 struct{}

func (data2) Endpoint() Endpoint   { return Data2Write }
func (data2) WriteMode() WriteMode { return WithoutResponse }

// HeartRateDataRequest asks for today's heart-rate history.
type HeartRateDataRequest struct{ data2 }

func (HeartRateDataRequest) Append(b []byte) []byte {
	return append(b, byte(CmdHeartRate), subHeartRateRequest)
}

func (m *HeartRateDataRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateDataRequest", data)
	d.id(CmdHeartRate)
	d.sub(subHeartRateRequest)
	return d.finish()
}

// HeartRateEnableRequest turns periodic heart-rate sampling on.
type HeartRateEnableRequest struct{ data2 }

func (HeartRateEnableRequest) Append(b []byte) []byte {
	return append(b, byte(CmdHeartRate), subHeartRateEnable)
}

func (m *HeartRateEnableRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateEnableRequest", data)
	d.id(CmdHeartRate)
	d.sub(subHeartRateEnable)
	return d.finish()
}

// HeartRateDisableRequest turns periodic heart-rate sampling off.
type HeartRateDisableRequest struct{ data2 }

func (HeartRateDisableRequest) Append(b []byte) []byte {
	return append(b, byte(CmdHeartRate), subHeartRateDisable)
}

func (m *HeartRateDisableRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateDisableRequest", data)
	d.id(CmdHeartRate)
	d.sub(subHeartRateDisable)
	return d.finish()
}

// DataRecordedStepsRequest asks for the stored step history on the data channel.
type DataRecordedStepsRequest struct{ data2 }

func (DataRecordedStepsRequest) Append(b []byte) []byte {
	return append(b, byte(CmdDataRecordedSteps), subRecordedStepsRequest, recordedStepsRequestArg)
}

func (m *DataRecordedStepsRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("DataRecordedStepsRequest", data)
	d.id(CmdDataRecordedSteps)
	d.sub(subRecordedStepsRequest)
	d.sub(recordedStepsRequestArg)
	return d.finish()
}

// data2Notify responses arrive on data2.notify.
type data2Notify struct{}

func (data2Notify) Endpoint() Endpoint { return Data2Notify }

// HeartRateTodayResponse is a rollup for the period ending at Hour:Minute.
type HeartRateTodayResponse struct {
	data2Notify
	Date   models.Date
	Hour   uint8
	Minute uint8
	Max    uint8
	Min    uint8
	Avg    uint8
}

func (m HeartRateTodayResponse) Append(b []byte) []byte {
	return appendRollup(append(b, byte(CmdHeartRate), subHeartRateToday), m.Date, m.Hour, m.Minute, m.Max, m.Min, m.Avg)
}

func (m *HeartRateTodayResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateTodayResponse", data)
	d.id(CmdHeartRate)
	d.sub(subHeartRateToday)
	m.Date, m.Hour, m.Minute, m.Max, m.Min, m.Avg = readRollup(d)
	return d.finish()
}

// HeartRateTodayAltResponse is the rollup as sent under the alternate command byte.
type HeartRateTodayAltResponse struct {
	data2Notify
	Date   models.Date
	Hour   uint8
	Minute uint8
	Max    uint8
	Min    uint8
	Avg    uint8
}

func (m HeartRateTodayAltResponse) Append(b []byte) []byte {
	return appendRollup(append(b, byte(CmdHeartRateAlt), subHeartRateToday), m.Date, m.Hour, m.Minute, m.Max, m.Min, m.Avg)
}

func (m *HeartRateTodayAltResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateTodayAltResponse", data)
	d.id(CmdHeartRateAlt)
	d.sub(subHeartRateToday)
	m.Date, m.Hour, m.Minute, m.Max, m.Min, m.Avg = readRollup(d)
	return d.finish()
}

func appendRollup(b []byte, date models.Date, hour, minute, hi, lo, avg uint8) []byte {
	b = appendDate(b, date)
	return append(b, hour, minute, hi, lo, avg)
}

func readRollup(d *decoder) (date models.Date, hour, minute, hi, lo, avg uint8) {
	date = d.date()
	hour = d.u8()
	minute = d.u8()
	hi = d.u8()
	lo = d.u8()
	avg = d.u8()
	return
}

// HeartRateEndResponse terminates the heart-rate history.
type HeartRateEndResponse struct {
	data2Notify
	Extra uint8
}

func (m HeartRateEndResponse) Append(b []byte) []byte {
	return append(b, byte(CmdHeartRate), subHeartRateEnd, m.Extra)
}

func (m *HeartRateEndResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateEndResponse", data)
	d.id(CmdHeartRate)
	d.sub(subHeartRateEnd)
	m.Extra = d.u8()
	return d.finish()
}

// HeartRateSamplesPerHour is the number of readings in a day-hour batch.
const HeartRateSamplesPerHour = 12

// HeartRateDayHourResponse carries the readings of one hour, ten minutes apart starting at
// Hour:00. It has no sub-identifier; the year's high byte follows the command byte.
type HeartRateDayHourResponse struct {
	data2Notify
	Date       models.Date
	Hour       uint8
	HeartRates [HeartRateSamplesPerHour]uint8
}

func (m HeartRateDayHourResponse) Append(b []byte) []byte {
	b = appendDate(append(b, byte(CmdHeartRate)), m.Date)
	b = append(b, m.Hour)
	return append(b, m.HeartRates[:]...)
}

func (m *HeartRateDayHourResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateDayHourResponse", data)
	d.id(CmdHeartRate)
	m.Date = d.date()
	m.Hour = d.u8()
	d.array(m.HeartRates[:])
	return d.finish()
}

// HeartRatePeriodicResponse is a single instantaneous reading.
type HeartRatePeriodicResponse struct {
	data2Notify
	Date      models.Date
	Hour      uint8
	Minute    uint8
	HeartRate uint8
}

func (m HeartRatePeriodicResponse) Append(b []byte) []byte {
	b = appendDate(append(b, byte(CmdHeartRate), subHeartRatePeriodic), m.Date)
	return append(b, m.Hour, m.Minute, m.HeartRate)
}

func (m *HeartRatePeriodicResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRatePeriodicResponse", data)
	d.id(CmdHeartRate)
	d.sub(subHeartRatePeriodic)
	m.Date = d.date()
	m.Hour = d.u8()
	m.Minute = d.u8()
	m.HeartRate = d.u8()
	return d.finish()
}

// HeartRatePeriodicAltResponse is the instantaneous reading under the alternate command byte.
type HeartRatePeriodicAltResponse struct {
	data2Notify
	Date      models.Date
	Hour      uint8
	Minute    uint8
	HeartRate uint8
}

func (m HeartRatePeriodicAltResponse) Append(b []byte) []byte {
	b = appendDate(append(b, byte(CmdHeartRateAlt), subHeartRatePeriodic), m.Date)
	return append(b, m.Hour, m.Minute, m.HeartRate)
}

func (m *HeartRatePeriodicAltResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRatePeriodicAltResponse", data)
	d.id(CmdHeartRateAlt)
	d.sub(subHeartRatePeriodic)
	m.Date = d.date()
	m.Hour = d.u8()
	m.Minute = d.u8()
	m.HeartRate = d.u8()
	return d.finish()
}

// HeartRateEnableResponse acknowledges HeartRateEnableRequest.
type HeartRateEnableResponse struct{ data2Notify }

func (HeartRateEnableResponse) Append(b []byte) []byte {
	return append(b, byte(CmdHeartRate), subHeartRateEnable)
}

func (m *HeartRateEnableResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateEnableResponse", data)
	d.id(CmdHeartRate)
	d.sub(subHeartRateEnable)
	return d.finish()
}

// HeartRateDisableResponse acknowledges HeartRateDisableRequest.
type HeartRateDisableResponse struct{ data2Notify }

func (HeartRateDisableResponse) Append(b []byte) []byte {
	return append(b, byte(CmdHeartRate), subHeartRateDisable)
}

func (m *HeartRateDisableResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateDisableResponse", data)
	d.id(CmdHeartRate)
	d.sub(subHeartRateDisable)
	return d.finish()
}

// StepsResponse is a live step counter update.
type StepsResponse struct {
	data2Notify
	Date     models.Date
	Hour     uint8
	Minute   uint8
	NewSteps uint8
	Extra    [10]byte
}

func (m StepsResponse) Append(b []byte) []byte {
	b = appendDate(append(b, byte(CmdSteps)), m.Date)
	b = append(b, m.Hour, m.Minute, m.NewSteps)
	return append(b, m.Extra[:]...)
}

func (m *StepsResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("StepsResponse", data)
	d.id(CmdSteps)
	m.Date = d.date()
	m.Hour = d.u8()
	m.Minute = d.u8()
	m.NewSteps = d.u8()
	d.array(m.Extra[:])
	return d.finish()
}

// StepsAltResponse is a step history entry under the alternate command byte.
type StepsAltResponse struct {
	data2Notify
	Entry StepsEntry
}

func (m StepsAltResponse) Append(b []byte) []byte {
	return m.Entry.append(append(b, byte(CmdStepsAlt)))
}

func (m *StepsAltResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("StepsAltResponse", data)
	d.id(CmdStepsAlt)
	m.Entry.read(d)
	return d.finish()
}

// HeartRateMenuDataResponse is a live reading from the heart-rate screen on the data channel.
type HeartRateMenuDataResponse struct {
	data2Notify
	Pad       uint8
	HeartRate uint8
}

func (m HeartRateMenuDataResponse) Append(b []byte) []byte {
	return append(b, byte(CmdDataHeartRateMenu), subMenuInside, m.Pad, m.HeartRate)
}

func (m *HeartRateMenuDataResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateMenuDataResponse", data)
	d.id(CmdDataHeartRateMenu)
	d.sub(subMenuInside)
	m.Pad = d.u8()
	m.HeartRate = d.u8()
	return d.finish()
}

// HeartRateMenuMoveDownResponse signals scrolling inside the heart-rate screen.
type HeartRateMenuMoveDownResponse struct{ data2Notify }

func (HeartRateMenuMoveDownResponse) Append(b []byte) []byte {
	return append(b, byte(CmdDataHeartRateMenu), subMenuInside)
}

func (m *HeartRateMenuMoveDownResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateMenuMoveDownResponse", data)
	d.id(CmdDataHeartRateMenu)
	d.sub(subMenuInside)
	return d.finish()
}

// DevicePulseAltResponse is a button action reported on the data channel.
type DevicePulseAltResponse struct {
	data2Notify
	Type DevicePulseType
}

func (m DevicePulseAltResponse) Append(b []byte) []byte {
	return append(b, byte(CmdDevicePulseAlt), byte(m.Type))
}

func (m *DevicePulseAltResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("DevicePulseAltResponse", data)
	d.id(CmdDevicePulseAlt)
	m.Type = readEnum[DevicePulseType](d)
	return d.finish()
}

// DataRecordedStepsEntryResponse is one hour of step history on the data channel.
type DataRecordedStepsEntryResponse struct {
	data2Notify
	Entry StepsEntry
}

func (m DataRecordedStepsEntryResponse) Append(b []byte) []byte {
	return m.Entry.append(append(b, byte(CmdDataRecordedSteps)))
}

func (m *DataRecordedStepsEntryResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("DataRecordedStepsEntryResponse", data)
	d.id(CmdDataRecordedSteps)
	m.Entry.read(d)
	return d.finish()
}

// DataRecordedStepsEndResponse terminates the step history on the data channel.
type DataRecordedStepsEndResponse struct {
	data2Notify
	Extra uint8
}

func (m DataRecordedStepsEndResponse) Append(b []byte) []byte {
	return append(b, byte(CmdDataRecordedSteps), subRecordedStepsEnd, m.Extra)
}

func (m *DataRecordedStepsEndResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("DataRecordedStepsEndResponse", data)
	d.id(CmdDataRecordedSteps)
	d.sub(subRecordedStepsEnd)
	m.Extra = d.u8()
	return d.finish()
}
