package protocol

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/starford/wristlog/internal/models"
)

// general requests are all written to general.write with response.
type general struct{}

func (general) Endpoint() Endpoint   { return GeneralWrite }
func (general) WriteMode() WriteMode { return WithResponse }

// PairKey is the 4-byte secret the watch binds to.
type PairKey [4]byte

// PairRequest binds the watch to Key.
type PairRequest struct {
	general
	Key PairKey
}

func (m PairRequest) Append(b []byte) []byte {
	b = append(b, byte(CmdPair), subPairSet)
	return append(b, m.Key[:]...)
}

func (m *PairRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("PairRequest", data)
	d.id(CmdPair)
	d.sub(subPairSet)
	d.array(m.Key[:])
	return d.finish()
}

// PairKeyRequest asks for the key the watch is currently bound to.
type PairKeyRequest struct{ general }

func (PairKeyRequest) Append(b []byte) []byte {
	return append(b, byte(CmdPair), subPairCurrentKey)
}

func (m *PairKeyRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("PairKeyRequest", data)
	d.id(CmdPair)
	d.sub(subPairCurrentKey)
	return d.finish()
}

// BatteryRequest asks for the charge level.
type BatteryRequest struct{ general }

func (BatteryRequest) Append(b []byte) []byte { return append(b, byte(CmdBattery)) }

func (m *BatteryRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("BatteryRequest", data)
	d.id(CmdBattery)
	return d.finish()
}

// FirmwareRequest asks for the firmware name.
type FirmwareRequest struct{ general }

func (FirmwareRequest) Append(b []byte) []byte { return append(b, byte(CmdFirmware)) }

func (m *FirmwareRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("FirmwareRequest", data)
	d.id(CmdFirmware)
	return d.finish()
}

// SetDateTimeRequest sets the watch clock.
type SetDateTimeRequest struct {
	general
	Date   models.Date
	Hour   uint8
	Minute uint8
	Second uint8
}

// NewSetDateTimeRequest builds a clock update from t in t's location.
func NewSetDateTimeRequest(t time.Time) SetDateTimeRequest {
	return SetDateTimeRequest{
		Date:   models.DateOf(t),
		Hour:   uint8(t.Hour()),
		Minute: uint8(t.Minute()),
		Second: uint8(t.Second()),
	}
}

func (m SetDateTimeRequest) Append(b []byte) []byte {
	b = append(b, byte(CmdDateTime))
	b = appendDate(b, m.Date)
	return append(b, m.Hour, m.Minute, m.Second)
}

func (m *SetDateTimeRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("SetDateTimeRequest", data)
	d.id(CmdDateTime)
	m.Date = d.date()
	m.Hour = d.u8()
	m.Minute = d.u8()
	m.Second = d.u8()
	return d.finish()
}

// ResetRequest factory-resets the watch.
type ResetRequest struct {
	general
	Mode ResetMode
}

func (m ResetRequest) Append(b []byte) []byte {
	return append(b, byte(CmdReset), byte(m.Mode))
}

func (m *ResetRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("ResetRequest", data)
	d.id(CmdReset)
	m.Mode = readEnum[ResetMode](d)
	return d.finish()
}

// DisplayFormatsRequest configures distance and clock display.
type DisplayFormatsRequest struct {
	general
	Distance   DistanceUnit
	TimeFormat TimeFormat
}

func (m DisplayFormatsRequest) Append(b []byte) []byte {
	return append(b, byte(CmdConfig), byte(m.Distance), byte(m.TimeFormat))
}

func (m *DisplayFormatsRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("DisplayFormatsRequest", data)
	d.id(CmdConfig)
	m.Distance = readEnum[DistanceUnit](d)
	m.TimeFormat = readEnum[TimeFormat](d)
	return d.finish()
}

// UserInfoRequest uploads the wearer profile. The unnamed bytes are sent with the values
// the vendor app uses and ignored on decode.
type UserInfoRequest struct {
	general
	HeightCM      uint8
	WeightKG      uint8
	ScreenTimeout uint8
	StepGoal      uint16
	LiftWrist     LiftWristMode
	Age           uint8
	Gender        Gender
}

func (m UserInfoRequest) Append(b []byte) []byte {
	b = append(b, byte(CmdUserInfo), 0, m.HeightCM, 0, m.WeightKG, m.ScreenTimeout, 0, 0)
	b = binary.BigEndian.AppendUint16(b, m.StepGoal)
	b = append(b, byte(m.LiftWrist), 160, 0, m.Age, byte(m.Gender))
	return append(b, 0, 1, 1, 40)
}

func (m *UserInfoRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("UserInfoRequest", data)
	d.id(CmdUserInfo)
	d.u8()
	m.HeightCM = d.u8()
	d.u8()
	m.WeightKG = d.u8()
	m.ScreenTimeout = d.u8()
	d.take(2)
	m.StepGoal = d.u16be()
	m.LiftWrist = readEnum[LiftWristMode](d)
	d.take(2)
	m.Age = d.u8()
	m.Gender = readEnum[Gender](d)
	d.take(4)
	return d.finish()
}

// WeatherTodayRequest pushes today's forecast. Temperatures are whole degrees.
type WeatherTodayRequest struct {
	general
	Type    WeatherType
	Current uint8
	Max     uint8
	Min     uint8
}

func (m WeatherTodayRequest) Append(b []byte) []byte {
	return append(b, byte(CmdWeather), byte(WeatherToday), byte(m.Type), 0, m.Current, m.Max, m.Min)
}

func (m *WeatherTodayRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("WeatherTodayRequest", data)
	d.id(CmdWeather)
	d.sub(byte(WeatherToday))
	m.Type = readEnum[WeatherType](d)
	d.u8()
	m.Current = d.u8()
	m.Max = d.u8()
	m.Min = d.u8()
	return d.finish()
}

// DayForecast is one day of a following-days forecast.
type DayForecast struct {
	Type WeatherType
	Max  uint8
	Min  uint8
}

// WeatherFollowingDaysRequest pushes the forecast for the next three days.
type WeatherFollowingDaysRequest struct {
	general
	Days [3]DayForecast
}

func (m WeatherFollowingDaysRequest) Append(b []byte) []byte {
	b = append(b, byte(CmdWeather), byte(WeatherFollowingDays))
	for _, f := range m.Days {
		b = append(b, byte(f.Type), 0, f.Max, f.Min)
	}
	return b
}

func (m *WeatherFollowingDaysRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("WeatherFollowingDaysRequest", data)
	d.id(CmdWeather)
	d.sub(byte(WeatherFollowingDays))
	for i := range m.Days {
		m.Days[i].Type = readEnum[WeatherType](d)
		d.u8()
		m.Days[i].Max = d.u8()
		m.Days[i].Min = d.u8()
	}
	return d.finish()
}

// RecordedStepsRequest asks for the stored step history on the general channel.
type RecordedStepsRequest struct{ general }

func (RecordedStepsRequest) Append(b []byte) []byte {
	return append(b, byte(CmdRecordedSteps), subRecordedStepsRequest, recordedStepsRequestArg)
}

func (m *RecordedStepsRequest) UnmarshalBinary(data []byte) error {
	d := newDecoder("RecordedStepsRequest", data)
	d.id(CmdRecordedSteps)
	d.sub(subRecordedStepsRequest)
	d.sub(recordedStepsRequestArg)
	return d.finish()
}

// generalNotify responses arrive on general.notify.
type generalNotify struct{}

func (generalNotify) Endpoint() Endpoint { return GeneralNotify }

// PairKeyResponse carries the key the watch is bound to.
type PairKeyResponse struct {
	generalNotify
	Key PairKey
}

func (m PairKeyResponse) Append(b []byte) []byte {
	b = append(b, byte(CmdPair), subPairCurrentKey)
	return append(b, m.Key[:]...)
}

func (m *PairKeyResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("PairKeyResponse", data)
	d.id(CmdPair)
	d.sub(subPairCurrentKey)
	d.array(m.Key[:])
	return d.finish()
}

// BatteryResponse reports the charge level in percent.
type BatteryResponse struct {
	generalNotify
	Percentage uint8
}

func (m BatteryResponse) Append(b []byte) []byte {
	return append(b, byte(CmdBattery), m.Percentage)
}

func (m *BatteryResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("BatteryResponse", data)
	d.id(CmdBattery)
	m.Percentage = d.u8()
	return d.finish()
}

// SetDateTimeResponse echoes the clock the watch was set to.
type SetDateTimeResponse struct {
	generalNotify
	Date   models.Date
	Hour   uint8
	Minute uint8
	Second uint8
}

func (m SetDateTimeResponse) Append(b []byte) []byte {
	b = append(b, byte(CmdDateTime))
	b = appendDate(b, m.Date)
	return append(b, m.Hour, m.Minute, m.Second)
}

func (m *SetDateTimeResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("SetDateTimeResponse", data)
	d.id(CmdDateTime)
	m.Date = d.date()
	m.Hour = d.u8()
	m.Minute = d.u8()
	m.Second = d.u8()
	return d.finish()
}

// FirmwareResponse carries the NUL-padded firmware name.
type FirmwareResponse struct {
	generalNotify
	Name [13]byte
}

// Version returns the firmware name without padding.
func (m FirmwareResponse) Version() string {
	return string(bytes.TrimRight(m.Name[:], "\x00"))
}

func (m FirmwareResponse) Append(b []byte) []byte {
	b = append(b, byte(CmdFirmware))
	return append(b, m.Name[:]...)
}

func (m *FirmwareResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("FirmwareResponse", data)
	d.id(CmdFirmware)
	d.array(m.Name[:])
	return d.finish()
}

// DevicePulseResponse is a button action pressed on the watch.
type DevicePulseResponse struct {
	generalNotify
	Type DevicePulseType
}

func (m DevicePulseResponse) Append(b []byte) []byte {
	return append(b, byte(CmdDevicePulse), byte(m.Type))
}

func (m *DevicePulseResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("DevicePulseResponse", data)
	d.id(CmdDevicePulse)
	m.Type = readEnum[DevicePulseType](d)
	return d.finish()
}

// SetWeatherResponse acknowledges a weather push.
type SetWeatherResponse struct {
	generalNotify
	Day WeatherDay
}

func (m SetWeatherResponse) Append(b []byte) []byte {
	return append(b, byte(CmdWeather), byte(m.Day))
}

func (m *SetWeatherResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("SetWeatherResponse", data)
	d.id(CmdWeather)
	m.Day = readEnum[WeatherDay](d)
	return d.finish()
}

// HeartRateMenuPeriodicResponse is a live reading while the heart-rate screen is open.
type HeartRateMenuPeriodicResponse struct {
	generalNotify
	Pad       uint8
	HeartRate uint8
}

func (m HeartRateMenuPeriodicResponse) Append(b []byte) []byte {
	return append(b, byte(CmdHeartRateMenu), subMenuInside, m.Pad, m.HeartRate)
}

func (m *HeartRateMenuPeriodicResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateMenuPeriodicResponse", data)
	d.id(CmdHeartRateMenu)
	d.sub(subMenuInside)
	m.Pad = d.u8()
	m.HeartRate = d.u8()
	return d.finish()
}

// HeartRateMenuLeavingResponse is the last reading when the heart-rate screen closes.
type HeartRateMenuLeavingResponse struct {
	generalNotify
	Pad       uint8
	HeartRate uint8
}

func (m HeartRateMenuLeavingResponse) Append(b []byte) []byte {
	return append(b, byte(CmdHeartRateMenu), subMenuLeaving, m.Pad, m.HeartRate)
}

func (m *HeartRateMenuLeavingResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateMenuLeavingResponse", data)
	d.id(CmdHeartRateMenu)
	d.sub(subMenuLeaving)
	m.Pad = d.u8()
	m.HeartRate = d.u8()
	return d.finish()
}

// HeartRateMenuChangeResponse signals the heart-rate screen was opened.
type HeartRateMenuChangeResponse struct{ generalNotify }

func (HeartRateMenuChangeResponse) Append(b []byte) []byte {
	return append(b, byte(CmdHeartRateMenu), subMenuInside)
}

func (m *HeartRateMenuChangeResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("HeartRateMenuChangeResponse", data)
	d.id(CmdHeartRateMenu)
	d.sub(subMenuInside)
	return d.finish()
}

// SilentModeChangeResponse reports a do-not-disturb toggle.
type SilentModeChangeResponse struct {
	generalNotify
	Mode  SilentModeStatus
	Extra [17]byte
}

func (m SilentModeChangeResponse) Append(b []byte) []byte {
	b = append(b, byte(CmdSilentMode), subSilentModeChanged, byte(m.Mode))
	return append(b, m.Extra[:]...)
}

func (m *SilentModeChangeResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("SilentModeChangeResponse", data)
	d.id(CmdSilentMode)
	d.sub(subSilentModeChanged)
	m.Mode = readEnum[SilentModeStatus](d)
	d.array(m.Extra[:])
	return d.finish()
}

// SportStatusResponse reports a workout starting or finishing.
type SportStatusResponse struct {
	generalNotify
	Action SportAction
	Kind   SportKind
	Extra  uint8
}

func (m SportStatusResponse) Append(b []byte) []byte {
	return append(b, byte(CmdSport), byte(m.Action), byte(m.Kind), m.Extra)
}

func (m *SportStatusResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("SportStatusResponse", data)
	d.id(CmdSport)
	m.Action = readEnum[SportAction](d)
	m.Kind = readEnum[SportKind](d)
	m.Extra = d.u8()
	return d.finish()
}

// RecordedStepsEntryResponse is one hour of step history on the general channel.
type RecordedStepsEntryResponse struct {
	generalNotify
	Entry StepsEntry
}

func (m RecordedStepsEntryResponse) Append(b []byte) []byte {
	return m.Entry.append(append(b, byte(CmdRecordedSteps)))
}

func (m *RecordedStepsEntryResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("RecordedStepsEntryResponse", data)
	d.id(CmdRecordedSteps)
	m.Entry.read(d)
	return d.finish()
}

// RecordedStepsEndResponse terminates the step history on the general channel.
type RecordedStepsEndResponse struct {
	generalNotify
	Extra uint8
}

func (m RecordedStepsEndResponse) Append(b []byte) []byte {
	return append(b, byte(CmdRecordedSteps), subRecordedStepsEnd, m.Extra)
}

func (m *RecordedStepsEndResponse) UnmarshalBinary(data []byte) error {
	d := newDecoder("RecordedStepsEndResponse", data)
	d.id(CmdRecordedSteps)
	d.sub(subRecordedStepsEnd)
	m.Extra = d.u8()
	return d.finish()
}
