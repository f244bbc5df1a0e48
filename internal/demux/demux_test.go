package demux_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/wristlog/internal/demux"
	"github.com/starford/wristlog/internal/models"
	"github.com/starford/wristlog/internal/protocol"
)

func TestClassifyDefaultTable(t *testing.T) {
	date := models.NewDate(2024, 1, 31)
	entry := protocol.StepsEntry{Date: date, Hour: 6, NewWalk: 300, LastWalkMinute: 40}

	samples := []protocol.Encoder{
		protocol.BatteryResponse{Percentage: 64},
		protocol.PairKeyResponse{Key: protocol.PairKey{1, 2, 3, 4}},
		protocol.FirmwareResponse{},
		protocol.SetDateTimeResponse{Date: date, Hour: 12},
		protocol.DevicePulseResponse{Type: protocol.PulseHangCall},
		protocol.HeartRateMenuPeriodicResponse{HeartRate: 80},
		protocol.HeartRateMenuChangeResponse{},
		protocol.HeartRateMenuLeavingResponse{HeartRate: 78},
		protocol.RecordedStepsEndResponse{},
		protocol.RecordedStepsEntryResponse{Entry: entry},
		protocol.SetWeatherResponse{Day: protocol.WeatherToday},
		protocol.SilentModeChangeResponse{Mode: protocol.SilentModeOff},
		protocol.SportStatusResponse{Action: protocol.SportFinish, Kind: protocol.SportRowing},
		protocol.HeartRatePeriodicResponse{Date: date, Hour: 9, Minute: 15, HeartRate: 70},
		protocol.StepsResponse{Date: date, NewSteps: 5},
		protocol.HeartRateTodayResponse{Date: date, Max: 120, Min: 50, Avg: 70},
		protocol.HeartRateDayHourResponse{Date: date, Hour: 3},
		protocol.HeartRateEndResponse{},
		protocol.DataRecordedStepsEntryResponse{Entry: entry},
		protocol.DataRecordedStepsEndResponse{},
		protocol.HeartRateEnableResponse{},
		protocol.HeartRateDisableResponse{},
		protocol.HeartRateMenuDataResponse{HeartRate: 88},
		protocol.HeartRateMenuMoveDownResponse{},
		protocol.StepsAltResponse{Entry: entry},
		protocol.HeartRateTodayAltResponse{Date: date},
		protocol.HeartRatePeriodicAltResponse{Date: date},
		protocol.DevicePulseAltResponse{Type: protocol.PulseMusicPrevious},
	}

	for _, sample := range samples {
		t.Run(protocol.Name(sample), func(t *testing.T) {
			res, err := demux.Classify(sample.Endpoint(), protocol.Encode(sample))
			require.NoError(t, err)
			assert.Equal(t, protocol.Name(sample), protocol.Name(res))
			assert.Equal(t, sample.Endpoint(), res.Endpoint())
		})
	}
}

func TestClassifyReturnsDecodedValue(t *testing.T) {
	raw := protocol.Encode(protocol.HeartRatePeriodicResponse{Date: models.NewDate(2024, 2, 2), Hour: 9, Minute: 15, HeartRate: 70})

	res, err := demux.Classify(protocol.Data2Notify, raw)
	require.NoError(t, err)
	periodic, ok := res.(*protocol.HeartRatePeriodicResponse)
	require.True(t, ok)
	assert.Equal(t, uint8(70), periodic.HeartRate)
	assert.Equal(t, uint8(15), periodic.Minute)
}

func TestClassifyUnrecognized(t *testing.T) {
	raw := []byte{0x77, 0x01, 0x02}
	_, err := demux.Classify(protocol.GeneralNotify, raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, demux.ErrUnrecognized)
	assert.NotErrorIs(t, err, protocol.ErrTypeMismatch)

	var undecoded *demux.UndecodedError
	require.True(t, errors.As(err, &undecoded))
	assert.Equal(t, protocol.GeneralNotify, undecoded.Endpoint)
	assert.Equal(t, raw, undecoded.Raw)

	raw[0] = 0
	assert.Equal(t, byte(0x77), undecoded.Raw[0], "raw buffer must be a copy")
}

func TestClassifyEmptyBuffer(t *testing.T) {
	_, err := demux.Classify(protocol.Data2Notify, nil)
	assert.ErrorIs(t, err, demux.ErrUnrecognized)
}

func TestClassifyWrongEndpoint(t *testing.T) {
	raw := protocol.Encode(protocol.BatteryResponse{Percentage: 50})
	_, err := demux.Classify(protocol.Data2Notify, raw)
	assert.ErrorIs(t, err, demux.ErrUnrecognized)

	_, err = demux.Classify(protocol.Data3Notify, raw)
	assert.ErrorIs(t, err, demux.ErrUnrecognized)
}

func TestClassifyMalformed(t *testing.T) {
	// Battery identifier with a trailing byte.
	_, err := demux.Classify(protocol.GeneralNotify, []byte{0xA2, 50, 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrMalformed)
	assert.NotErrorIs(t, err, demux.ErrUnrecognized)

	// Heart-rate command truncated after the date.
	_, err = demux.Classify(protocol.Data2Notify, []byte{0x18, 0x03, 0x07, 0xE8, 1, 1})
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}

// menuOpened decodes the same bytes as HeartRateMenuChangeResponse.
type menuOpened struct{}

func (*menuOpened) Endpoint() protocol.Endpoint { return protocol.GeneralNotify }

func (*menuOpened) UnmarshalBinary(data []byte) error {
	if !bytes.Equal(data, []byte{byte(protocol.CmdHeartRateMenu), 0x11}) {
		return protocol.ErrTypeMismatch
	}
	return nil
}

func TestClassifyAmbiguityFollowsTableOrder(t *testing.T) {
	raw := protocol.Encode(protocol.HeartRateMenuChangeResponse{})

	changeFirst := demux.Table{protocol.GeneralNotify: {
		demux.For[protocol.HeartRateMenuChangeResponse](),
		demux.For[menuOpened](),
	}}
	openedFirst := demux.Table{protocol.GeneralNotify: {
		demux.For[menuOpened](),
		demux.For[protocol.HeartRateMenuChangeResponse](),
	}}

	for range 50 {
		res, err := changeFirst.Classify(protocol.GeneralNotify, raw)
		require.NoError(t, err)
		assert.IsType(t, &protocol.HeartRateMenuChangeResponse{}, res)

		res, err = openedFirst.Classify(protocol.GeneralNotify, raw)
		require.NoError(t, err)
		assert.IsType(t, &menuOpened{}, res)
	}
}

func TestDefaultEndpoints(t *testing.T) {
	assert.Equal(t, []protocol.Endpoint{protocol.GeneralNotify, protocol.Data2Notify}, demux.Default.Endpoints())
}
