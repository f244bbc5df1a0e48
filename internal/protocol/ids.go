package protocol

import "fmt"

// CommandID is the leading byte of every request and response.
type CommandID uint8

// Command identifiers. The Alt and Data variants are the same logical command bound to a
// different endpoint; the watch uses both.
const (
	CmdConfig            CommandID = 0x01
	CmdDateTime          CommandID = 0x04
	CmdUserInfo          CommandID = 0x05
	CmdReset             CommandID = 0x07
	CmdSteps             CommandID = 0x09
	CmdDataRecordedSteps CommandID = 0x0A
	CmdAlert             CommandID = 0x0F
	CmdWeather           CommandID = 0x11
	CmdDevicePulseAlt    CommandID = 0x12
	CmdDataHeartRateMenu CommandID = 0x16
	CmdHeartRate         CommandID = 0x18
	CmdPair              CommandID = 0x20
	CmdFirmware          CommandID = 0xA1
	CmdBattery           CommandID = 0xA2
	CmdStepsAlt          CommandID = 0xB1
	CmdRecordedSteps     CommandID = 0xB2
	CmdSilentMode        CommandID = 0xBE
	CmdDevicePulse       CommandID = 0xD1
	CmdHeartRateMenu     CommandID = 0xE5
	CmdHeartRateAlt      CommandID = 0xF7
	CmdSport             CommandID = 0xFD
)

// Sub-identifiers, the second byte of commands that have sub-operations.
const (
	subPairSet        = 0x02
	subPairCurrentKey = 0x03

	subHeartRateEnable   = 0x01
	subHeartRateDisable  = 0x02
	subHeartRatePeriodic = 0x03
	subHeartRateToday    = 0x04
	subHeartRateRequest  = 0xFA
	subHeartRateEnd      = 0xFD

	subMenuLeaving = 0x00
	subMenuInside  = 0x11

	subSilentModeChanged = 0x02

	subRecordedStepsRequest = 0x03
	subRecordedStepsEnd     = 0xFD
	recordedStepsRequestArg = 0x01

	alertStartIndex = 0x00
	alertPushIndex  = 0xFD
)

// enum is a single-byte enumeration with a checked wire mapping.
type enum interface {
	~uint8
	Valid() bool
}

func enumString[E ~uint8](names map[E]string, v E) string {
	if s, ok := names[v]; ok {
		return s
	}
	return fmt.Sprintf("%T(0x%02x)", v, uint8(v))
}

// ResetMode selects what the watch does after a factory reset.
type ResetMode uint8

const (
	ResetAndReboot   ResetMode = 0x00
	ResetAndPowerOff ResetMode = 0x01
)

var resetModeNames = map[ResetMode]string{
	ResetAndReboot:   "reboot",
	ResetAndPowerOff: "power-off",
}

func (m ResetMode) Valid() bool    { _, ok := resetModeNames[m]; return ok }
func (m ResetMode) String() string { return enumString(resetModeNames, m) }

// DevicePulseType is a button action forwarded by the watch.
type DevicePulseType uint8

const (
	PulseHangCall         DevicePulseType = 2
	PulseMusicPauseResume DevicePulseType = 7
	PulseMusicNext        DevicePulseType = 8
	PulseMusicPrevious    DevicePulseType = 9
	PulseRing             DevicePulseType = 10
)

var devicePulseNames = map[DevicePulseType]string{
	PulseHangCall:         "hang-call",
	PulseMusicPauseResume: "music-pause-resume",
	PulseMusicNext:        "music-next",
	PulseMusicPrevious:    "music-previous",
	PulseRing:             "ring",
}

func (p DevicePulseType) Valid() bool    { _, ok := devicePulseNames[p]; return ok }
func (p DevicePulseType) String() string { return enumString(devicePulseNames, p) }

// TimeFormat is the clock display format.
type TimeFormat uint8

const (
	TimeFormat24h TimeFormat = 1
	TimeFormat12h TimeFormat = 2
)

var timeFormatNames = map[TimeFormat]string{
	TimeFormat24h: "24h",
	TimeFormat12h: "12h",
}

func (f TimeFormat) Valid() bool    { _, ok := timeFormatNames[f]; return ok }
func (f TimeFormat) String() string { return enumString(timeFormatNames, f) }

// DistanceUnit is the distance display unit.
type DistanceUnit uint8

const (
	DistanceMetric   DistanceUnit = 1
	DistanceImperial DistanceUnit = 2
)

var distanceUnitNames = map[DistanceUnit]string{
	DistanceMetric:   "metric",
	DistanceImperial: "imperial",
}

func (u DistanceUnit) Valid() bool    { _, ok := distanceUnitNames[u]; return ok }
func (u DistanceUnit) String() string { return enumString(distanceUnitNames, u) }

// AlertType selects the icon shown with an alert.
type AlertType uint8

const (
	AlertCall       AlertType = 0
	AlertQQ         AlertType = 1
	AlertWeChat     AlertType = 2
	AlertMessage    AlertType = 4
	AlertFacebook   AlertType = 5
	AlertTwitter    AlertType = 6
	AlertWhatsApp   AlertType = 7
	AlertSkype      AlertType = 8
	AlertMessenger  AlertType = 9
	AlertHangouts   AlertType = 10
	AlertLine       AlertType = 11
	AlertLinkedIn   AlertType = 12
	AlertInstagram  AlertType = 13
	AlertViber      AlertType = 14
	AlertKakaoTalk  AlertType = 15
	AlertVK         AlertType = 16
	AlertSnapchat   AlertType = 17
	AlertGooglePlus AlertType = 18
	AlertEmail      AlertType = 19
	AlertFlickr     AlertType = 20
	AlertTumblr     AlertType = 21
	AlertPinterest  AlertType = 22
	AlertYouTube    AlertType = 23
)

var alertTypeNames = map[AlertType]string{
	AlertCall:       "call",
	AlertQQ:         "qq",
	AlertWeChat:     "wechat",
	AlertMessage:    "message",
	AlertFacebook:   "facebook",
	AlertTwitter:    "twitter",
	AlertWhatsApp:   "whatsapp",
	AlertSkype:      "skype",
	AlertMessenger:  "messenger",
	AlertHangouts:   "hangouts",
	AlertLine:       "line",
	AlertLinkedIn:   "linkedin",
	AlertInstagram:  "instagram",
	AlertViber:      "viber",
	AlertKakaoTalk:  "kakaotalk",
	AlertVK:         "vk",
	AlertSnapchat:   "snapchat",
	AlertGooglePlus: "googleplus",
	AlertEmail:      "email",
	AlertFlickr:     "flickr",
	AlertTumblr:     "tumblr",
	AlertPinterest:  "pinterest",
	AlertYouTube:    "youtube",
}

func (a AlertType) Valid() bool    { _, ok := alertTypeNames[a]; return ok }
func (a AlertType) String() string { return enumString(alertTypeNames, a) }

// ParseAlertType maps a name produced by AlertType.String back to its value.
func ParseAlertType(s string) (AlertType, error) {
	for k, v := range alertTypeNames {
		if v == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("protocol: unknown alert type %q", s)
}

// Gender is part of the user profile.
type Gender uint8

const (
	GenderMale   Gender = 1
	GenderFemale Gender = 2
)

var genderNames = map[Gender]string{
	GenderMale:   "male",
	GenderFemale: "female",
}

func (g Gender) Valid() bool    { _, ok := genderNames[g]; return ok }
func (g Gender) String() string { return enumString(genderNames, g) }

// LiftWristMode toggles wake-on-wrist-lift.
type LiftWristMode uint8

const (
	LiftWristOff LiftWristMode = 0
	LiftWristOn  LiftWristMode = 1
)

var liftWristNames = map[LiftWristMode]string{
	LiftWristOff: "off",
	LiftWristOn:  "on",
}

func (m LiftWristMode) Valid() bool    { _, ok := liftWristNames[m]; return ok }
func (m LiftWristMode) String() string { return enumString(liftWristNames, m) }

// WeatherDay selects which forecast a weather command carries.
type WeatherDay uint8

const (
	WeatherToday         WeatherDay = 1
	WeatherFollowingDays WeatherDay = 2
)

var weatherDayNames = map[WeatherDay]string{
	WeatherToday:         "today",
	WeatherFollowingDays: "following-days",
}

func (w WeatherDay) Valid() bool    { _, ok := weatherDayNames[w]; return ok }
func (w WeatherDay) String() string { return enumString(weatherDayNames, w) }

// WeatherType is the forecast icon.
type WeatherType uint8

const (
	WeatherSunny        WeatherType = 1
	WeatherSunnyCloudy  WeatherType = 2
	WeatherCloudy       WeatherType = 3
	WeatherSunnyRainy   WeatherType = 4
	WeatherStormy       WeatherType = 5
	WeatherRainy        WeatherType = 6
	WeatherSlightlyRain WeatherType = 7
	WeatherVeryRainy    WeatherType = 8
	WeatherSnowy        WeatherType = 9
	WeatherSleet        WeatherType = 10
	WeatherFoggy        WeatherType = 11
	WeatherWindy        WeatherType = 12
	WeatherNight        WeatherType = 13
	WeatherCloudyNight  WeatherType = 14
	WeatherRainyNight   WeatherType = 15
)

var weatherTypeNames = map[WeatherType]string{
	WeatherSunny:        "sunny",
	WeatherSunnyCloudy:  "sunny-cloudy",
	WeatherCloudy:       "cloudy",
	WeatherSunnyRainy:   "sunny-rainy",
	WeatherStormy:       "stormy",
	WeatherRainy:        "rainy",
	WeatherSlightlyRain: "slightly-rainy",
	WeatherVeryRainy:    "very-rainy",
	WeatherSnowy:        "snowy",
	WeatherSleet:        "sleet",
	WeatherFoggy:        "foggy",
	WeatherWindy:        "windy",
	WeatherNight:        "night",
	WeatherCloudyNight:  "cloudy-night",
	WeatherRainyNight:   "rainy-night",
}

func (w WeatherType) Valid() bool    { _, ok := weatherTypeNames[w]; return ok }
func (w WeatherType) String() string { return enumString(weatherTypeNames, w) }

// SilentModeStatus is reported when do-not-disturb is toggled on the watch.
type SilentModeStatus uint8

const (
	SilentModeOff SilentModeStatus = 0x0
	SilentModeOn  SilentModeStatus = 0x8
)

var silentModeNames = map[SilentModeStatus]string{
	SilentModeOff: "off",
	SilentModeOn:  "on",
}

func (s SilentModeStatus) Valid() bool    { _, ok := silentModeNames[s]; return ok }
func (s SilentModeStatus) String() string { return enumString(silentModeNames, s) }

// SportAction says whether a workout started or finished.
type SportAction uint8

const (
	SportFinish SportAction = 0x00
	SportStart  SportAction = 0x11
)

var sportActionNames = map[SportAction]string{
	SportFinish: "finish",
	SportStart:  "start",
}

func (a SportAction) Valid() bool    { _, ok := sportActionNames[a]; return ok }
func (a SportAction) String() string { return enumString(sportActionNames, a) }

// SportKind is the workout type.
type SportKind uint8

const (
	SportJogging            SportKind = 1
	SportBiking             SportKind = 2
	SportClimbing           SportKind = 8
	SportFastRunning        SportKind = 9
	SportBasketball         SportKind = 10
	SportFootball           SportKind = 11
	SportSpinning           SportKind = 18
	SportYoga               SportKind = 19
	SportIndoorRunning      SportKind = 21
	SportGymnastics         SportKind = 22
	SportRowing             SportKind = 23
	SportIntegratedTraining SportKind = 25
)

var sportKindNames = map[SportKind]string{
	SportJogging:            "jogging",
	SportBiking:             "biking",
	SportClimbing:           "climbing",
	SportFastRunning:        "fast-running",
	SportBasketball:         "basketball",
	SportFootball:           "football",
	SportSpinning:           "spinning",
	SportYoga:               "yoga",
	SportIndoorRunning:      "indoor-running",
	SportGymnastics:         "gymnastics",
	SportRowing:             "rowing",
	SportIntegratedTraining: "integrated-training",
}

func (k SportKind) Valid() bool    { _, ok := sportKindNames[k]; return ok }
func (k SportKind) String() string { return enumString(sportKindNames, k) }
