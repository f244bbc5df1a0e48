package protocol

import "github.com/google/uuid"

// DeviceName is the advertised local name of the watch.
const DeviceName = "Haylou Smart Watch 2"

// MaxWriteSize is the largest payload the watch accepts in a single write.
const MaxWriteSize = 48

// Endpoint is a GATT characteristic addressed by its service and characteristic UUIDs.
// Endpoints are comparable and usable as map keys.
type Endpoint struct {
	Name           string
	Service        uuid.UUID
	Characteristic uuid.UUID
}

func (e Endpoint) String() string { return e.Name }

func bluetoothUUID(short string) uuid.UUID {
	return uuid.MustParse("0000" + short + "-0000-1000-8000-00805F9B34FB")
}

var (
	ServiceGeneral = bluetoothUUID("55FF")
	ServiceData1   = bluetoothUUID("56FF")
	ServiceData2   = bluetoothUUID("60FF")
	ServiceData3   = bluetoothUUID("61FF")
)

var (
	GeneralWrite     = Endpoint{Name: "general.write", Service: ServiceGeneral, Characteristic: bluetoothUUID("33F1")}
	GeneralNotify    = Endpoint{Name: "general.notify", Service: ServiceGeneral, Characteristic: bluetoothUUID("33F2")}
	GeneralWriteAlt  = Endpoint{Name: "general.write2", Service: ServiceGeneral, Characteristic: bluetoothUUID("B003")}
	GeneralNotifyAlt = Endpoint{Name: "general.notify2", Service: ServiceGeneral, Characteristic: bluetoothUUID("B004")}
	Data1Write       = Endpoint{Name: "data1.write", Service: ServiceData1, Characteristic: bluetoothUUID("34F1")}
	Data1Notify      = Endpoint{Name: "data1.notify", Service: ServiceData1, Characteristic: bluetoothUUID("34F2")}
	Data2Write       = Endpoint{Name: "data2.write", Service: ServiceData2, Characteristic: bluetoothUUID("6001")}
	Data2Notify      = Endpoint{Name: "data2.notify", Service: ServiceData2, Characteristic: bluetoothUUID("6002")}
	Data3Write       = Endpoint{Name: "data3.write", Service: ServiceData3, Characteristic: bluetoothUUID("6101")}
	Data3Notify      = Endpoint{Name: "data3.notify", Service: ServiceData3, Characteristic: bluetoothUUID("6102")}
)

// Endpoints returns every known endpoint.
func Endpoints() []Endpoint {
	return []Endpoint{
		GeneralWrite, GeneralNotify, GeneralWriteAlt, GeneralNotifyAlt,
		Data1Write, Data1Notify, Data2Write, Data2Notify, Data3Write, Data3Notify,
	}
}

// EndpointByName looks an endpoint up by its Name.
func EndpointByName(name string) (Endpoint, bool) {
	for _, ep := range Endpoints() {
		if ep.Name == name {
			return ep, true
		}
	}
	return Endpoint{}, false
}

// WriteMode is the GATT write flavour a request must be sent with.
type WriteMode uint8

const (
	WithResponse WriteMode = iota
	WithoutResponse
)

func (m WriteMode) String() string {
	if m == WithoutResponse {
		return "without-response"
	}
	return "with-response"
}
