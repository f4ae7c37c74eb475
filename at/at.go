package at

const (
	// Terminal Control
	CRLF = "\r\n"
	LF   = '\n'

	// Response Codes
	OK    = "OK"
	ERROR = "ERROR"
	FAIL  = "FAIL"

	// URCs (Unsolicited Result Codes)
	URCSubRecv          = "+MQTTSUBRECV:"
	URCMQTTConnected    = "+MQTTCONNECTED:"
	URCMQTTDisconnected = "+MQTTDISCONNECTED:"
	URCWiFiConnected    = "WIFI CONNECTED"
	URCWiFiGotIP        = "WIFI GOT IP"
	URCWiFiDisconnect   = "WIFI DISCONNECT"
)

type ResponseType int

const (
	TypeFinal ResponseType = iota // OK, ERROR, FAIL
	TypeURC                       // Asynchronous notifications
	TypeData                      // Intermediate command output (+CWJAP:..., echo)
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeURC:
		return "urc"
	case TypeData:
		return "data"
	default:
		return "unknown"
	}
}
