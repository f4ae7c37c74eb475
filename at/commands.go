package at

import "fmt"

// Commands without arguments.
const (
	CmdAt          = "AT"
	CmdStationMode = "AT+CWMODE=1"
	CmdQueryAP     = "AT+CWJAP?"
)

// linkID is the MQTT link the ESP-AT firmware uses; only link 0 exists.
const linkID = 0

// JoinAP returns the command that associates the station with an access point.
func JoinAP(ssid, password string) string {
	return fmt.Sprintf(`AT+CWJAP="%s","%s"`, ssid, password)
}

// MQTTUserConfig returns the MQTT user configuration command. The scheme is
// fixed to 1 (MQTT over TCP) with no certificate and an empty path.
func MQTTUserConfig(clientID, username, password string) string {
	return fmt.Sprintf(`AT+MQTTUSERCFG=%d,1,"%s","%s","%s",0,0,""`, linkID, clientID, username, password)
}

// MQTTConnect returns the command that connects to a broker with reconnect enabled.
func MQTTConnect(server string, port int) string {
	return fmt.Sprintf(`AT+MQTTCONN=%d,"%s",%d,1`, linkID, server, port)
}

// MQTTSubscribe returns the subscribe command.
func MQTTSubscribe(topic string, qos int) string {
	return fmt.Sprintf(`AT+MQTTSUB=%d,"%s",%d`, linkID, topic, qos)
}

// MQTTPublish returns the publish command, always QoS 1 and not retained.
func MQTTPublish(topic, data string) string {
	return fmt.Sprintf(`AT+MQTTPUB=%d,"%s","%s",1,0`, linkID, topic, data)
}
