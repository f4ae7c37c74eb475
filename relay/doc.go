// Package relay republishes messages received through the modem to an
// upstream MQTT broker.
//
// The modem's own MQTT session only reaches handlers inside this process.
// A Relay copies each message to "<prefix>/<topic>" on a second broker
// using QoS 0, not retained.
package relay
