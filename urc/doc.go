// Package urc extracts +MQTTSUBRECV notifications from accumulated modem
// output and routes their payloads to per-topic handlers.
//
// One processing pass drains every complete record from the buffer into a
// Batch, which keeps only the latest payload per topic, and then calls
// Dispatch once. A topic's handler therefore runs at most once per pass.
package urc
