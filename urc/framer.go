package urc

import (
	"strings"

	"i4.energy/across/atmqtt/at"
)

// Record is one notification taken from the stream.
type Record struct {
	Topic   string
	Payload string
}

// Framer finds +MQTTSUBRECV records in a text buffer. Records end at CRLF.
//
// A record whose terminator has not arrived yet is, by default, extracted
// up to the end of the buffer. HoldPartial instead leaves it in the buffer
// until the terminator shows up.
type Framer struct {
	HoldPartial bool
}

// Next extracts the first record in buf. It returns the buffer remaining
// after the record's terminator. Any text before the marker is dropped
// along with the record. When no record can be extracted ok is false and
// rest is the buffer to keep.
func (f Framer) Next(buf string) (rec Record, rest string, ok bool) {
	start := strings.Index(buf, at.URCSubRecv)
	if start < 0 {
		return Record{}, buf, false
	}

	var raw string
	if end := strings.Index(buf[start:], at.CRLF); end >= 0 {
		raw = buf[start : start+end]
		rest = buf[start+end+len(at.CRLF):]
	} else {
		if f.HoldPartial {
			return Record{}, buf[start:], false
		}
		raw = buf[start:]
		rest = ""
	}

	return parseRecord(raw), rest, true
}

// Drain moves every record in buf into batch and returns what is left.
func (f Framer) Drain(buf string, batch Batch) string {
	for {
		rec, rest, ok := f.Next(buf)
		buf = rest
		if !ok {
			return buf
		}
		batch.Put(rec)
	}
}

// Splice moves every record in buf into batch like Drain, but only the
// records leave the buffer: text before and between them is kept. A command
// waiting for its answer uses it so an earlier "OK" survives a notification
// that arrives after it.
func (f Framer) Splice(buf string, batch Batch) string {
	var kept strings.Builder
	for {
		start := strings.Index(buf, at.URCSubRecv)
		if start < 0 {
			break
		}
		rec, rest, ok := f.Next(buf[start:])
		if !ok {
			break
		}
		kept.WriteString(buf[:start])
		batch.Put(rec)
		buf = rest
	}
	kept.WriteString(buf)
	return kept.String()
}

// parseRecord splits "+MQTTSUBRECV:<topic>,<payload>". The payload keeps any
// further commas. Without a comma the whole body is the topic.
func parseRecord(raw string) Record {
	_, body, _ := strings.Cut(raw, ":")
	topic, payload, _ := strings.Cut(body, ",")
	return Record{Topic: topic, Payload: payload}
}
