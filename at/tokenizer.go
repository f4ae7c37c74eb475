package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter is used for tokenizing AT command modem responses. It uses
// the signature of bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// It splits the input by CRLF line endings and drops the terminator.
//
// The atEOF parameter indicates whether any more data will be available.
// When true, any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// ChunkSplitter delivers the raw byte stream in newline-delimited chunks,
// keeping the delimiter in the token. It mirrors a serial driver that raises
// a "data received" event per newline: the consumer gets every byte exactly
// once and does its own framing.
func ChunkSplitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexByte(data, LF); i >= 0 {
		return i + 1, data[0 : i+1], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = ChunkSplitter

// Classify identifies the nature of the modem output
func Classify(line string) ResponseType {
	switch line {
	case OK, ERROR, FAIL:
		return TypeFinal
	case URCWiFiConnected, URCWiFiGotIP, URCWiFiDisconnect:
		return TypeURC
	}

	switch {
	case strings.HasPrefix(line, URCSubRecv),
		strings.HasPrefix(line, URCMQTTConnected),
		strings.HasPrefix(line, URCMQTTDisconnected):
		return TypeURC
	default:
		return TypeData
	}
}
