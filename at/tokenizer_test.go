package at_test

import (
	"bufio"
	"strings"
	"testing"

	"i4.energy/across/atmqtt/at"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Simple AT command response",
			input:    "AT\r\n\r\nOK\r\n",
			expected: []string{"AT", "", "OK"},
		},
		{
			name:     "Wi-Fi query",
			input:    "AT+CWJAP?\r\n+CWJAP:\"home\",\"aa:bb:cc:dd:ee:ff\",6,-52\r\nOK\r\n",
			expected: []string{"AT+CWJAP?", "+CWJAP:\"home\",\"aa:bb:cc:dd:ee:ff\",6,-52", "OK"},
		},
		{
			name:     "URC mixed with AT response",
			input:    "AT+MQTTSUB=0,\"a\",1\r\n+MQTTSUBRECV:a,1\r\nOK\r\n",
			expected: []string{"AT+MQTTSUB=0,\"a\",1", "+MQTTSUBRECV:a,1", "OK"},
		},
		{
			name:     "Connection events",
			input:    "WIFI CONNECTED\r\nWIFI GOT IP\r\n+MQTTCONNECTED:0,1,\"broker\",\"1883\",\"\",1\r\n",
			expected: []string{"WIFI CONNECTED", "WIFI GOT IP", "+MQTTCONNECTED:0,1,\"broker\",\"1883\",\"\",1"},
		},
		{
			name:     "Empty lines handling",
			input:    "\r\n\r\nAT\r\nOK\r\n\r\n",
			expected: []string{"", "", "AT", "OK", ""},
		},
		{
			name:     "Incomplete line at EOF",
			input:    "AT\r\nOK\r\n+MQTTSUBRECV:t,partial",
			expected: []string{"AT", "OK", "+MQTTSUBRECV:t,partial"},
		},
		{
			name:     "Bare LF is not a terminator",
			input:    "a\nb\r\n",
			expected: []string{"a\nb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.Splitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %q\nGot: %q",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestChunkSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Keeps the delimiter",
			input:    "+MQTTSUBRECV:a,1\r\n+MQTTSUBRECV:b,2\r\n",
			expected: []string{"+MQTTSUBRECV:a,1\r\n", "+MQTTSUBRECV:b,2\r\n"},
		},
		{
			name:     "Bare LF delimits",
			input:    "x\ny\n",
			expected: []string{"x\n", "y\n"},
		},
		{
			name:     "Tail without delimiter at EOF",
			input:    "OK\r\nmore junk",
			expected: []string{"OK\r\n", "more junk"},
		},
		{
			name:     "Multi-byte payload stays whole",
			input:    "+MQTTSUBRECV:t,\xe4\xbd\xa0\xe5\xa5\xbd\r\n",
			expected: []string{"+MQTTSUBRECV:t,\xe4\xbd\xa0\xe5\xa5\xbd\r\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.ChunkSplitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if strings.Join(tokens, "") != tt.input {
				t.Errorf("chunks do not reassemble the input: %q", tokens)
			}
			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d: %q", len(tt.expected), len(tokens), tokens)
			}
			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected at.ResponseType
	}{
		// Final responses
		{name: "OK response", input: "OK", expected: at.TypeFinal},
		{name: "ERROR response", input: "ERROR", expected: at.TypeFinal},
		{name: "FAIL response", input: "FAIL", expected: at.TypeFinal},

		// URCs
		{name: "Subscription message", input: "+MQTTSUBRECV:t,1", expected: at.TypeURC},
		{name: "MQTT connected", input: "+MQTTCONNECTED:0,1,\"h\",\"1883\",\"\",1", expected: at.TypeURC},
		{name: "MQTT disconnected", input: "+MQTTDISCONNECTED:0", expected: at.TypeURC},
		{name: "Wi-Fi connected", input: "WIFI CONNECTED", expected: at.TypeURC},
		{name: "Wi-Fi got IP", input: "WIFI GOT IP", expected: at.TypeURC},
		{name: "Wi-Fi disconnect", input: "WIFI DISCONNECT", expected: at.TypeURC},

		// Data responses
		{name: "Command echo", input: "AT+CWMODE=1", expected: at.TypeData},
		{name: "Access point query", input: "+CWJAP:\"home\",\"aa:bb\",6,-52", expected: at.TypeData},
		{name: "Busy", input: "busy p...", expected: at.TypeData},
		{name: "OK with suffix", input: "OK!", expected: at.TypeData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := at.Classify(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{name: "Plain AT", got: at.CmdAt, expected: "AT"},
		{name: "Station mode", got: at.CmdStationMode, expected: "AT+CWMODE=1"},
		{name: "Join AP", got: at.JoinAP("home", "s3cret"), expected: `AT+CWJAP="home","s3cret"`},
		{name: "Query AP", got: at.CmdQueryAP, expected: "AT+CWJAP?"},
		{
			name:     "MQTT user config",
			got:      at.MQTTUserConfig("dev-1", "user", "pass"),
			expected: `AT+MQTTUSERCFG=0,1,"dev-1","user","pass",0,0,""`,
		},
		{name: "MQTT connect", got: at.MQTTConnect("broker.local", 1883), expected: `AT+MQTTCONN=0,"broker.local",1883,1`},
		{name: "MQTT subscribe", got: at.MQTTSubscribe("home/temp", 1), expected: `AT+MQTTSUB=0,"home/temp",1`},
		{name: "MQTT publish", got: at.MQTTPublish("home/led", "on"), expected: `AT+MQTTPUB=0,"home/led","on",1,0`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.got)
			}
		})
	}
}

func BenchmarkClassify(b *testing.B) {
	testCases := []string{
		"OK", "ERROR", "+MQTTSUBRECV:t,1", "WIFI GOT IP",
		"+MQTTDISCONNECTED:0", "AT+CWJAP?", "busy p...",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			at.Classify(tc)
		}
	}
}
