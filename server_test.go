package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i4.energy/across/atmqtt/modem"
)

type fakeBridge struct {
	published  []string
	subscribed []string
	status     modem.Status
	topics     []string
	err        error
}

func (b *fakeBridge) Publish(_ context.Context, topic, data string) error {
	b.published = append(b.published, topic+"="+data)
	return b.err
}

func (b *fakeBridge) Subscribe(_ context.Context, topic string, qos int) error {
	b.subscribed = append(b.subscribed, fmt.Sprintf("%s@%d", topic, qos))
	return b.err
}

func (b *fakeBridge) Status() modem.Status { return b.status }

func (b *fakeBridge) Topics() []string { return b.topics }

func newTestServer(b *fakeBridge) *Server {
	return &Server{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Bridge: b,
	}
}

func TestHandlePublish(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCalls  []string
	}{
		{name: "ok", body: `{"topic":"home/light","data":"on"}`, wantStatus: http.StatusOK, wantCalls: []string{"home/light=on"}},
		{name: "empty data allowed", body: `{"topic":"t"}`, wantStatus: http.StatusOK, wantCalls: []string{"t="}},
		{name: "missing topic", body: `{"data":"on"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "modem failure", body: `{"topic":"t","data":"x"}`, err: errors.New("write failed"), wantStatus: http.StatusInternalServerError, wantCalls: []string{"t=x"}},
		{name: "closed modem", body: `{"topic":"t","data":"x"}`, err: modem.ErrAlreadyClosed, wantStatus: http.StatusInternalServerError, wantCalls: []string{"t=x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBridge{err: tt.err}
			req := httptest.NewRequest(http.MethodPost, "/publish", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			newTestServer(b).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, b.published)
		})
	}
}

func TestHandleSubscribe(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCalls  []string
	}{
		{name: "ok", body: `{"topic":"home/#","qos":1}`, wantStatus: http.StatusOK, wantCalls: []string{"home/#@1"}},
		{name: "default qos", body: `{"topic":"a"}`, wantStatus: http.StatusOK, wantCalls: []string{"a@0"}},
		{name: "missing topic", body: `{"qos":1}`, wantStatus: http.StatusBadRequest},
		{name: "invalid qos", body: `{"topic":"a","qos":7}`, err: fmt.Errorf("%w: 7", modem.ErrInvalidQoS), wantStatus: http.StatusBadRequest, wantCalls: []string{"a@7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBridge{err: tt.err}
			req := httptest.NewRequest(http.MethodPost, "/subscribe", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			newTestServer(b).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, b.subscribed)
		})
	}
}

func TestHandleStatus(t *testing.T) {
	b := &fakeBridge{
		status: modem.Status{Serial: true, WiFi: true, State: modem.StateIdle},
		topics: []string{"home/door"},
	}
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	newTestServer(b).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"serial":true,"wifi":true,"mqtt":false,"state":"idle","topics":["home/door"]}`, rec.Body.String())
}

func TestHandleStatusNoTopics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	newTestServer(&fakeBridge{}).ServeHTTP(rec, req)

	assert.JSONEq(t, `{"serial":false,"wifi":false,"mqtt":false,"state":"idle","topics":[]}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/publish", nil)
	rec := httptest.NewRecorder()

	newTestServer(&fakeBridge{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
