package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"i4.energy/across/atmqtt/modem"
)

// Bridge is the modem-facing side of the HTTP API.
type Bridge interface {
	Publish(ctx context.Context, topic, data string) error
	Subscribe(ctx context.Context, topic string, qos int) error
	Status() modem.Status
	Topics() []string
}

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger *slog.Logger
	Bridge Bridge
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /publish", s.handlePublish)
	mux.HandleFunc("POST /subscribe", s.handleSubscribe)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// errorStatus maps argument errors to 400 and everything else to 500.
func errorStatus(err error) int {
	if errors.Is(err, modem.ErrInvalidTopic) || errors.Is(err, modem.ErrInvalidQoS) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// handlePublish sends a message through the modem
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	type PublishRequest struct {
		Topic string `json:"topic"`
		Data  string `json:"data"`
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Topic == "" {
		s.sendError(w, "'topic' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Bridge.Publish(r.Context(), req.Topic, req.Data); err != nil {
		s.Logger.Error("Failed to publish", "error", err, "topic", req.Topic)
		s.sendError(w, err.Error(), errorStatus(err))
		return
	}

	s.Logger.Info("Message published", "topic", req.Topic, "data_length", len(req.Data))
	w.WriteHeader(http.StatusOK)
}

// handleSubscribe subscribes the modem to a topic and logs what arrives on it
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	type SubscribeRequest struct {
		Topic string `json:"topic"`
		QoS   int    `json:"qos"`
	}

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Topic == "" {
		s.sendError(w, "'topic' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Bridge.Subscribe(r.Context(), req.Topic, req.QoS); err != nil {
		s.Logger.Error("Failed to subscribe", "error", err, "topic", req.Topic)
		s.sendError(w, err.Error(), errorStatus(err))
		return
	}

	s.Logger.Info("Subscribed", "topic", req.Topic, "qos", req.QoS)
	w.WriteHeader(http.StatusOK)
}

// handleStatus reports the modem's initialisation state and the topics
// with a handler
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type StatusResponse struct {
		modem.Status
		Topics []string `json:"topics"`
	}

	topics := s.Bridge.Topics()
	if topics == nil {
		topics = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{Status: s.Bridge.Status(), Topics: topics})
}
