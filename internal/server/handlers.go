package server

import (
	"encoding/json"
	"net/http"
)

const invalidInputResponse = "Please provide a valid input."

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response       string  `json:"response"`
	CorrectedInput string  `json:"corrected_input,omitempty"`
	Tag            string  `json:"tag,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

type intentsResponse struct {
	Intents []string `json:"intents"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Chatbot is running."))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Response: invalidInputResponse})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, chatResponse{Response: invalidInputResponse})
		return
	}

	result := s.classifier.Classify(r.Context(), req.Message)
	writeJSON(w, http.StatusOK, chatResponse{
		Response:       result.Response,
		CorrectedInput: result.NormalizedText,
		Tag:            result.Tag,
		Confidence:     result.Confidence,
	})
}

func (s *Server) handleIntents(w http.ResponseWriter, r *http.Request) {
	tags := s.tags.SearchTags(r.URL.Query().Get("q"))
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, intentsResponse{Intents: tags})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
