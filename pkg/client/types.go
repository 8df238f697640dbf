package client

import (
	"encoding/json"
	"fmt"
)

// ChatRequest is the body sent to both the chat and chat stream endpoints.
type ChatRequest struct {
	Message      string `json:"message"`
	EnableSkills bool   `json:"enableSkills"`
	EnableMCP    bool   `json:"enableMCP"`
}

// NewChatRequest returns a request for message with skills enabled and MCP
// disabled.
func NewChatRequest(message string) ChatRequest {
	return ChatRequest{
		Message:      message,
		EnableSkills: true,
		EnableMCP:    false,
	}
}

// HealthResponse is a typed view of the health endpoint's JSON.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ChatResponse is a typed view of the chat endpoint's JSON.
type ChatResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// ParseHealth decodes raw health JSON.
func ParseHealth(raw json.RawMessage) (*HealthResponse, error) {
	h := &HealthResponse{}
	if err := json.Unmarshal(raw, h); err != nil {
		return nil, fmt.Errorf("decoding health response: %w", err)
	}
	return h, nil
}

// ParseChat decodes raw chat JSON.
func ParseChat(raw json.RawMessage) (*ChatResponse, error) {
	r := &ChatResponse{}
	if err := json.Unmarshal(raw, r); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	return r, nil
}

// ErrorResponse is the JSON body the backend sends with a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
