package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PayloadMIME is the custom drag data key carrying a JSON Payload
const PayloadMIME = "application/webcanvas-payload"

// PayloadType is what a drag gesture was classified as
type PayloadType string

const (
	PayloadText    PayloadType = "text"
	PayloadImage   PayloadType = "image"
	PayloadLink    PayloadType = "link"
	PayloadUnknown PayloadType = "unknown"
)

// Payload describes what the user dragged, before it becomes a Node.
// It is produced once per gesture and consumed at most once.
type Payload struct {
	SourceURL   string      `json:"sourceUrl"`
	SourceTitle string      `json:"sourceTitle"`
	SourceIcon  string      `json:"sourceIcon,omitempty"`
	Type        PayloadType `json:"type"`
	Content     *string     `json:"content"`
	LinkTitle   string      `json:"linkTitle,omitempty"`
}

// HasContent reports whether the payload carries usable content
func (p *Payload) HasContent() bool {
	return p.Content != nil && *p.Content != ""
}

// ContentString returns the content or an empty string
func (p *Payload) ContentString() string {
	if p.Content == nil {
		return ""
	}
	return *p.Content
}

// Encode returns the JSON wire form of the payload
func (p *Payload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(b), nil
}

// DecodePayload parses the JSON wire form of a payload
func DecodePayload(raw string) (*Payload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty payload")
	}

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}

	switch p.Type {
	case PayloadText, PayloadImage, PayloadLink, PayloadUnknown:
	default:
		return nil, fmt.Errorf("invalid payload type: %q", p.Type)
	}

	return &p, nil
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
