package api

import "github.com/UserUnknownFactor/psbtool/pkg/psb"

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}

type ErrorBody struct {
	Error ResponseError `json:"error"`
}

// InspectResponse describes an uploaded container.
type InspectResponse struct {
	ID string `json:"id,omitempty"`
	psb.Summary
}

// ExtractResponse carries the strings of a container in reading order.
// The container stays available under ID for a later apply.
type ExtractResponse struct {
	ID        string   `json:"id"`
	Object    string   `json:"object"`
	CreatedAt int64    `json:"created_at"`
	Strings   []string `json:"strings"`
	Embedded  bool     `json:"embedded"`
}

// ApplyRequest rewrites a container's strings. Exactly one of ID or
// Container must be set; Container is the base64 encoded file.
type ApplyRequest struct {
	ID        string   `json:"id,omitempty"`
	Container []byte   `json:"container,omitempty"`
	Strings   []string `json:"strings"`

	// Compress overrides the server's envelope policy: auto, always or never.
	Compress string `json:"compress,omitempty"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
