// Package dto provides Data Transfer Objects for API requests/responses.
//
// Floor terminals send numbers as strings and booleans as 0/1, so request
// fields use the loose types of core/types and are converted to domain
// values here.
package dto

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// MessageResponse is the body of reset-style endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}
