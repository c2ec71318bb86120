package models

// ErrorResponse is used in @Failure for error responses.
type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid request"`
	Details string `json:"details,omitempty" example:"quote not found"`
}

// SuccessResponse is used in @Success for generic success.
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Operation completed"`
}

// MessageResponse is the generic response for APIs that return only
// {"message": "..."}.
type MessageResponse struct {
	Message string `json:"message" example:"Quote marked as selected"`
}
