package dto

// JobUpdateRequest is the worker-facing transition payload. ErrorCode and
// ErrorMsg are only meaningful for status=failed.
type JobUpdateRequest struct {
	Status    string  `json:"status"`
	ErrorCode *string `json:"error_code,omitempty"`
	ErrorMsg  *string `json:"error_msg,omitempty"`
}

type ClaimRequest struct {
	Key string `json:"key"`
}
