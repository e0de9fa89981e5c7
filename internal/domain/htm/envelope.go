package htm

import "time"

// OperationRequest carries the request-tracking metadata that wraps every
// connections operation coming in over the HTTP surface: a caller-supplied
// or generated request ID and an optional priority hint. It replaces the
// matrix-shaped APIRequest the spatial-pooler surface used; the payload it
// wraps is now a connections DTO defined alongside its handler instead of
// a single generic input type.
type OperationRequest struct {
	RequestID string          `json:"request_id,omitempty"`
	Priority  RequestPriority `json:"priority,omitempty" validate:"omitempty,oneof=low normal high"`
}

// EffectivePriority returns the request's priority, defaulting to normal
// if the caller didn't specify one.
func (r OperationRequest) EffectivePriority() RequestPriority {
	if r.Priority == "" {
		return GetDefaultPriority()
	}
	return r.Priority
}

// IsHighPriority reports whether the request asked for high priority.
func (r OperationRequest) IsHighPriority() bool {
	return r.EffectivePriority() == PriorityHigh
}

// OperationResponse carries the same request ID back out alongside the
// outcome of the operation. Handlers embed it in their own response
// structs next to the operation's actual payload.
type OperationResponse struct {
	RequestID string           `json:"request_id"`
	Status    ProcessingStatus `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Error     *APIError        `json:"error,omitempty"`
}

// NewSuccessEnvelope builds an OperationResponse reporting StatusSuccess.
func NewSuccessEnvelope(requestID string) OperationResponse {
	return OperationResponse{
		RequestID: requestID,
		Status:    StatusSuccess,
		Timestamp: time.Now(),
	}
}

// NewErrorEnvelope builds an OperationResponse reporting StatusFailed with
// the given error attached.
func NewErrorEnvelope(requestID string, err *APIError) OperationResponse {
	return OperationResponse{
		RequestID: requestID,
		Status:    StatusFailed,
		Timestamp: time.Now(),
		Error:     err,
	}
}
