package dto

import (
	"registracion/internal/core/types"
	"registracion/internal/domain/operation"
)

// SuspendRequest is the body of the suspension toggle.
type SuspendRequest struct {
	Username string          `json:"username" binding:"required"`
	Password string          `json:"password" binding:"required"`
	Suspend  types.LooseBool `json:"suspend"`
}

// ProcessItem is one operation to open.
type ProcessItem struct {
	OperationID types.LooseString `json:"id" binding:"guid"`
	BatchNumber types.LooseString `json:"nroBatch"`
}

// ProcessRequest is the body of POST /registracion/operaciones/procesar.
type ProcessRequest struct {
	Operations []ProcessItem `json:"operacionesData" binding:"required,min=1,dive"`
}

// ToDomain converts the request into open requests.
func (r ProcessRequest) ToDomain() []operation.OpenRequest {
	out := make([]operation.OpenRequest, len(r.Operations))
	for i, op := range r.Operations {
		out[i] = operation.OpenRequest{
			OperationID: op.OperationID.String(),
			BatchNumber: op.BatchNumber.String(),
		}
	}
	return out
}

// ProcessResponse returns the new group number.
type ProcessResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	MultiOperationID int64  `json:"multiOperacionId"`
}

// SuspendResponse reports the affected operations.
type SuspendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*operation.SuspendResult
}
