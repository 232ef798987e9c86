package records

import "github.com/gear6io/parity/pkg/errors"

var (
	ErrPatientNotFound = errors.MustNewCode("records.patient_not_found")
	ErrInvalidID       = errors.MustNewCode("records.invalid_patient_id")
	ErrBackendFailed   = errors.MustNewCode("records.backend_failed")
)
