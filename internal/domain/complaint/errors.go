package complaint

import "civicdesk/internal/errs"

var (
	ErrInvalidIntake       = errs.New(errs.KindValidation, "invalid complaint intake")
	ErrUnknownStatus       = errs.New(errs.KindValidation, "unknown complaint status")
	ErrObservationRequired = errs.New(errs.KindValidation, "observation is required")
	ErrInvalidTrackingCode = errs.New(errs.KindValidation, "invalid tracking code")
	ErrIllegalTransition   = errs.New(errs.KindIllegalTransition, "illegal status transition")
)
