package services

import (
	"errors"
	"fmt"
	"strings"

	goa "goa.design/goa/v3/pkg"
)

// Error names carried by goa service errors returned from this package
const (
	ErrNameBadRequest = "bad_request"
	ErrNameInternal   = "internal_error"
)

// MissingFieldsError reports required intake keys that were absent or empty
type MissingFieldsError struct {
	*goa.ServiceError
	Missing []string
}

// ============================================================
// Lead Service Error Helpers
// ============================================================

// LeadsMissingFields creates a bad request error listing the missing keys
func LeadsMissingFields(missing []string) *MissingFieldsError {
	err := fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	return &MissingFieldsError{
		ServiceError: goa.NewServiceError(err, ErrNameBadRequest, false, false, false),
		Missing:      missing,
	}
}

// LeadsInternal creates a fault for an unexpected lead processing failure
func LeadsInternal(message string, err error) *goa.ServiceError {
	return goa.NewServiceError(fmt.Errorf("%s: %w", message, err), ErrNameInternal, false, false, true)
}

// IsBadRequest reports whether err is a client error raised by a service
func IsBadRequest(err error) bool {
	var missing *MissingFieldsError
	if errors.As(err, &missing) {
		return true
	}
	var svcErr *goa.ServiceError
	return errors.As(err, &svcErr) && svcErr.Name == ErrNameBadRequest
}
