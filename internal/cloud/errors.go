package cloud

import (
	"errors"

	"github.com/aws/smithy-go"
)

// isErrorCode reports whether err is an AWS API error carrying the given
// error code, per the smithy-go structured error convention.
func isErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == code
	}
	return false
}
