package api

// AdminErrorCode identifies an error returned by the operator HTTP
// surface.
type AdminErrorCode uint8

const (
	InvalidTokenCode        AdminErrorCode = 101
	UnauthorizedCode        AdminErrorCode = 102
	GameStateCode           AdminErrorCode = 103
	InternalServerErrorCode AdminErrorCode = 104
)

type ErrorData struct {
	Code    AdminErrorCode `json:"code"`
	Message string         `json:"message,omitempty"`
	Extra   any            `json:"extra,omitempty"`
	Err     error          `json:"-"`
}

func (e ErrorData) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Err.Error()
}

func (e ErrorData) Unwrap() error {
	return e.Err
}
