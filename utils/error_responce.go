package utils

// ErrorResponse is a struct for error response. Kind is the stable
// machine-readable classification clients branch on; Message and Error are
// for humans.
type ErrorResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Error   string `json:"error,omitempty"`
}
