package types

// APIResponse is the body the storefront API returns for errors and for
// mutations that carry no resource.
type APIResponse struct {
	Message string `json:"message"`
	Status  bool   `json:"status"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
