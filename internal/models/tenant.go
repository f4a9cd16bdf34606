package models

// Credentials for a single helpdesk login
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"-"`
}

// TenantContext identifies one agency. Built once from configuration.
type TenantContext struct {
	Code        string      `json:"code"`
	DisplayName string      `json:"display_name"`
	Credentials Credentials `json:"-"`
}

// Name returns the display name, falling back to the code
func (t TenantContext) Name() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Code
}
