package common

import (
	"fmt"
	"os"
	"strings"

	"aktis-collector-wonderdesk/internal/models"
)

// LookupFunc reads one environment variable
type LookupFunc func(key string) string

// LoadTenants builds the tenant list from the process environment
func LoadTenants() ([]models.TenantContext, error) {
	return LoadTenantsFrom(os.Getenv)
}

// LoadTenantsFrom builds the tenant list from AGENCIES=A,B or COMPANY=X.
// Each code reads {CODE}_NOMBRE, {CODE}_USUARIO and {CODE}_PASSWORD.
func LoadTenantsFrom(lookup LookupFunc) ([]models.TenantContext, error) {
	var codes []string
	if raw := strings.TrimSpace(lookup("AGENCIES")); raw != "" {
		for _, code := range strings.Split(raw, ",") {
			if code = strings.TrimSpace(code); code != "" {
				codes = append(codes, code)
			}
		}
	} else if company := strings.TrimSpace(lookup("COMPANY")); company != "" {
		codes = append(codes, company)
	}

	if len(codes) == 0 {
		return nil, NewConfigurationError("TENANTS_MISSING", "no agencies configured (set AGENCIES=A,B or COMPANY=X)")
	}

	seen := make(map[string]bool, len(codes))
	tenants := make([]models.TenantContext, 0, len(codes))
	var missing []string

	for _, code := range codes {
		key := strings.ToUpper(code)
		if seen[key] {
			continue
		}
		seen[key] = true

		tenant := models.TenantContext{
			Code:        code,
			DisplayName: firstNonEmpty(lookup, key+"_NOMBRE", key+"_NOM"),
			Credentials: models.Credentials{
				Username: firstNonEmpty(lookup, key+"_USUARIO", key+"_USERNAME"),
				Password: lookup(key + "_PASSWORD"),
			},
		}
		if tenant.DisplayName == "" {
			tenant.DisplayName = code
		}

		if tenant.Credentials.Username == "" || tenant.Credentials.Password == "" {
			missing = append(missing, code)
		}
		tenants = append(tenants, tenant)
	}

	if len(missing) > 0 {
		return nil, NewConfigurationError("CREDENTIALS_MISSING", "missing username or password").
			WithDetails(fmt.Sprintf("agencies: %s", strings.Join(missing, ", "))).
			WithContext("agencies", missing)
	}

	return tenants, nil
}

func firstNonEmpty(lookup LookupFunc, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			return v
		}
	}
	return ""
}
