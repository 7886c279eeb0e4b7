package config

import "rentalshop-backend/internal/domain"

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityAccess                       // Any staff member of the shop
	SecurityManager                      // Owner or manager only
)

// EndpointSecurityConfig maps "METHOD route-template" to the level it requires.
// Route templates are the gorilla/mux path templates the router registers.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"GET /healthz": SecurityPublic,

	// Fleet
	"POST /api/v1/vehicles/{id}/archive":         SecurityManager,
	"DELETE /api/v1/vehicles/{id}/blocks/{date}": SecurityAccess,

	// Bookings
	"DELETE /api/v1/bookings/{id}": SecurityManager,

	// Reports
	"GET /api/v1/reports/revenue": SecurityManager,
}

// GetSecurityLevel returns the security level for a given method and route
// template. Unknown routes require an access token.
func GetSecurityLevel(method, route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method+" "+route]; exists {
		return level
	}
	return SecurityAccess
}

// Allows reports whether a staff role satisfies the level.
func (l SecurityLevel) Allows(role domain.StaffRole) bool {
	switch l {
	case SecurityPublic, SecurityAccess:
		return true
	case SecurityManager:
		return role.CanDelete()
	}
	return false
}
