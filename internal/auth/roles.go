package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tickhawk/helpdesk/internal/domain"
)

// RequireCustomer ensures a customer is authenticated.
func RequireCustomer() fiber.Handler {
	return requireRole("customer required", domain.RoleCustomer)
}

// RequireStaff ensures an agent or admin is authenticated.
func RequireStaff() fiber.Handler {
	return requireRole("staff role required", domain.RoleAgent, domain.RoleAdmin)
}

// RequireAdmin ensures an admin is authenticated.
func RequireAdmin() fiber.Handler {
	return requireRole("admin role required", domain.RoleAdmin)
}

func requireRole(message string, allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if _, exists := allowedSet[identity.Role()]; !exists {
			return fiber.NewError(fiber.StatusForbidden, message)
		}
		return c.Next()
	}
}
