package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the only supported JWT claims shape for this service.
// Operators are scoped to one business; cross-business visibility is an
// admin role concern, checked server-side.
type Claims struct {
	jwt.RegisteredClaims

	OperatorID string `json:"operator_id"`
	BusinessID string `json:"business_id"`
	Role       string `json:"role"`
}

const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)
