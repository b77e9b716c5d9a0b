package models

// LoginRequest represents the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is always returned with HTTP 200; Success tells the caller
// whether the identity provider accepted the credentials.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// Employee roles as stored in the employees table
const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleHR       = "HR"
	RoleEmployee = "EMPLOYEE"
)

// Permissions carried as realm or client roles in access tokens
const (
	PermReadEmployees   = "READ_EMPLOYEES"
	PermCreateEmployees = "CREATE_EMPLOYEES"
	PermUpdateEmployees = "UPDATE_EMPLOYEES"
	PermDeleteEmployees = "DELETE_EMPLOYEES"
	PermFullAccess      = "FULL_ACCESS"
	PermClientRead      = "CLIENT_READ"
	PermClientWrite     = "CLIENT_WRITE"
)
