package models

import (
	"strings"
	"time"
)

// Employee is a row of the employees table. Password holds the stored
// credential (a bcrypt hash, or legacy plaintext) and is never serialized.
type Employee struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	Phone      *string   `json:"phone"`
	Department *string   `json:"department"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// EmployeeResponse is the public shape of an employee.
type EmployeeResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone"`
	Department *string   `json:"department"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (e *Employee) ToResponse() EmployeeResponse {
	return EmployeeResponse{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		Phone:      e.Phone,
		Department: e.Department,
		Role:       e.Role,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// EmployeeFields are the profile fields shared by create and update.
type EmployeeFields struct {
	Name       string  `json:"name" binding:"notblank"`
	Email      string  `json:"email" binding:"notblank,email"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	Role       string  `json:"role" binding:"notblank"`
}

type CreateEmployeeRequest struct {
	EmployeeFields
	Password string `json:"password" binding:"notblank,pwbytes"`
}

// UpdateEmployeeRequest leaves the stored password untouched when Password is blank.
type UpdateEmployeeRequest struct {
	EmployeeFields
	Password string `json:"password" binding:"pwbytes"`
}

// EmployeeFilter holds the optional search criteria; blank fields are ignored.
type EmployeeFilter struct {
	Name       string `form:"name"`
	Email      string `form:"email"`
	Department string `form:"department"`
	Role       string `form:"role"`
}

func (f EmployeeFilter) IsBlank() bool {
	return strings.TrimSpace(f.Name) == "" &&
		strings.TrimSpace(f.Email) == "" &&
		strings.TrimSpace(f.Department) == "" &&
		strings.TrimSpace(f.Role) == ""
}
