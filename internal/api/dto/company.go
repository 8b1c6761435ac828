package dto

import "github.com/avolkov/revtrack/internal/database/models"

type CreateCompanyRequest struct {
	Name string `json:"name"`
}

func (r CreateCompanyRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Company name is required"
	}

	return errors
}

type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r InviteRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Role == "" {
		errors["role"] = "Role is required"
	} else if !models.Role(r.Role).Valid() {
		errors["role"] = "Unknown role"
	}

	return errors
}

type AcceptInvitationRequest struct {
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MiddleName string `json:"middle_name,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func (r AcceptInvitationRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if len(r.Password) < 8 {
		errors["password"] = "Password must be at least 8 characters"
	}
	if r.FirstName == "" {
		errors["first_name"] = "First name is required"
	}
	if r.LastName == "" {
		errors["last_name"] = "Last name is required"
	}

	return errors
}

type AddEmployeeRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (r AddEmployeeRequest) Validate() map[string]string {
	return InviteRequest{Email: r.Email, Role: r.Role}.Validate()
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

func (r ChangeRoleRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Role == "" {
		errors["role"] = "Role is required"
	} else if !models.Role(r.Role).Valid() {
		errors["role"] = "Unknown role"
	}

	return errors
}

type InvitationDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	InvitedBy string `json:"invited_by"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
}
