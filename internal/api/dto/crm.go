package dto

import "github.com/avolkov/revtrack/internal/database/models"

type ContactInput struct {
	FullName string `json:"full_name"`
	Position string `json:"position,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

type ClientRequest struct {
	Name     string         `json:"name"`
	Notes    string         `json:"notes,omitempty"`
	Contacts []ContactInput `json:"contacts,omitempty"`
}

func (r ClientRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	for _, c := range r.Contacts {
		if c.FullName == "" {
			errors["contacts"] = "Contact full name is required"
			break
		}
	}

	return errors
}

type ProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ClientID    string `json:"client_id,omitempty"`
}

func (r ProjectRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

type OrderRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	ProjectID     string  `json:"project_id,omitempty"`
	Amount        float64 `json:"amount"`
	OrderStatus   string  `json:"order_status,omitempty"`
	PaymentStatus string  `json:"payment_status,omitempty"`
	PaymentType   string  `json:"payment_type,omitempty"`
	PlannedDate   string  `json:"planned_date,omitempty"`
	ActualDate    string  `json:"actual_date,omitempty"`
}

func (r OrderRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.Amount < 0 {
		errors["amount"] = "Amount must not be negative"
	}
	if r.OrderStatus != "" {
		switch models.OrderStatus(r.OrderStatus) {
		case models.OrderNew, models.OrderInProgress, models.OrderDone, models.OrderCancelled:
		default:
			errors["order_status"] = "Unknown order status"
		}
	}
	if r.PaymentStatus != "" {
		switch models.PaymentStatus(r.PaymentStatus) {
		case models.PaymentNotPaid, models.PaymentPartiallyPaid, models.PaymentPaid:
		default:
			errors["payment_status"] = "Unknown payment status"
		}
	}
	if r.PaymentType != "" {
		switch models.PaymentType(r.PaymentType) {
		case models.PaymentPrepaid, models.PaymentPostpaid:
		default:
			errors["payment_type"] = "Unknown payment type"
		}
	}

	return errors
}

type PaymentRequest struct {
	OrderID              string   `json:"order_id,omitempty"`
	PlannedAmount        *float64 `json:"planned_amount,omitempty"`
	PlannedAmountPercent *float64 `json:"planned_amount_percent,omitempty"`
	ActualAmount         float64  `json:"actual_amount"`
	PlannedDate          string   `json:"planned_date,omitempty"`
	ActualDate           string   `json:"actual_date,omitempty"`
}

func (r PaymentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.ActualAmount < 0 {
		errors["actual_amount"] = "Amount must not be negative"
	}
	if r.PlannedAmount != nil && *r.PlannedAmount < 0 {
		errors["planned_amount"] = "Amount must not be negative"
	}
	if r.PlannedAmountPercent != nil && (*r.PlannedAmountPercent < 0 || *r.PlannedAmountPercent > 100) {
		errors["planned_amount_percent"] = "Percent must be between 0 and 100"
	}

	return errors
}

type ArchiveRequest struct {
	Status string `json:"status"`
}

func (r ArchiveRequest) Validate() map[string]string {
	errors := make(map[string]string)

	switch models.RecordStatus(r.Status) {
	case models.StatusActive, models.StatusArchived:
	default:
		errors["status"] = "Status must be active or archived"
	}

	return errors
}

type StatsResponse struct {
	Clients  StatEntry `json:"clients"`
	Projects StatEntry `json:"projects"`
	Orders   StatEntry `json:"orders"`
	Payments StatEntry `json:"payments"`
	Revenue  float64   `json:"revenue"`
}

type StatEntry struct {
	Total     int64 `json:"total"`
	Last30Day int64 `json:"last_30_days"`
}
