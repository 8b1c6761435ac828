package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	Base
	CompanyID            uuid.UUID    `gorm:"type:uuid;not null;index" json:"company_id"`
	OrderID              *uuid.UUID   `gorm:"type:uuid;index" json:"order_id,omitempty"`
	PlannedAmount        *float64     `gorm:"type:numeric(14,2)" json:"planned_amount,omitempty"`
	PlannedAmountPercent *float64     `gorm:"type:numeric(5,2)" json:"planned_amount_percent,omitempty"`
	ActualAmount         float64      `gorm:"type:numeric(14,2);default:0" json:"actual_amount"`
	PlannedDate          *time.Time   `json:"planned_date,omitempty"`
	ActualDate           *time.Time   `json:"actual_date,omitempty"`
	Status               RecordStatus `gorm:"not null;default:'active';index" json:"status"`

	Order *Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
