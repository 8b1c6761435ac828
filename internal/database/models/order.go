package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderNew        OrderStatus = "new"
	OrderInProgress OrderStatus = "in_progress"
	OrderDone       OrderStatus = "done"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentNotPaid       PaymentStatus = "not_paid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
)

type PaymentType string

const (
	PaymentPrepaid  PaymentType = "prepaid"
	PaymentPostpaid PaymentType = "postpaid"
)

type Order struct {
	Base
	CompanyID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"company_id"`
	ProjectID     *uuid.UUID    `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Name          string        `gorm:"not null" json:"name"`
	Description   string        `json:"description,omitempty"`
	Amount        float64       `gorm:"type:numeric(14,2);default:0" json:"amount"`
	OrderStatus   OrderStatus   `gorm:"not null;default:'new'" json:"order_status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'not_paid'" json:"payment_status"`
	PaymentType   PaymentType   `gorm:"not null;default:'postpaid'" json:"payment_type"`
	PlannedDate   *time.Time    `json:"planned_date,omitempty"`
	ActualDate    *time.Time    `json:"actual_date,omitempty"`
	Status        RecordStatus  `gorm:"not null;default:'active';index" json:"status"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}
