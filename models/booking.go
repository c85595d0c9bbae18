package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BookingType string

const (
	BookingTypeConsultation BookingType = "CONSULTATION"
	BookingTypeProject      BookingType = "PROJECT"
)

type ServiceType string

const (
	ServiceWebDesign      ServiceType = "WEB_DESIGN"
	ServiceWebDevelopment ServiceType = "WEB_DEVELOPMENT"
	ServiceEcommerce      ServiceType = "ECOMMERCE"
	ServiceUIUXDesign     ServiceType = "UIUX_DESIGN"
	ServiceMaintenance    ServiceType = "MAINTENANCE"
	ServiceLandingPages   ServiceType = "LANDING_PAGES"
	ServiceOther          ServiceType = "OTHER"
)

var ErrVariantMismatch = errors.New("booking_variant_mismatch")

// Booking is a persisted consultation request or project brief.
// Exactly one of the consultation group (PreferredDate, PreferredTime) or
// the project group (Service, BudgetRange, Timeline) is set, matching Type.
type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Reference string      `gorm:"column:reference;size:32;uniqueIndex;not null;<-:create" json:"reference"`
	Type      BookingType `gorm:"column:type;size:16;index;not null" json:"type"`

	FullName    string  `gorm:"column:full_name;size:100;not null" json:"fullName"`
	Email       string  `gorm:"column:email;size:254;index;not null" json:"email"`
	Phone       string  `gorm:"column:phone;size:32;not null" json:"phone"`
	Source      *string `gorm:"column:source;type:text" json:"source,omitempty"`
	Description *string `gorm:"column:description;type:text" json:"description,omitempty"`

	// consultation
	PreferredDate *datatypes.Date `gorm:"column:preferred_date" json:"preferredDate,omitempty"`
	PreferredTime *string         `gorm:"column:preferred_time;size:16" json:"preferredTime,omitempty"`

	// project
	Service     *ServiceType `gorm:"column:service;size:32" json:"service,omitempty"`
	BudgetRange *string      `gorm:"column:budget_range;size:32" json:"budgetRange,omitempty"`
	Timeline    *string      `gorm:"column:timeline;size:32" json:"timeline,omitempty"`

	TelegramMsgID *string `gorm:"column:telegram_msg_id;size:32" json:"telegramMsgId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	return b.CheckVariant()
}

// CheckVariant reports ErrVariantMismatch when the populated field group
// does not match Type.
func (b *Booking) CheckVariant() error {
	consultation := b.PreferredDate != nil || b.PreferredTime != nil
	project := b.Service != nil || b.BudgetRange != nil || b.Timeline != nil

	switch b.Type {
	case BookingTypeConsultation:
		if project || b.PreferredDate == nil || b.PreferredTime == nil {
			return ErrVariantMismatch
		}
	case BookingTypeProject:
		if consultation || b.Service == nil || b.BudgetRange == nil || b.Timeline == nil {
			return ErrVariantMismatch
		}
	default:
		return ErrVariantMismatch
	}
	return nil
}

// PreferredDay returns the consultation date as a time.Time, or the zero
// time when unset.
func (b *Booking) PreferredDay() time.Time {
	if b.PreferredDate == nil {
		return time.Time{}
	}
	return time.Time(*b.PreferredDate)
}
