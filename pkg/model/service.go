package model

import "time"

const DefaultIconClass = "fas fa-spa"

type ServiceCategory string

const (
	CategoryMassage       ServiceCategory = "Massage"
	CategoryPhysiotherapy ServiceCategory = "Physiotherapy"
	CategoryHydrotherapy  ServiceCategory = "Hydrotherapy"
)

type Service struct {
	ID          string          `json:"id,omitempty" bson:"_id,omitempty" yaml:"-"`
	Name        string          `json:"name" bson:"name" yaml:"name" validate:"required,min=2,max=100"`
	Description string          `json:"description" bson:"description" yaml:"description" validate:"required,max=1000"`
	Duration    string          `json:"duration" bson:"duration" yaml:"duration" validate:"required,max=50"`
	Price       *float64        `json:"price,omitempty" bson:"price,omitempty" yaml:"price" validate:"omitempty,min=0"`
	Category    ServiceCategory `json:"category,omitempty" bson:"category,omitempty" yaml:"category" validate:"omitempty,oneof=Massage Physiotherapy Hydrotherapy"`
	IconClass   string          `json:"iconClass" bson:"icon_class" yaml:"iconClass" validate:"max=100"`
	CreatedAt   time.Time       `json:"createdAt" bson:"created_at" yaml:"-"`
	UpdatedAt   time.Time       `json:"updatedAt" bson:"updated_at" yaml:"-"`
}

// BookablePrice returns the price a booking snapshots, and false when the service has none.
func (s *Service) BookablePrice() (float64, bool) {
	if s.Price == nil || *s.Price < 0 {
		return 0, false
	}
	return *s.Price, true
}

type ServiceUpdate struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=1000"`
	Duration    *string          `json:"duration,omitempty" validate:"omitempty,max=50"`
	Price       *float64         `json:"price,omitempty" validate:"omitempty,min=0"`
	Category    *ServiceCategory `json:"category,omitempty" validate:"omitempty,oneof=Massage Physiotherapy Hydrotherapy"`
	IconClass   *string          `json:"iconClass,omitempty" validate:"omitempty,max=100"`
}

func (u *ServiceUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Duration == nil &&
		u.Price == nil && u.Category == nil && u.IconClass == nil
}
