package models

// Category groups habits for filtering and stats.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// UnitType groups measurement units (volume, distance, count, ...).
type UnitType struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:20;uniqueIndex;not null" json:"name"`
}

// Unit is the measurement a habit's daily target is expressed in.
type Unit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:20;uniqueIndex;not null" json:"name"`
	Symbol     string    `gorm:"size:10" json:"symbol"`
	UnitTypeID *uint     `json:"unit_type_id"`
	UnitType   *UnitType `gorm:"constraint:OnDelete:SET NULL;" json:"unit_type,omitempty"`
}
