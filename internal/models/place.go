package models

import (
	"gorm.io/datatypes"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Place struct {
	BaseModel
	Title       string                       `gorm:"not null"`
	Description string                       `gorm:"type:text;not null"`
	Address     string                       `gorm:"not null"`
	Location    datatypes.JSONType[GeoPoint] `gorm:"type:jsonb;not null"`
	ImageURL    string                       `gorm:"not null"`
	ImageKey    string                       `gorm:"index"`
	CreatorID   string                       `gorm:"type:uuid;not null;index"`

	Creator *User `gorm:"foreignKey:CreatorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (p *Place) Point() GeoPoint {
	return p.Location.Data()
}

func (p *Place) SetPoint(g GeoPoint) {
	p.Location = datatypes.NewJSONType(g)
}

// Clone returns a copy without the loaded Creator relation.
func (p *Place) Clone() *Place {
	c := *p
	c.Creator = nil
	return &c
}
