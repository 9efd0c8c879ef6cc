package domain

import (
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/roadwatch-backend/internal/geo"
)

// GeoPoint is the stored position shape. Coordinates are [lat, lng].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

const GeoPointType = "Point"

func NewGeoPoint(p geo.Point) GeoPoint {
	return GeoPoint{Type: GeoPointType, Coordinates: []float64{p.Lat, p.Lng}}
}

// Point validates the shape and returns the coordinate pair.
func (g GeoPoint) Point() (geo.Point, error) {
	if g.Type != GeoPointType {
		return geo.Point{}, fmt.Errorf("position type must be %q, got %q", GeoPointType, g.Type)
	}
	if len(g.Coordinates) != 2 {
		return geo.Point{}, fmt.Errorf("position must have exactly 2 coordinates, got %d", len(g.Coordinates))
	}
	p := geo.Point{Lat: g.Coordinates[0], Lng: g.Coordinates[1]}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("position [%v, %v] is out of range", p.Lat, p.Lng)
	}
	return p, nil
}

type Report struct {
	ID       int64                        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   int64                        `gorm:"not null;index;column:user_id" json:"user_id"`
	Date     time.Time                    `gorm:"not null;index;column:date" json:"date"`
	Position datatypes.JSONType[GeoPoint] `gorm:"not null;column:position" json:"position"`
	Type     ReportType                   `gorm:"not null;column:type" json:"type"`
	Severity Severity                     `gorm:"not null;column:severity" json:"severity"`
	Status   ReportStatus                 `gorm:"not null;index;default:PENDING;column:status" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Report) TableName() string { return "report" }

// Location returns the report position. Stored rows are validated on write,
// so a malformed value yields the zero point.
func (r *Report) Location() geo.Point {
	p, err := r.Position.Data().Point()
	if err != nil {
		return geo.Point{}
	}
	return p
}

// ValidateClassification checks that severity belongs to the set of t.
func ValidateClassification(t ReportType, s Severity) error {
	if !t.Valid() {
		return fmt.Errorf("type %q is not one of %s, %s", t, ReportTypePothole, ReportTypeDip)
	}
	if !t.Allows(s) {
		return fmt.Errorf("severity %q is not valid for %s, allowed: %s", s, t, joinSeverities(severitiesByType[t]))
	}
	return nil
}
