package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/yungbote/roadwatch-backend/internal/geo"
)

func TestValidateClassification(t *testing.T) {
	for _, typ := range ReportTypes() {
		for _, sev := range SeveritiesFor(typ) {
			if err := ValidateClassification(typ, sev); err != nil {
				t.Fatalf("%s/%s: unexpected error: %v", typ, sev, err)
			}
		}
	}

	// every cross-type pairing is rejected
	for _, typ := range ReportTypes() {
		for _, other := range ReportTypes() {
			if other == typ {
				continue
			}
			for _, sev := range SeveritiesFor(other) {
				err := ValidateClassification(typ, sev)
				if err == nil {
					t.Fatalf("%s/%s: expected error", typ, sev)
				}
				if !strings.Contains(err.Error(), string(SeveritiesFor(typ)[0])) {
					t.Fatalf("error should name the allowed set: %v", err)
				}
			}
		}
	}

	if err := ValidateClassification("Crack", SeverityLowPothole); err == nil {
		t.Fatalf("unknown type: expected error")
	}
}

func TestStatusHelpers(t *testing.T) {
	if StatusPending.Terminal() {
		t.Fatalf("PENDING must not be terminal")
	}
	if !StatusValidated.Terminal() || !StatusRejected.Terminal() {
		t.Fatalf("VALIDATED and REJECTED must be terminal")
	}
	if s, ok := ParseReportStatus(" validated "); !ok || s != StatusValidated {
		t.Fatalf("ParseReportStatus: got %q %v", s, ok)
	}
	if _, ok := ParseReportStatus("archived"); ok {
		t.Fatalf("ParseReportStatus: expected unknown status to fail")
	}
}

func TestParseDate(t *testing.T) {
	ok := []string{"2024-03-01", "2024-03-01T10:00:00Z", "2024-03-01T10:00:00", "03-01-2024"}
	for _, raw := range ok {
		d, err := ParseDate(raw)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", raw, err)
		}
		if d.Year() != 2024 || d.Month() != 3 || d.Day() != 1 {
			t.Fatalf("ParseDate(%q) = %v", raw, d)
		}
	}
	bad := []string{"", "2024", "2024-03", "not-a-date", "2024-13-45"}
	for _, raw := range bad {
		if _, err := ParseDate(raw); err == nil {
			t.Fatalf("ParseDate(%q): expected error", raw)
		}
	}
}

func TestGeoPoint(t *testing.T) {
	p := NewGeoPoint(geo.Point{Lat: 42.46, Lng: 13.19})
	got, err := p.Point()
	if err != nil {
		t.Fatalf("Point: %v", err)
	}
	if got.Lat != 42.46 || got.Lng != 13.19 {
		t.Fatalf("coordinates must be [lat, lng], got %+v", got)
	}

	bad := []GeoPoint{
		{Type: "LineString", Coordinates: []float64{1, 2}},
		{Type: GeoPointType, Coordinates: []float64{1}},
		{Type: GeoPointType, Coordinates: []float64{1, 2, 3}},
		{Type: GeoPointType, Coordinates: []float64{95, 2}},
	}
	for _, g := range bad {
		if _, err := g.Point(); err == nil {
			t.Fatalf("%+v: expected error", g)
		}
	}
}

func TestErrorCodes(t *testing.T) {
	err := Conflict("ReportService.Validate", "report %d is %s", 7, StatusValidated)
	wrapped := fmt.Errorf("outer: %w", err)
	if !IsCode(wrapped, CodeConflict) {
		t.Fatalf("expected conflict code through wrapping")
	}
	if !strings.Contains(err.Error(), "VALIDATED") {
		t.Fatalf("message should carry status: %v", err)
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
	if Wrap(CodeInternal, "op", err) != err {
		t.Fatalf("Wrap must not reclassify a classified error")
	}
	cause := errors.New("boom")
	if !errors.Is(Wrap(CodeInternal, "op", cause), cause) {
		t.Fatalf("Wrap must keep the cause")
	}
}
