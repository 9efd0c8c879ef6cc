package domain

import (
	"slices"
	"strings"
)

type ReportType string

const (
	ReportTypePothole ReportType = "Pothole"
	ReportTypeDip     ReportType = "Dip"
)

type Severity string

const (
	SeverityLowPothole    Severity = "LOW Depth Pothole"
	SeverityMediumPothole Severity = "MEDIUM Depth Pothole"
	SeverityHighPothole   Severity = "HIGH Depth Pothole"

	SeverityLowDip    Severity = "LOW Prominence Dip"
	SeverityMediumDip Severity = "MEDIUM Prominence Dip"
	SeverityHighDip   Severity = "HIGH Prominence Dip"
)

type ReportStatus string

const (
	StatusPending   ReportStatus = "PENDING"
	StatusValidated ReportStatus = "VALIDATED"
	StatusRejected  ReportStatus = "REJECTED"
)

var severitiesByType = map[ReportType][]Severity{
	ReportTypePothole: {SeverityLowPothole, SeverityMediumPothole, SeverityHighPothole},
	ReportTypeDip:     {SeverityLowDip, SeverityMediumDip, SeverityHighDip},
}

// ReportTypes lists the known types in a stable order.
func ReportTypes() []ReportType {
	return []ReportType{ReportTypePothole, ReportTypeDip}
}

// ReportStatuses lists the lifecycle states in a stable order.
func ReportStatuses() []ReportStatus {
	return []ReportStatus{StatusPending, StatusValidated, StatusRejected}
}

// SeveritiesFor returns the severities allowed for t, or nil for an unknown type.
func SeveritiesFor(t ReportType) []Severity {
	return slices.Clone(severitiesByType[t])
}

func (t ReportType) Valid() bool {
	_, ok := severitiesByType[t]
	return ok
}

// Allows reports whether s belongs to the severity set of t.
func (t ReportType) Allows(s Severity) bool {
	return slices.Contains(severitiesByType[t], s)
}

func (s ReportStatus) Valid() bool {
	return slices.Contains(ReportStatuses(), s)
}

// Terminal reports whether no transition leaves s.
func (s ReportStatus) Terminal() bool {
	return s == StatusValidated || s == StatusRejected
}

// ParseReportStatus accepts any casing.
func ParseReportStatus(raw string) (ReportStatus, bool) {
	s := ReportStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

func joinSeverities(ss []Severity) string {
	parts := make([]string, 0, len(ss))
	for _, s := range ss {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, ", ")
}
