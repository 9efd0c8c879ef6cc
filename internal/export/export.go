// Package export renders analytics results as JSON or CSV documents.
package export

import (
	"time"

	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/services"
)

type Kind string

const (
	KindStatistics       Kind = "statistics"
	KindClusters         Kind = "clusters"
	KindValidatedReports Kind = "validated_reports"
)

// Payload is one of Statistics, Clusters or ValidatedReports.
type Payload interface {
	Kind() Kind
	header() []string
	rows() [][]string
}

type Statistics struct {
	Counts services.StatusCounts `json:"counts"`
}

type Clusters struct {
	Report *services.ClusterReport `json:"report"`
}

type ValidatedReports struct {
	Reports []*types.Report `json:"reports"`
}

func (Statistics) Kind() Kind       { return KindStatistics }
func (Clusters) Kind() Kind         { return KindClusters }
func (ValidatedReports) Kind() Kind { return KindValidatedReports }

type Document struct {
	Kind        Kind      `json:"kind"`
	GeneratedAt time.Time `json:"generated_at"`
	Payload     Payload   `json:"payload"`
}

func NewDocument(p Payload, at time.Time) Document {
	return Document{Kind: p.Kind(), GeneratedAt: at.UTC(), Payload: p}
}
