package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	types "github.com/yungbote/roadwatch-backend/internal/domain"
)

func RenderJSON(w io.Writer, doc Document) error {
	if doc.Payload == nil {
		return fmt.Errorf("export: %s document has no payload", doc.Kind)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	return nil
}

// RenderCSV writes one header row then the payload's rows. The document
// envelope is not represented.
func RenderCSV(w io.Writer, doc Document) error {
	if doc.Payload == nil {
		return fmt.Errorf("export: %s document has no payload", doc.Kind)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(doc.Payload.header()); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	if err := cw.WriteAll(doc.Payload.rows()); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return nil
}

func (Statistics) header() []string { return []string{"type", "severity", "status", "count"} }

// rows follow the canonical type, severity and status order so output is
// stable regardless of map iteration.
func (s Statistics) rows() [][]string {
	var out [][]string
	for _, t := range types.ReportTypes() {
		for _, sev := range types.SeveritiesFor(t) {
			for _, st := range types.ReportStatuses() {
				n := s.Counts[t][sev][st]
				out = append(out, []string{string(t), string(sev), string(st), strconv.Itoa(n)})
			}
		}
	}
	return out
}

func (Clusters) header() []string { return []string{"cluster", "lat", "lng"} }

func (c Clusters) rows() [][]string {
	if c.Report == nil {
		return nil
	}
	var out [][]string
	for i, pts := range c.Report.Points.Clusters {
		for _, p := range pts {
			out = append(out, []string{strconv.Itoa(i), formatCoord(p.Lat), formatCoord(p.Lng)})
		}
	}
	for _, p := range c.Report.Points.Noise {
		out = append(out, []string{"noise", formatCoord(p.Lat), formatCoord(p.Lng)})
	}
	return out
}

func (ValidatedReports) header() []string {
	return []string{"id", "user_id", "date", "lat", "lng", "type", "severity", "status"}
}

func (v ValidatedReports) rows() [][]string {
	out := make([][]string, 0, len(v.Reports))
	for _, r := range v.Reports {
		loc := r.Location()
		out = append(out, []string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.UserID, 10),
			r.Date.UTC().Format(time.DateOnly),
			formatCoord(loc.Lat),
			formatCoord(loc.Lng),
			string(r.Type),
			string(r.Severity),
			string(r.Status),
		})
	}
	return out
}

func formatCoord(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
