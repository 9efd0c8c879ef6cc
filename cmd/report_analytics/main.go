package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/roadwatch-backend/internal/app"
	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/export"
	"github.com/yungbote/roadwatch-backend/internal/services"
)

type options struct {
	kind   string
	format string
	eps    float64
	minPts int
	lat    float64
	lng    float64
	rng    float64
	from   string
	to     string
	out    string
}

func main() {
	var o options
	flag.StringVar(&o.kind, "kind", "stats", "stats | clusters | validated | range")
	flag.StringVar(&o.format, "format", "json", "json | csv")
	flag.Float64Var(&o.eps, "eps", 0, "cluster radius in meters (0 uses the configured default)")
	flag.IntVar(&o.minPts, "min-pts", 0, "cluster core size (0 uses the configured default)")
	flag.Float64Var(&o.lat, "lat", 0, "range query latitude")
	flag.Float64Var(&o.lng, "lng", 0, "range query longitude")
	flag.Float64Var(&o.rng, "range", 0, "range query radius in meters")
	flag.StringVar(&o.from, "from", "", "range query start date (inclusive)")
	flag.StringVar(&o.to, "to", "", "range query end date (inclusive)")
	flag.StringVar(&o.out, "out", "", "output file (stdout when empty)")
	flag.Parse()

	_ = godotenv.Load()

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close(ctx)

	payload, err := buildPayload(ctx, application.Services.Analytics, o)
	if err != nil {
		application.Log.Error("analytics failed", "kind", o.kind, "error", err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			application.Log.Error("open output", "path", o.out, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	doc := export.NewDocument(payload, time.Now())
	switch strings.ToLower(o.format) {
	case "csv":
		err = export.RenderCSV(w, doc)
	case "json":
		err = export.RenderJSON(w, doc)
	default:
		err = fmt.Errorf("unknown format %q", o.format)
	}
	if err != nil {
		application.Log.Error("render failed", "format", o.format, "error", err)
		os.Exit(1)
	}
}

func buildPayload(ctx context.Context, analytics services.AnalyticsService, o options) (export.Payload, error) {
	switch strings.ToLower(o.kind) {
	case "stats":
		counts, err := analytics.StatusCounts(ctx)
		if err != nil {
			return nil, err
		}
		return export.Statistics{Counts: counts}, nil
	case "clusters":
		rep, err := analytics.Clusters(ctx, services.ClusterQuery{EpsMeters: o.eps, MinPts: o.minPts})
		if err != nil {
			return nil, err
		}
		return export.Clusters{Report: rep}, nil
	case "validated":
		reports, err := analytics.ValidatedReports(ctx)
		if err != nil {
			return nil, err
		}
		return export.ValidatedReports{Reports: reports}, nil
	case "range":
		q := services.RangeQuery{Lat: o.lat, Lng: o.lng, RangeMeters: o.rng}
		var err error
		if q.From, err = optionalDate(o.from); err != nil {
			return nil, err
		}
		if q.To, err = optionalDate(o.to); err != nil {
			return nil, err
		}
		reports, err := analytics.SearchWithinRange(ctx, q)
		if err != nil {
			return nil, err
		}
		return export.ValidatedReports{Reports: reports}, nil
	}
	return nil, fmt.Errorf("unknown kind %q", o.kind)
}

func optionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := types.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
