package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/roadwatch-backend/internal/app"
	types "github.com/yungbote/roadwatch-backend/internal/domain"
	"github.com/yungbote/roadwatch-backend/internal/geo"
	"github.com/yungbote/roadwatch-backend/internal/services"
)

var (
	seedBase   = geo.Point{Lat: 42.4642, Lng: 13.19}
	seedSpread = 2.0
	firstDay   = time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
	lastDay    = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
)

func main() {
	var (
		count  int
		userID int64
		seed   uint64
	)
	flag.IntVar(&count, "count", 50, "number of reports to create")
	flag.Int64Var(&userID, "user", 0, "owner user id (required)")
	flag.Uint64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	flag.Parse()

	if userID <= 0 {
		fmt.Println("-user is required")
		os.Exit(2)
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	_ = godotenv.Load()

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close(ctx)

	rng := rand.New(rand.NewPCG(seed, seed>>1))
	created := 0
	for i := 0; i < count; i++ {
		in := randomReport(rng, userID)
		if _, err := application.Services.Reports.Create(ctx, in); err != nil {
			application.Log.Error("seed report failed", "index", i, "error", err)
			if types.IsCode(err, types.CodeNotFound) {
				os.Exit(1)
			}
			continue
		}
		created++
	}
	application.Log.Info("seed done", "user", userID, "requested", count, "created", created, "seed", seed)
}

func randomReport(rng *rand.Rand, userID int64) services.CreateReportInput {
	at := geo.Point{
		Lat: seedBase.Lat + (rng.Float64()*2-1)*seedSpread,
		Lng: seedBase.Lng + (rng.Float64()*2-1)*seedSpread,
	}
	days := int(lastDay.Sub(firstDay).Hours() / 24)
	date := firstDay.AddDate(0, 0, rng.IntN(days+1))

	kinds := types.ReportTypes()
	kind := kinds[rng.IntN(len(kinds))]
	severities := types.SeveritiesFor(kind)
	return services.CreateReportInput{
		UserID:   userID,
		Date:     date.Format(time.DateOnly),
		Position: types.NewGeoPoint(at),
		Type:     kind,
		Severity: severities[rng.IntN(len(severities))],
	}
}
