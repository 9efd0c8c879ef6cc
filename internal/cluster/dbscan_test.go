package cluster

import (
	"context"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/yungbote/roadwatch-backend/internal/geo"
)

// line places points on a meridian-free axis so distances read as plain numbers.
func line(xs ...float64) []geo.Point {
	out := make([]geo.Point, 0, len(xs))
	for _, x := range xs {
		out = append(out, geo.Point{Lat: x})
	}
	return out
}

func planar(a, b geo.Point) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}

func run(t *testing.T, pts []geo.Point, opts Options) Result {
	t.Helper()
	res, err := DBSCAN(context.Background(), pts, opts)
	if err != nil {
		t.Fatalf("DBSCAN: %v", err)
	}
	return res
}

func TestMinPtsOneHasNoNoise(t *testing.T) {
	pts := line(0, 5, 5.5, 20, 100)
	res := run(t, pts, Options{Eps: 1, MinPts: 1, Distance: planar})
	if len(res.Noise) != 0 {
		t.Fatalf("expected no noise, got %v", res.Noise)
	}
	want := [][]int{{0}, {1, 2}, {3}, {4}}
	if !reflect.DeepEqual(res.Clusters, want) {
		t.Fatalf("clusters: got %v want %v", res.Clusters, want)
	}
}

func TestTinyEpsIsAllNoise(t *testing.T) {
	base := geo.Point{Lat: 42.4642, Lng: 13.19}
	pts := []geo.Point{
		base,
		geo.OffsetNorth(base, 50),
		geo.OffsetNorth(base, 120),
		geo.OffsetNorth(base, 400),
	}
	res := run(t, pts, Options{Eps: 10, MinPts: 2})
	if len(res.Clusters) != 0 {
		t.Fatalf("expected no clusters, got %v", res.Clusters)
	}
	if !reflect.DeepEqual(res.Noise, []int{0, 1, 2, 3}) {
		t.Fatalf("noise: got %v", res.Noise)
	}
}

func TestHaversineEpsInMeters(t *testing.T) {
	base := geo.Point{Lat: 42.4642, Lng: 13.19}
	pts := []geo.Point{
		base,
		geo.OffsetNorth(base, 30),
		geo.OffsetNorth(base, 60),
		geo.OffsetNorth(base, 5_000),
	}
	res := run(t, pts, Options{Eps: 40, MinPts: 2})
	if !reflect.DeepEqual(res.Clusters, [][]int{{0, 1, 2}}) {
		t.Fatalf("clusters: got %v", res.Clusters)
	}
	if !reflect.DeepEqual(res.Noise, []int{3}) {
		t.Fatalf("noise: got %v", res.Noise)
	}

	g := Points(res, pts)
	if len(g.Clusters) != 1 || len(g.Clusters[0]) != 3 || g.Noise[0] != pts[3] {
		t.Fatalf("Points: %+v", g)
	}
}

func TestBorderPointJoinsFirstCluster(t *testing.T) {
	// two dense groups with one shared border point between them
	groupA := []float64{0, 0.3, 0.6, 0.9}
	border := 1.8
	groupC := []float64{2.7, 3.0, 3.3, 3.6}
	opts := Options{Eps: 1, MinPts: 4, Distance: planar}

	xs := append(append(append([]float64{}, groupA...), border), groupC...)
	xs = append(xs, 10)
	res := run(t, line(xs...), opts)
	want := [][]int{{0, 1, 2, 3, 4}, {5, 6, 7, 8}}
	if !reflect.DeepEqual(res.Clusters, want) {
		t.Fatalf("A first: got %v want %v", res.Clusters, want)
	}
	if !reflect.DeepEqual(res.Noise, []int{9}) {
		t.Fatalf("noise: got %v", res.Noise)
	}

	// reversed group order hands the border point to the other cluster
	xs = append(append(append([]float64{}, groupC...), border), groupA...)
	res = run(t, line(xs...), opts)
	want = [][]int{{0, 1, 2, 3, 4}, {5, 6, 7, 8}}
	if !reflect.DeepEqual(res.Clusters, want) {
		t.Fatalf("C first: got %v want %v", res.Clusters, want)
	}
}

func TestNoiseBecomesBorderWhenReachedLater(t *testing.T) {
	// index 0 is not core and is visited first, then claimed by the cluster
	pts := line(0, 0.9, 1.2, 1.5, 1.8)
	res := run(t, pts, Options{Eps: 1, MinPts: 4, Distance: planar})
	if len(res.Noise) != 0 {
		t.Fatalf("expected border point to leave noise, got %v", res.Noise)
	}
	if !reflect.DeepEqual(res.Clusters, [][]int{{0, 1, 2, 3, 4}}) {
		t.Fatalf("clusters: got %v", res.Clusters)
	}
}

func TestClusterIDsFollowInputOrder(t *testing.T) {
	pts := line(50, 50.1, 0, 0.1, 25, 25.1)
	res := run(t, pts, Options{Eps: 0.5, MinPts: 2, Distance: planar})
	want := [][]int{{0, 1}, {2, 3}, {4, 5}}
	if !reflect.DeepEqual(res.Clusters, want) {
		t.Fatalf("got %v want %v", res.Clusters, want)
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := geo.Point{Lat: 42.4642, Lng: 13.19}
	pts := make([]geo.Point, 0, 400)
	for i := 0; i < 400; i++ {
		pts = append(pts, geo.Point{
			Lat: base.Lat + (rng.Float64()-0.5)*0.05,
			Lng: base.Lng + (rng.Float64()-0.5)*0.05,
		})
	}
	serial := run(t, pts, Options{Eps: 300, MinPts: 4})
	parallel := run(t, pts, Options{Eps: 300, MinPts: 4, ParallelThreshold: 100, Workers: 4})
	if !reflect.DeepEqual(serial, parallel) {
		t.Fatalf("parallel result differs from serial")
	}
}

func TestParallelHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DBSCAN(ctx, line(0, 1, 2, 3), Options{Eps: 1, MinPts: 2, Distance: planar, ParallelThreshold: 1})
	if err == nil {
		t.Fatalf("expected context error")
	}
}

func TestInvalidOptions(t *testing.T) {
	if _, err := DBSCAN(context.Background(), line(0), Options{Eps: -1, MinPts: 1}); err == nil {
		t.Fatalf("negative eps: expected error")
	}
	if _, err := DBSCAN(context.Background(), line(0), Options{Eps: 1, MinPts: 0}); err == nil {
		t.Fatalf("minPts 0: expected error")
	}
	res := run(t, nil, Options{Eps: 1, MinPts: 1})
	if len(res.Clusters) != 0 || len(res.Noise) != 0 {
		t.Fatalf("empty input: %+v", res)
	}
}
