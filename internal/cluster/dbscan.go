// Package cluster implements DBSCAN over geographic points.
//
// Eps is in the unit of the distance function. With the default haversine
// distance that is meters.
package cluster

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/roadwatch-backend/internal/geo"
)

type DistanceFunc func(a, b geo.Point) float64

type Options struct {
	Eps    float64
	MinPts int
	// Distance defaults to geo.Haversine.
	Distance DistanceFunc
	// ParallelThreshold enables concurrent neighborhood precomputation for
	// inputs at least this large. Zero disables it.
	ParallelThreshold int
	// Workers caps concurrency, defaulting to GOMAXPROCS.
	Workers int
}

// Result holds indices into the input slice. Cluster ids are slice
// positions, assigned in input order of each cluster's first core point.
type Result struct {
	Clusters [][]int `json:"clusters"`
	Noise    []int   `json:"noise"`
}

const (
	unclassified = -2
	noise        = -1
)

func (o Options) validate() error {
	if o.Eps < 0 {
		return fmt.Errorf("eps must be >= 0, got %v", o.Eps)
	}
	if o.MinPts < 1 {
		return fmt.Errorf("minPts must be >= 1, got %d", o.MinPts)
	}
	return nil
}

// DBSCAN clusters points by density reachability. A core point has at least
// MinPts points, itself included, within Eps. Border points join the first
// cluster that reaches them and never expand it.
func DBSCAN(ctx context.Context, points []geo.Point, opts Options) (Result, error) {
	if err := opts.validate(); err != nil {
		return Result{}, err
	}
	if opts.Distance == nil {
		opts.Distance = geo.Haversine
	}

	n := len(points)
	res := Result{Clusters: [][]int{}, Noise: []int{}}
	if n == 0 {
		return res, nil
	}

	neighbors, err := neighborhoods(ctx, points, opts)
	if err != nil {
		return Result{}, err
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = unclassified
	}

	for i := 0; i < n; i++ {
		if labels[i] != unclassified {
			continue
		}
		seeds := neighbors(i)
		if len(seeds) < opts.MinPts {
			labels[i] = noise
			continue
		}

		id := len(res.Clusters)
		labels[i] = id
		members := []int{i}
		queue := slices.Clone(seeds)
		for k := 0; k < len(queue); k++ {
			j := queue[k]
			switch labels[j] {
			case noise:
				// border point
				labels[j] = id
				members = append(members, j)
				continue
			case unclassified:
			default:
				continue
			}
			labels[j] = id
			members = append(members, j)
			if jn := neighbors(j); len(jn) >= opts.MinPts {
				queue = append(queue, jn...)
			}
		}
		slices.Sort(members)
		res.Clusters = append(res.Clusters, members)
	}

	for i, l := range labels {
		if l == noise {
			res.Noise = append(res.Noise, i)
		}
	}
	return res, nil
}

// neighborhoods returns a lookup of the eps-neighborhood of each index, in
// index order and including the index itself.
func neighborhoods(ctx context.Context, points []geo.Point, opts Options) (func(int) []int, error) {
	scan := func(i int) []int {
		out := []int{}
		for j := range points {
			if opts.Distance(points[i], points[j]) <= opts.Eps {
				out = append(out, j)
			}
		}
		return out
	}

	if opts.ParallelThreshold <= 0 || len(points) < opts.ParallelThreshold {
		memo := make(map[int][]int, len(points))
		return func(i int) []int {
			if nb, ok := memo[i]; ok {
				return nb
			}
			nb := scan(i)
			memo[i] = nb
			return nb
		}, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	all := make([][]int, len(points))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range points {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			all[i] = scan(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return func(i int) []int { return all[i] }, nil
}

// Grouped is a Result with indices resolved to points.
type Grouped struct {
	Clusters [][]geo.Point `json:"clusters"`
	Noise    []geo.Point   `json:"noise"`
}

func Points(res Result, points []geo.Point) Grouped {
	out := Grouped{
		Clusters: make([][]geo.Point, 0, len(res.Clusters)),
		Noise:    make([]geo.Point, 0, len(res.Noise)),
	}
	for _, members := range res.Clusters {
		pts := make([]geo.Point, 0, len(members))
		for _, i := range members {
			pts = append(pts, points[i])
		}
		out.Clusters = append(out.Clusters, pts)
	}
	for _, i := range res.Noise {
		out.Noise = append(out.Noise, points[i])
	}
	return out
}
