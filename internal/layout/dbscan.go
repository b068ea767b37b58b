package layout

import "math"

// point is a sample in the clustering plane. Line clustering reuses the same
// machinery with x fixed to zero, which degenerates to 1D distance on y.
type point struct {
	x, y float64
}

const (
	labelUnvisited = -2
	labelNoise     = -1
)

// dbscan labels every point with its cluster, labelNoise for outliers.
// Cluster numbers are allocated in scan order, so clusters are numbered by
// the first point that seeds them and iterating labels ascending walks the
// clusters in input order.
func dbscan(points []point, eps float64, minPts int) []int {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = labelUnvisited
	}

	next := 0
	for i := range points {
		if labels[i] != labelUnvisited {
			continue
		}
		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minPts {
			labels[i] = labelNoise
			continue
		}

		cluster := next
		next++
		labels[i] = cluster

		// Seed set expansion over a growing queue.
		queue := append([]int(nil), neighbors...)
		for head := 0; head < len(queue); head++ {
			j := queue[head]
			if labels[j] == labelNoise {
				labels[j] = cluster
			}
			if labels[j] != labelUnvisited {
				continue
			}
			labels[j] = cluster
			reachable := regionQuery(points, j, eps)
			if len(reachable) >= minPts {
				queue = append(queue, reachable...)
			}
		}
	}
	return labels
}

// regionQuery returns the indices within eps of points[i], i included.
func regionQuery(points []point, i int, eps float64) []int {
	out := make([]int, 0, 4)
	for j := range points {
		if euclidean(points[i], points[j]) <= eps {
			out = append(out, j)
		}
	}
	return out
}

func euclidean(a, b point) float64 {
	return math.Hypot(a.x-b.x, a.y-b.y)
}
