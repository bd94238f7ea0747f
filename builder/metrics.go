package builder

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/o0olele/svon-go/math32"
	"github.com/o0olele/svon-go/octree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultLabel  = "result"
	tagLabel     = "tag"
	errTypeLabel = "error_type"
)

var (
	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "svon_builds",
		Help: "The number of octree builds by result.",
	}, []string{
		resultLabel,
		errTypeLabel,
	})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "svon_build_duration_seconds",
		Help:    "The duration of successful octree builds.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	oracleQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "svon_oracle_queries",
		Help: "The number of occupancy queries by build stage.",
	}, []string{
		tagLabel,
	})

	lastBuildNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "svon_last_build_nodes",
		Help: "The number of nodes of the last successful build.",
	})

	lastBuildLeaves = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "svon_last_build_leaves",
		Help: "The number of leaf slots of the last successful build.",
	})
)

// countingOracle counts the queries of a single build per stage tag and
// reports them to prometheus.
type countingOracle struct {
	oracle  octree.OccupancyOracle
	queries map[string]int
}

func newCountingOracle(oracle octree.OccupancyOracle) *countingOracle {
	return &countingOracle{
		oracle:  oracle,
		queries: make(map[string]int),
	}
}

func (o *countingOracle) IsOccupied(center math32.Vector3, halfExtent float32, params octree.QueryParams) (bool, error) {
	o.queries[params.Tag]++
	oracleQueries.WithLabelValues(params.Tag).Inc()
	return o.oracle.IsOccupied(center, halfExtent, params)
}

func (o *countingOracle) total() int {
	total := 0
	for _, n := range o.queries {
		total += n
	}
	return total
}

func observeBuild(stats BuildStats, err error) {
	if err != nil {
		buildsTotal.WithLabelValues("error", errors.Type(err)).Inc()
		return
	}

	buildsTotal.WithLabelValues("success", "").Inc()
	buildDuration.Observe(stats.Duration.Seconds())
	lastBuildNodes.Set(float64(stats.Nodes))
	lastBuildLeaves.Set(float64(stats.Leaves))
}
