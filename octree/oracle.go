package octree

import "github.com/o0olele/svon-go/math32"

// Trace tags set on QueryParams by each build stage.
const (
	TagFirstPass     = "first_pass"
	TagRasterize     = "rasterize"
	TagLeafRasterize = "leaf_rasterize"
)

// QueryParams is passed through to the oracle untouched, apart from Tag which
// names the build stage issuing the query.
type QueryParams struct {
	Channel uint8  `json:"channel"`
	Tag     string `json:"tag"`
}

// OccupancyOracle answers whether an axis-aligned box overlaps blocking
// geometry.
type OccupancyOracle interface {
	IsOccupied(center math32.Vector3, halfExtent float32, params QueryParams) (bool, error)
}

// OracleFunc adapts a function to OccupancyOracle.
type OracleFunc func(center math32.Vector3, halfExtent float32, params QueryParams) (bool, error)

func (f OracleFunc) IsOccupied(center math32.Vector3, halfExtent float32, params QueryParams) (bool, error) {
	return f(center, halfExtent, params)
}
