package builder

import (
	"runtime"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/o0olele/svon-go/math32"
	"github.com/o0olele/svon-go/octree"
)

const (
	// MaxVoxelPower keeps the layer count addressable by a link.
	MaxVoxelPower = octree.MaxLayers - 1

	DefaultVoxelPower = 6
)

// Config describes the volume to build.
type Config struct {
	Origin     math32.Vector3 `json:"origin"`
	Extent     math32.Vector3 `json:"extent"` // half size of the volume
	VoxelPower int            `json:"voxel_power"`

	// Channel is handed to the oracle with every query.
	Channel uint8 `json:"channel"`

	// Workers is the number of goroutines resolving neighbour links. Zero
	// resolves them on a single worker, negative means one per CPU.
	Workers int `json:"workers,omitempty"`
}

// DefaultConfig returns a config for a cube of the given half size.
func DefaultConfig(extent float32) Config {
	return Config{
		Extent:     math32.Splat(extent),
		VoxelPower: DefaultVoxelPower,
	}
}

// Validate rejects configs that cannot be built.
func (c Config) Validate() error {
	if c.VoxelPower <= 0 || c.VoxelPower > MaxVoxelPower {
		return errors.New("voxel power out of range").
			WithType(octree.ErrTypeConfig).
			WithTag("voxel_power", c.VoxelPower).
			WithTag("max", MaxVoxelPower)
	}

	if !c.Extent.IsPositive() {
		return errors.New("extent must be positive").
			WithType(octree.ErrTypeConfig).
			WithTag("extent", c.Extent.String())
	}

	return nil
}

func (c Config) workers() int {
	switch {
	case c.Workers == 0:
		return 1
	case c.Workers < 0:
		return runtime.NumCPU()
	default:
		return c.Workers
	}
}
