package builder

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/o0olele/svon-go/octree"
)

// BuildStats summarizes a built octree.
type BuildStats struct {
	Layers           int            `json:"layers"`
	LayerNodes       []int          `json:"layer_nodes"`
	Nodes            int            `json:"nodes"`
	Leaves           int            `json:"leaves"`
	OccupiedLeaves   int            `json:"occupied_leaves"`
	BlockedSubVoxels int            `json:"blocked_sub_voxels"`
	Bytes            int            `json:"bytes"`
	TerminalDepth    int            `json:"terminal_depth,omitempty"`
	Queries          map[string]int `json:"queries,omitempty"`
	TotalQueries     int            `json:"total_queries,omitempty"`
	Duration         time.Duration  `json:"duration,omitempty"`
}

// Stats returns the size of a tree.
func Stats(tree *octree.Octree) BuildStats {
	stats := BuildStats{
		Layers:     tree.NumLayers(),
		LayerNodes: make([]int, tree.NumLayers()),
		Nodes:      tree.TotalNodes(),
		Leaves:     len(tree.LeafNodes),
		Bytes:      tree.MemorySize(),
	}
	for i, layer := range tree.Layers {
		stats.LayerNodes[i] = len(layer)
	}
	for _, leaf := range tree.LeafNodes {
		if !leaf.IsCompletelyFree() {
			stats.OccupiedLeaves++
		}
		stats.BlockedSubVoxels += leaf.BlockedCount()
	}
	return stats
}

// Builder builds sparse voxel octrees from an occupancy oracle.
type Builder struct {
	config Config
	octree *octree.Octree
	stats  BuildStats
}

// NewBuilder creates a builder for the given volume.
func NewBuilder(config Config) *Builder {
	return &Builder{
		config: config,
	}
}

func (b *Builder) GetOctree() *octree.Octree {
	return b.octree
}

func (b *Builder) GetStats() BuildStats {
	return b.stats
}

// Build rasterizes the volume and links the neighbours. It returns either a
// fully built octree or an error, never a partial tree.
func (b *Builder) Build(oracle octree.OccupancyOracle) (*octree.Octree, error) {
	tree, stats, err := b.build(oracle)
	observeBuild(stats, err)
	if err != nil {
		return nil, err
	}

	b.octree = tree
	b.stats = stats
	return tree, nil
}

func (b *Builder) build(oracle octree.OccupancyOracle) (*octree.Octree, BuildStats, error) {
	if err := b.config.Validate(); err != nil {
		return nil, BuildStats{}, err
	}

	startTime := time.Now()
	counter := newCountingOracle(oracle)
	tree := octree.NewOctree(b.config.Origin, b.config.Extent, uint8(b.config.VoxelPower))
	r := octree.NewRasterizer(tree, counter, b.config.Channel)

	stageStart := time.Now()
	if err := r.FirstPass(); err != nil {
		return nil, BuildStats{}, err
	}
	logs.WithTag("stage", "first_pass").
		WithTag("terminal_depth", r.TerminalDepth()).
		WithTag("queries", counter.total()).
		WithTag("duration", time.Since(stageStart).String()).
		Debug("build stage finished")

	stageStart = time.Now()
	if err := r.RasterizeLayers(); err != nil {
		return nil, BuildStats{}, err
	}
	logs.WithTag("stage", "rasterize").
		WithTag("nodes", tree.TotalNodes()).
		WithTag("queries", counter.total()).
		WithTag("duration", time.Since(stageStart).String()).
		Debug("build stage finished")

	stageStart = time.Now()
	r.BuildNeighbourLinks(b.config.workers())
	logs.WithTag("stage", "neighbours").
		WithTag("workers", b.config.workers()).
		WithTag("duration", time.Since(stageStart).String()).
		Debug("build stage finished")

	stats := Stats(tree)
	stats.TerminalDepth = r.TerminalDepth()
	stats.Queries = counter.queries
	stats.TotalQueries = counter.total()
	stats.Duration = time.Since(startTime)

	logs.WithTag("layers", stats.Layers).
		WithTag("nodes", stats.Nodes).
		WithTag("leaves", stats.Leaves).
		WithTag("bytes", stats.Bytes).
		WithTag("queries", stats.TotalQueries).
		WithTag("duration", stats.Duration.String()).
		Info("octree built")

	return tree, stats, nil
}

// Build builds an octree with a one-off builder.
func Build(config Config, oracle octree.OccupancyOracle) (*octree.Octree, error) {
	return NewBuilder(config).Build(oracle)
}
