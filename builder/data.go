package builder

import (
	"time"

	"github.com/o0olele/svon-go/math32"
)

// File format constants
const (
	SVON_FILE_MAGIC   = 0x4E4F5653 // "SVON"
	SVON_FILE_VERSION = 1
)

// FileHeader starts every octree file.
type FileHeader struct {
	Magic   uint32
	Version uint32
}

// volumeHeader follows the file header.
type volumeHeader struct {
	VoxelPower uint8
	Origin     math32.Vector3
	Extent     math32.Vector3
	LayerCount uint8
}

// FileInfo describes an octree file.
type FileInfo struct {
	Filename   string         `json:"filename"`
	FileSize   int64          `json:"file_size"`
	Version    uint32         `json:"version"`
	VoxelPower uint8          `json:"voxel_power"`
	Origin     math32.Vector3 `json:"origin"`
	Extent     math32.Vector3 `json:"extent"`
	Stats      BuildStats     `json:"stats"`
	ModTime    time.Time      `json:"mod_time"`
}
