package builder

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/o0olele/svon-go/octree"
)

var useGzip = true

// UseGzip sets whether Save and Load compress the file.
func UseGzip(use bool) {
	useGzip = use
}

func formatError(msg string, err error) error {
	return errors.New(msg).
		WithType(octree.ErrTypeFormat).
		Wrap(err)
}

// Write writes a tree in the little endian file layout: header, volume,
// then every layer and the leaf bitmasks, each prefixed with its length.
func Write(w io.Writer, tree *octree.Octree) error {
	header := FileHeader{
		Magic:   SVON_FILE_MAGIC,
		Version: SVON_FILE_VERSION,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return formatError("failed to write header", err)
	}

	volume := volumeHeader{
		VoxelPower: tree.VoxelPower,
		Origin:     tree.Origin,
		Extent:     tree.Extent,
		LayerCount: uint8(tree.NumLayers()),
	}
	if err := binary.Write(w, binary.LittleEndian, volume); err != nil {
		return formatError("failed to write volume", err)
	}

	for _, layer := range tree.Layers {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(layer))); err != nil {
			return formatError("failed to write node count", err)
		}
		if err := binary.Write(w, binary.LittleEndian, layer); err != nil {
			return formatError("failed to write nodes", err)
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(tree.LeafNodes))); err != nil {
		return formatError("failed to write leaf count", err)
	}
	if err := binary.Write(w, binary.LittleEndian, tree.LeafNodes); err != nil {
		return formatError("failed to write leaves", err)
	}
	return nil
}

// Read reads a tree written by Write and validates it.
func Read(r io.Reader) (*octree.Octree, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, formatError("failed to read header", err)
	}
	if header.Magic != SVON_FILE_MAGIC {
		return nil, errors.New("invalid file format: magic number mismatch").
			WithType(octree.ErrTypeFormat).
			WithTag("magic", header.Magic)
	}
	if header.Version != SVON_FILE_VERSION {
		return nil, errors.New("unsupported file version").
			WithType(octree.ErrTypeFormat).
			WithTag("version", header.Version)
	}

	var volume volumeHeader
	if err := binary.Read(r, binary.LittleEndian, &volume); err != nil {
		return nil, formatError("failed to read volume", err)
	}
	if volume.VoxelPower < 1 || int(volume.VoxelPower) > MaxVoxelPower || int(volume.LayerCount) != int(volume.VoxelPower)+1 {
		return nil, errors.New("invalid volume").
			WithType(octree.ErrTypeFormat).
			WithTag("voxel_power", volume.VoxelPower).
			WithTag("layers", volume.LayerCount)
	}

	tree := octree.NewOctree(volume.Origin, volume.Extent, volume.VoxelPower)
	for i := range tree.Layers {
		count, err := readCount(r, tree.GetNodesInLayer(uint8(i)))
		if err != nil {
			return nil, err
		}

		tree.Layers[i] = make(octree.Layer, count)
		if err := binary.Read(r, binary.LittleEndian, tree.Layers[i]); err != nil {
			return nil, formatError("failed to read nodes", err)
		}
	}

	count, err := readCount(r, len(tree.Layers[0]))
	if err != nil {
		return nil, err
	}
	tree.LeafNodes = make([]octree.LeafNode, count)
	if err := binary.Read(r, binary.LittleEndian, tree.LeafNodes); err != nil {
		return nil, formatError("failed to read leaves", err)
	}

	if err := tree.Validate(); err != nil {
		return nil, errors.New("invalid octree").
			WithType(octree.ErrTypeFormat).
			Wrap(err)
	}
	return tree, nil
}

func readCount(r io.Reader, max int) (int, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, formatError("failed to read count", err)
	}
	if int64(count) > int64(max) {
		return 0, errors.New("count out of range").
			WithType(octree.ErrTypeFormat).
			WithTag("count", count).
			WithTag("max", max)
	}
	return int(count), nil
}

// Save writes a tree to a file, gzip compressed unless disabled with
// UseGzip.
func Save(tree *octree.Octree, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.New("failed to create file").
			WithTag("filename", filename).
			Wrap(err)
	}
	defer file.Close()

	buf := bufio.NewWriter(file)
	var w io.Writer = buf

	var gzipWriter *gzip.Writer
	if useGzip {
		gzipWriter = gzip.NewWriter(buf)
		w = gzipWriter
	}

	if err := Write(w, tree); err != nil {
		return err
	}
	if gzipWriter != nil {
		if err := gzipWriter.Close(); err != nil {
			return errors.New("failed to compress file").
				WithTag("filename", filename).
				Wrap(err)
		}
	}
	if err := buf.Flush(); err != nil {
		return errors.New("failed to write file").
			WithTag("filename", filename).
			Wrap(err)
	}
	return file.Close()
}

// Load reads a tree saved with Save.
func Load(filename string) (*octree.Octree, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.New("failed to open file").
			WithTag("filename", filename).
			Wrap(err)
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	if useGzip {
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, formatError("failed to decompress file", err)
		}
		defer gzipReader.Close()
		r = gzipReader
	}

	return Read(r)
}

// GetFileInfo loads an octree file and describes it.
func GetFileInfo(filename string) (*FileInfo, error) {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return nil, errors.New("failed to get file info").
			WithTag("filename", filename).
			Wrap(err)
	}

	tree, err := Load(filename)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Filename:   filename,
		FileSize:   fileInfo.Size(),
		Version:    SVON_FILE_VERSION,
		VoxelPower: tree.VoxelPower,
		Origin:     tree.Origin,
		Extent:     tree.Extent,
		Stats:      Stats(tree),
		ModTime:    fileInfo.ModTime(),
	}, nil
}
