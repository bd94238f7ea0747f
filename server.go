package main

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/o0olele/svon-go/builder"
	"github.com/o0olele/svon-go/geometry"
	"github.com/o0olele/svon-go/math32"
	"github.com/o0olele/svon-go/octree"
	"github.com/o0olele/svon-go/voxel"
	"github.com/rs/cors"
	"github.com/segmentio/encoding/json"
)

const errTypeNotFound = "svon_not_found"

// BuildRequest builds a volume from shapes or from a voxel grid. The grid
// wins when both are given.
type BuildRequest struct {
	Config   builder.Config `json:"config"`
	Geometry *geometry.Set  `json:"geometry,omitempty"`
	Grid     *voxel.Grid    `json:"grid,omitempty"`
}

// VolumeResponse describes a stored volume.
type VolumeResponse struct {
	ID         string             `json:"id"`
	VoxelPower uint8              `json:"voxel_power"`
	Origin     math32.Vector3     `json:"origin"`
	Extent     math32.Vector3     `json:"extent"`
	Stats      builder.BuildStats `json:"stats"`
	CreatedAt  time.Time          `json:"created_at"`
}

// LinksResponse lists the links around a queried link.
type LinksResponse struct {
	Link  octree.Link   `json:"link"`
	Links []octree.Link `json:"links"`
}

// PositionResponse is the world position of a link.
type PositionResponse struct {
	Link     octree.Link    `json:"link"`
	Position math32.Vector3 `json:"position"`
	Open     bool           `json:"open"`
}

type FileRequest struct {
	Filename string `json:"filename"`
}

type volume struct {
	id        string
	tree      *octree.Octree
	stats     builder.BuildStats
	createdAt time.Time
}

func (v *volume) response() VolumeResponse {
	return VolumeResponse{
		ID:         v.id,
		VoxelPower: v.tree.VoxelPower,
		Origin:     v.tree.Origin,
		Extent:     v.tree.Extent,
		Stats:      v.stats,
		CreatedAt:  v.createdAt,
	}
}

// server keeps built volumes in memory. Trees are never modified once
// stored, so queries only hold the read lock while looking a volume up.
type server struct {
	dataDir       string
	maxVoxelPower int

	mutex   sync.RWMutex
	volumes map[string]*volume
}

func newServer(dataDir string, maxVoxelPower int) *server {
	return &server{
		dataDir:       dataDir,
		maxVoxelPower: maxVoxelPower,
		volumes:       make(map[string]*volume),
	}
}

func (s *server) handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/volumes", s.buildHandler).Methods("POST")
	api.HandleFunc("/volumes", s.listHandler).Methods("GET")
	api.HandleFunc("/volumes/{id}", s.getHandler).Methods("GET")
	api.HandleFunc("/volumes/{id}", s.deleteHandler).Methods("DELETE")
	api.HandleFunc("/volumes/{id}/layers/{layer:[0-9]+}", s.layerHandler).Methods("GET")
	api.HandleFunc("/volumes/{id}/neighbours", s.neighboursHandler).Methods("GET")
	api.HandleFunc("/volumes/{id}/leaf-neighbours", s.leafNeighboursHandler).Methods("GET")
	api.HandleFunc("/volumes/{id}/position", s.positionHandler).Methods("GET")
	api.HandleFunc("/volumes/{id}/locate", s.locateHandler).Methods("GET")
	api.HandleFunc("/volumes/{id}/save", s.saveHandler).Methods("POST")
	api.HandleFunc("/load", s.loadHandler).Methods("POST")
	api.HandleFunc("/files/info", s.fileInfoHandler).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func (s *server) add(tree *octree.Octree, stats builder.BuildStats) *volume {
	v := &volume{
		id:        uuid.NewString(),
		tree:      tree,
		stats:     stats,
		createdAt: time.Now(),
	}

	s.mutex.Lock()
	s.volumes[v.id] = v
	s.mutex.Unlock()
	return v
}

func (s *server) get(r *http.Request) (*volume, error) {
	id := mux.Vars(r)["id"]

	s.mutex.RLock()
	v, ok := s.volumes[id]
	s.mutex.RUnlock()

	if !ok {
		return nil, errors.New("volume not found").
			WithType(errTypeNotFound).
			WithTag("id", id)
	}
	return v, nil
}

func (s *server) buildHandler(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Config.VoxelPower > s.maxVoxelPower {
		writeError(w, errors.New("voxel power above server limit").
			WithType(octree.ErrTypeConfig).
			WithTag("voxel_power", req.Config.VoxelPower).
			WithTag("limit", s.maxVoxelPower))
		return
	}

	var oracle octree.OccupancyOracle = &geometry.Set{}
	switch {
	case req.Grid != nil:
		if !validGrid(req.Grid) {
			http.Error(w, "Invalid grid", http.StatusBadRequest)
			return
		}
		oracle = req.Grid

	case req.Geometry != nil:
		oracle = req.Geometry
	}

	b := builder.NewBuilder(req.Config)
	tree, err := b.Build(oracle)
	if err != nil {
		writeError(w, err)
		return
	}

	v := s.add(tree, b.GetStats())
	logs.WithTag("id", v.id).
		WithTag("nodes", v.stats.Nodes).
		Info("volume built")

	writeJSON(w, http.StatusCreated, v.response())
}

func (s *server) listHandler(w http.ResponseWriter, r *http.Request) {
	s.mutex.RLock()
	volumes := make([]VolumeResponse, 0, len(s.volumes))
	for _, v := range s.volumes {
		volumes = append(volumes, v.response())
	}
	s.mutex.RUnlock()

	sort.Slice(volumes, func(i, j int) bool {
		return volumes[i].CreatedAt.Before(volumes[j].CreatedAt)
	})
	writeJSON(w, http.StatusOK, volumes)
}

func (s *server) getHandler(w http.ResponseWriter, r *http.Request) {
	v, err := s.get(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v.response())
}

func (s *server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	v, err := s.get(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mutex.Lock()
	delete(s.volumes, v.id)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *server) layerHandler(w http.ResponseWriter, r *http.Request) {
	v, err := s.get(r)
	if err != nil {
		writeError(w, err)
		return
	}

	layer, err := strconv.Atoi(mux.Vars(r)["layer"])
	if err != nil || layer >= v.tree.NumLayers() {
		http.Error(w, "Invalid layer", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, v.tree.Layers[layer])
}

func (s *server) neighboursHandler(w http.ResponseWriter, r *http.Request) {
	s.linkQuery(w, r, func(tree *octree.Octree, link octree.Link) any {
		return LinksResponse{Link: link, Links: nonNil(tree.GetNeighbours(link))}
	})
}

func (s *server) leafNeighboursHandler(w http.ResponseWriter, r *http.Request) {
	s.linkQuery(w, r, func(tree *octree.Octree, link octree.Link) any {
		return LinksResponse{Link: link, Links: nonNil(tree.GetLeafNeighbours(link))}
	})
}

func (s *server) positionHandler(w http.ResponseWriter, r *http.Request) {
	s.linkQuery(w, r, func(tree *octree.Octree, link octree.Link) any {
		position, open := tree.GetLinkPosition(link)
		return PositionResponse{Link: link, Position: position, Open: open}
	})
}

func (s *server) linkQuery(w http.ResponseWriter, r *http.Request, query func(*octree.Octree, octree.Link) any) {
	v, err := s.get(r)
	if err != nil {
		writeError(w, err)
		return
	}

	link, err := parseLink(r)
	if err != nil || !v.tree.ContainsLink(link) {
		http.Error(w, "Invalid link", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, query(v.tree, link))
}

func (s *server) locateHandler(w http.ResponseWriter, r *http.Request) {
	v, err := s.get(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var position math32.Vector3
	for _, c := range []struct {
		name  string
		value *float32
	}{
		{"x", &position.X},
		{"y", &position.Y},
		{"z", &position.Z},
	} {
		f, err := strconv.ParseFloat(r.URL.Query().Get(c.name), 32)
		if err != nil {
			http.Error(w, "Invalid position", http.StatusBadRequest)
			return
		}
		*c.value = float32(f)
	}

	link, ok := v.tree.GetLinkForPosition(position)
	if !ok {
		writeError(w, errors.New("position outside of the volume").
			WithType(errTypeNotFound).
			WithTag("position", position.String()))
		return
	}

	center, open := v.tree.GetLinkPosition(link)
	writeJSON(w, http.StatusOK, PositionResponse{Link: link, Position: center, Open: open})
}

func (s *server) saveHandler(w http.ResponseWriter, r *http.Request) {
	v, err := s.get(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req FileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	filename, ok := s.path(req.Filename)
	if !ok {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	if err := builder.Save(v.tree, filename); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *server) loadHandler(w http.ResponseWriter, r *http.Request) {
	var req FileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	filename, ok := s.path(req.Filename)
	if !ok {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}
	if err := fileExists(filename); err != nil {
		writeError(w, err)
		return
	}

	begTime := time.Now()
	tree, err := builder.Load(filename)
	if err != nil {
		writeError(w, err)
		return
	}

	v := s.add(tree, builder.Stats(tree))
	logs.WithTag("id", v.id).
		WithTag("filename", req.Filename).
		WithTag("duration", time.Since(begTime).String()).
		Info("volume loaded")

	writeJSON(w, http.StatusCreated, v.response())
}

func (s *server) fileInfoHandler(w http.ResponseWriter, r *http.Request) {
	filename, ok := s.path(r.URL.Query().Get("filename"))
	if !ok {
		http.Error(w, "Missing filename parameter", http.StatusBadRequest)
		return
	}
	if err := fileExists(filename); err != nil {
		writeError(w, err)
		return
	}

	info, err := builder.GetFileInfo(filename)
	if err != nil {
		writeError(w, err)
		return
	}
	info.Filename = filepath.Base(filename)
	writeJSON(w, http.StatusOK, info)
}

// path maps a client filename to a file of the data directory.
func (s *server) path(filename string) (string, bool) {
	base := filepath.Base(filename)
	if filename == "" || base != filename || base == "." || base == ".." {
		return "", false
	}
	return filepath.Join(s.dataDir, base), true
}

func fileExists(filename string) error {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return errors.New("file not found").
			WithType(errTypeNotFound).
			WithTag("filename", filepath.Base(filename))
	}
	return nil
}

func validGrid(g *voxel.Grid) bool {
	if g.Size.X <= 0 || g.Size.Y <= 0 || g.Size.Z <= 0 || g.CellSize <= 0 {
		return false
	}
	return len(g.Voxels) == int(g.Size.X)*int(g.Size.Y)*int(g.Size.Z)
}

func parseLink(r *http.Request) (octree.Link, error) {
	query := r.URL.Query()

	layer, err := strconv.ParseUint(query.Get("layer"), 10, 8)
	if err != nil {
		return octree.InvalidLink, err
	}
	node, err := strconv.ParseInt(query.Get("node"), 10, 32)
	if err != nil {
		return octree.InvalidLink, err
	}

	var subnode uint64
	if s := query.Get("subnode"); s != "" {
		if subnode, err = strconv.ParseUint(s, 10, 8); err != nil {
			return octree.InvalidLink, err
		}
	}
	return octree.NewLink(uint8(layer), int32(node), uint8(subnode)), nil
}

func nonNil(links []octree.Link) []octree.Link {
	if links == nil {
		return []octree.Link{}
	}
	return links
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logs.Warn(errors.New("encoding response failed").Wrap(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.Type(err) {
	case octree.ErrTypeConfig, octree.ErrTypeFormat:
		status = http.StatusBadRequest

	case errTypeNotFound:
		status = http.StatusNotFound

	default:
		logs.WithTag("type", errors.Type(err)).Error(err)
	}

	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"type":  errors.Type(err),
	})
}

// metricsPathFormatter folds volume ids out of request paths and drops
// paths of rejected requests.
func metricsPathFormatter(statusCode int, path string) string {
	if statusCode == http.StatusMovedPermanently ||
		statusCode == http.StatusBadRequest ||
		statusCode == http.StatusNotFound ||
		statusCode == http.StatusMethodNotAllowed {
		return ""
	}

	parts := strings.Split(path, "/")
	if len(parts) > 3 && parts[1] == "api" && parts[2] == "volumes" {
		parts[3] = "{id}"
	}
	return strings.Join(parts, "/")
}
