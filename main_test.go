package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/o0olele/svon-go/builder"
	"github.com/o0olele/svon-go/geometry"
	"github.com/o0olele/svon-go/math32"
	"github.com/o0olele/svon-go/octree"
	"github.com/o0olele/svon-go/voxel"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	s := httptest.NewServer(newServer(t.TempDir(), 4).handler())
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, method, url string, body, res any) int {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req, err := http.NewRequest(method, url, &reqBody)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if res != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(res))
	}
	return resp.StatusCode
}

// cornerRequest blocks the 2x2x2 corner at the lowest coordinates of a
// 16 units wide volume.
func cornerRequest() BuildRequest {
	set := &geometry.Set{}
	set.AddBox(geometry.Box{Center: math32.Splat(-7), Size: math32.Splat(2)})

	config := builder.DefaultConfig(8)
	config.VoxelPower = 2
	return BuildRequest{Config: config, Geometry: set}
}

func buildVolume(t *testing.T, s *httptest.Server) VolumeResponse {
	t.Helper()

	var v VolumeResponse
	require.Equal(t, http.StatusCreated, do(t, "POST", s.URL+"/api/volumes", cornerRequest(), &v))
	require.NotEmpty(t, v.ID)
	return v
}

func TestBuildVolume(t *testing.T) {
	s := newTestServer(t)
	v := buildVolume(t, s)

	require.Equal(t, uint8(2), v.VoxelPower)
	require.Equal(t, 3, v.Stats.Layers)
	require.Equal(t, []int{8, 8, 1}, v.Stats.LayerNodes)

	var got VolumeResponse
	require.Equal(t, http.StatusOK, do(t, "GET", s.URL+"/api/volumes/"+v.ID, nil, &got))
	require.Equal(t, v.ID, got.ID)
	require.Equal(t, v.Stats.Nodes, got.Stats.Nodes)

	var list []VolumeResponse
	require.Equal(t, http.StatusOK, do(t, "GET", s.URL+"/api/volumes", nil, &list))
	require.Len(t, list, 1)

	var layer octree.Layer
	require.Equal(t, http.StatusOK, do(t, "GET", s.URL+"/api/volumes/"+v.ID+"/layers/2", nil, &layer))
	require.Len(t, layer, 1)
	require.Equal(t, http.StatusBadRequest, do(t, "GET", s.URL+"/api/volumes/"+v.ID+"/layers/3", nil, nil))

	require.Equal(t, http.StatusOK, do(t, "DELETE", s.URL+"/api/volumes/"+v.ID, nil, nil))
	require.Equal(t, http.StatusNotFound, do(t, "GET", s.URL+"/api/volumes/"+v.ID, nil, nil))
}

func TestBuildVolumeFromGrid(t *testing.T) {
	s := newTestServer(t)

	grid := voxel.NewGrid(math32.Vector3i{X: 4, Y: 4, Z: 4}, 4, math32.Splat(-8))
	grid.SetVoxel(math32.Vector3i{}, voxel.VoxelSolid)

	config := builder.DefaultConfig(8)
	config.VoxelPower = 2

	var v VolumeResponse
	require.Equal(t, http.StatusCreated, do(t, "POST", s.URL+"/api/volumes", BuildRequest{
		Config: config,
		Grid:   grid,
	}, &v))
	require.Equal(t, 64, v.Stats.BlockedSubVoxels)
}

func TestBuildVolumeRejectsRequests(t *testing.T) {
	s := newTestServer(t)

	tooDeep := cornerRequest()
	tooDeep.Config.VoxelPower = 5

	noExtent := cornerRequest()
	noExtent.Config.Extent = math32.Vector3{}

	badGrid := cornerRequest()
	badGrid.Grid = &voxel.Grid{Size: math32.Vector3i{X: 2, Y: 2, Z: 2}, CellSize: 1}

	for name, req := range map[string]BuildRequest{
		"voxel power above server limit": tooDeep,
		"invalid config":                 noExtent,
		"grid without voxels":            badGrid,
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, http.StatusBadRequest, do(t, "POST", s.URL+"/api/volumes", req, nil))
		})
	}
}

func TestQueryVolume(t *testing.T) {
	s := newTestServer(t)
	v := buildVolume(t, s)
	url := s.URL + "/api/volumes/" + v.ID

	var position PositionResponse
	require.Equal(t, http.StatusOK, do(t, "GET", url+"/position?layer=0&node=0&subnode=0", nil, &position))
	require.Equal(t, math32.Splat(-7.5), position.Position)
	require.False(t, position.Open)

	require.Equal(t, http.StatusOK, do(t, "GET", url+"/locate?x=-7.5&y=-7.5&z=-7.5", nil, &position))
	require.Equal(t, octree.NewLink(0, 0, 0), position.Link)
	require.Equal(t, http.StatusNotFound, do(t, "GET", url+"/locate?x=9&y=0&z=0", nil, nil))
	require.Equal(t, http.StatusBadRequest, do(t, "GET", url+"/locate?x=a&y=0&z=0", nil, nil))

	var links LinksResponse
	require.Equal(t, http.StatusOK, do(t, "GET", url+"/neighbours?layer=0&node=1", nil, &links))
	require.Equal(t, octree.NewLink(0, 1, 0), links.Link)
	require.NotEmpty(t, links.Links)

	require.Equal(t, http.StatusOK, do(t, "GET", url+"/leaf-neighbours?layer=0&node=0&subnode=63", nil, &links))
	require.NotEmpty(t, links.Links)
	for _, link := range links.Links {
		require.True(t, link.IsValid())
	}

	for _, query := range []string{
		"layer=0&node=8",
		"layer=3&node=0",
		"layer=0&node=0&subnode=64",
		"layer=0",
		"node=-1&layer=0",
	} {
		require.Equal(t, http.StatusBadRequest, do(t, "GET", url+"/neighbours?"+query, nil, nil), query)
	}
}

func TestSaveAndLoadVolume(t *testing.T) {
	s := newTestServer(t)
	v := buildVolume(t, s)

	require.Equal(t, http.StatusOK, do(t, "POST", s.URL+"/api/volumes/"+v.ID+"/save", FileRequest{
		Filename: "corner.svon",
	}, nil))

	var info builder.FileInfo
	require.Equal(t, http.StatusOK, do(t, "GET", s.URL+"/api/files/info?filename=corner.svon", nil, &info))
	require.Equal(t, "corner.svon", info.Filename)
	require.Equal(t, uint8(2), info.VoxelPower)
	require.Equal(t, v.Stats.Nodes, info.Stats.Nodes)

	var loaded VolumeResponse
	require.Equal(t, http.StatusCreated, do(t, "POST", s.URL+"/api/load", FileRequest{
		Filename: "corner.svon",
	}, &loaded))
	require.NotEqual(t, v.ID, loaded.ID)
	require.Equal(t, v.Stats.Nodes, loaded.Stats.Nodes)
	require.Equal(t, v.Stats.BlockedSubVoxels, loaded.Stats.BlockedSubVoxels)

	require.Equal(t, http.StatusNotFound, do(t, "POST", s.URL+"/api/load", FileRequest{Filename: "missing.svon"}, nil))
	require.Equal(t, http.StatusNotFound, do(t, "GET", s.URL+"/api/files/info?filename=missing.svon", nil, nil))

	for _, filename := range []string{"", "../corner.svon", "a/b.svon", ".."} {
		t.Run(fmt.Sprintf("reject %q", filename), func(t *testing.T) {
			require.Equal(t, http.StatusBadRequest, do(t, "POST", s.URL+"/api/volumes/"+v.ID+"/save", FileRequest{
				Filename: filename,
			}, nil))
		})
	}
}

func TestMetricsPathFormatter(t *testing.T) {
	require.Equal(t, "/api/volumes/{id}/neighbours", metricsPathFormatter(http.StatusOK, "/api/volumes/5b1c/neighbours"))
	require.Equal(t, "/api/volumes", metricsPathFormatter(http.StatusOK, "/api/volumes"))
	require.Equal(t, "/api/load", metricsPathFormatter(http.StatusCreated, "/api/load"))
	require.Empty(t, metricsPathFormatter(http.StatusNotFound, "/api/volumes/5b1c"))
}
