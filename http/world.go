package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/octree/geometry"
	"github.com/aukilabs/octree/models"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	ErrTypeInvalidQuery = "invalid_query"
)

// World is the part of a world exposed over HTTP.
type World interface {
	Stats() models.WorldStats
	DebugBoxes() []models.DebugBox
	Pick(p mgl64.Vec3) []*models.Body
	Pick2D(p mgl64.Vec2) []*models.Body
	Region(box geometry.AABB) []*models.Body
	Region2D(box geometry.AABB2) []*models.Body
	HandleFrame(h func(models.FrameStats)) (cancel func())
}

func HandleStats(world World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, world.Stats())
	}
}

// HandleDebugBoxes returns the bounding box and depth of every octree node.
func HandleDebugBoxes(world World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, world.DebugBoxes())
	}
}

// HandlePick returns the bodies at the point given by the x, y and z query
// parameters. The pick is done on the XY plane when z is omitted.
func HandlePick(world World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		x, err := parseFloat(query, "x")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		y, err := parseFloat(query, "y")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		if !query.Has("z") {
			writeJSON(w, http.StatusOK, models.BodiesToInfo(world.Pick2D(mgl64.Vec2{x, y})))
			return
		}

		z, err := parseFloat(query, "z")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, models.BodiesToInfo(world.Pick(mgl64.Vec3{x, y, z})))
	}
}

// HandleRegion returns the bodies intersecting the box given by the min and
// max query parameters. Corners with two components select the bodies
// intersecting the box on the XY plane.
func HandleRegion(world World) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		lo, err := parseVector(query, "min")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		hi, err := parseVector(query, "max")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		var bodies []*models.Body
		switch {
		case len(lo) != len(hi):
			writeError(w, http.StatusBadRequest, errors.New("region corners have different dimensions").
				WithType(ErrTypeInvalidQuery).
				WithTag("min", query.Get("min")).
				WithTag("max", query.Get("max")))
			return

		case len(lo) == 2:
			bodies = world.Region2D(geometry.NewAABB2(
				mgl64.Vec2{lo[0], lo[1]},
				mgl64.Vec2{hi[0], hi[1]},
			))

		default:
			bodies = world.Region(geometry.NewAABB(
				mgl64.Vec3{lo[0], lo[1], lo[2]},
				mgl64.Vec3{hi[0], hi[1], hi[2]},
			))
		}
		writeJSON(w, http.StatusOK, models.BodiesToInfo(bodies))
	}
}

type valueGetter interface {
	Get(key string) string
}

func parseFloat(query valueGetter, key string) (float64, error) {
	raw := query.Get(key)
	if raw == "" {
		return 0, errors.New("missing query parameter").
			WithType(ErrTypeInvalidQuery).
			WithTag("key", key)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("invalid query parameter").
			WithType(ErrTypeInvalidQuery).
			WithTag("key", key).
			WithTag("value", raw).
			Wrap(err)
	}
	return v, nil
}

// parseVector parses a comma separated vector of two or three components.
func parseVector(query valueGetter, key string) ([]float64, error) {
	raw := query.Get(key)
	parts := strings.Split(raw, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, errors.New("invalid vector query parameter").
			WithType(ErrTypeInvalidQuery).
			WithTag("key", key).
			WithTag("value", raw)
	}

	v := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.New("invalid vector query parameter").
				WithType(ErrTypeInvalidQuery).
				WithTag("key", key).
				WithTag("value", raw).
				Wrap(err)
		}
		v[i] = f
	}
	return v, nil
}
