package models

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/octree/featureflag"
	"github.com/aukilabs/octree/geometry"
	"github.com/aukilabs/octree/octree"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

const (
	ErrTypeBodyAlreadyAdded = "body_already_added"
)

type WorldOptions struct {
	// The octree configuration. Its bounds are also the walls bodies bounce
	// off.
	Tree octree.Options

	FeatureFlags featureflag.FeatureFlag

	// The duration between each frame summary log. Summaries are disabled
	// when zero.
	LogSummaryInterval time.Duration
}

// World owns a set of bodies and the octree indexing them. Bodies are kept
// partitioned: entities first, shapes last. Shapes are static and never
// indexed; queries test them one by one.
//
// Every tree access goes through the world lock, so a world is safe for
// concurrent use.
type World struct {
	ID string

	name   string
	bounds geometry.AABB
	flags  featureflag.FeatureFlag

	mutex       sync.Mutex
	tree        *octree.Tree
	bodyIDs     IDGenerator
	bodies      map[uint32]*Body
	objects     []octree.Object
	entityCount int
	frame       uint64

	startFrameOnce  sync.Once
	frameHandlerIDs IDGenerator
	frameHandlers   map[uint32]func(FrameStats)
	frameMutex      sync.RWMutex

	summaryInterval time.Duration
	counterMutex    sync.Mutex
	counter         map[string]int
}

func NewWorld(opts WorldOptions) *World {
	tree := octree.New(opts.Tree)

	flags := opts.FeatureFlags
	if flags == nil {
		flags = featureflag.New(nil)
	}

	w := &World{
		ID:              uuid.NewString(),
		name:            tree.Options().Name,
		bounds:          tree.Options().Bounds,
		flags:           flags,
		tree:            tree,
		bodies:          make(map[uint32]*Body),
		frameHandlers:   make(map[uint32]func(FrameStats)),
		summaryInterval: opts.LogSummaryInterval,
		counter:         make(map[string]int),
	}
	w.instrumentBodies()
	return w
}

func (w *World) Name() string {
	return w.name
}

func (w *World) Bounds() geometry.AABB {
	return w.bounds
}

// NewBody creates a body with a fresh id and adds it to the world.
func (w *World) NewBody(opts BodyOptions) *Body {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	id := w.bodyIDs.New()
	for {
		if _, ok := w.bodies[id]; !ok {
			break
		}
		id = w.bodyIDs.New()
	}

	b := NewBody(id, opts)
	w.addBody(b)
	return b
}

// AddBody adds a body created with NewBody. Entities are indexed right away.
func (w *World) AddBody(b *Body) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if _, ok := w.bodies[b.ID()]; ok {
		return errors.New("body already added").
			WithType(ErrTypeBodyAlreadyAdded).
			WithTag("body_id", b.ID())
	}

	w.addBody(b)
	return nil
}

func (w *World) addBody(b *Body) {
	w.bodies[b.ID()] = b

	if b.Category() == octree.CategoryShape {
		w.objects = append(w.objects, b)
	} else {
		// The first shape moves to the end to make room for the entity.
		w.objects = append(w.objects, nil)
		w.objects[len(w.objects)-1] = w.objects[w.entityCount]
		w.objects[w.entityCount] = b
		w.entityCount++

		w.tree.Insert(b)
	}

	w.instrumentBodies()
	logs.WithTag("world_id", w.ID).
		WithTag("body_id", b.ID()).
		WithTag("category", b.Category().String()).
		Debug("body added")
}

// RemoveBody removes the body with the given id and releases its id. It
// returns false when there is no such body.
func (w *World) RemoveBody(id uint32) bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	b, ok := w.bodies[id]
	if !ok {
		return false
	}
	delete(w.bodies, id)

	i := 0
	for i < len(w.objects) && w.objects[i] != octree.Object(b) {
		i++
	}

	last := len(w.objects) - 1
	if i < w.entityCount {
		w.tree.Remove(b)

		// The last entity fills the hole and the last shape fills the slot
		// the last entity left.
		lastEntity := w.entityCount - 1
		w.objects[i] = w.objects[lastEntity]
		w.objects[lastEntity] = w.objects[last]
		w.entityCount--
	} else {
		w.objects[i] = w.objects[last]
	}
	w.objects[last] = nil
	w.objects = w.objects[:last]

	w.bodyIDs.Reuse(id)
	w.instrumentBodies()
	logs.WithTag("world_id", w.ID).
		WithTag("body_id", id).
		Debug("body removed")
	return true
}

func (w *World) BodyByID(id uint32) (*Body, bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	b, ok := w.bodies[id]
	return b, ok
}

// Bodies returns the bodies of the world, entities first.
func (w *World) Bodies() []*Body {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return toBodies(w.objects)
}

// Step moves the entities along their velocity for dt seconds. Bodies bounce
// off the world bounds. It returns the number of bodies that moved.
func (w *World) Step(dt float64) int {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	return w.step(dt)
}

func (w *World) step(dt float64) int {
	moved := 0
	for _, obj := range w.objects[:w.entityCount] {
		if obj.(*Body).step(dt, w.bounds) {
			moved++
		}
	}
	return moved
}

// FrameStats describes what happened during a frame.
type FrameStats struct {
	Frame       uint64        `json:"frame"`
	Duration    time.Duration `json:"duration"`
	Entities    int           `json:"entities"`
	Shapes      int           `json:"shapes"`
	Moved       int           `json:"moved"`
	FullRebuild bool          `json:"full_rebuild"`
	Collisions  [][2]uint32   `json:"collisions"`
	NodeCount   int           `json:"node_count"`
	MaxDepth    int           `json:"max_depth"`
}

// Frame steps the world, brings the index up to date and looks for the
// colliding pairs.
func (w *World) Frame(dt float64) FrameStats {
	start := time.Now()
	defer instrumentFrameLatency(w.name, start)

	w.mutex.Lock()
	defer w.mutex.Unlock()

	w.frame++
	stats := FrameStats{
		Frame:       w.frame,
		Entities:    w.entityCount,
		Shapes:      len(w.objects) - w.entityCount,
		Moved:       w.step(dt),
		FullRebuild: w.flags.IsSet(featureflag.FlagFullRebuild),
		Collisions:  [][2]uint32{},
	}

	if stats.FullRebuild {
		w.tree.FullUpdate(w.objects)
	} else {
		w.tree.DynamicUpdate(w.objects)
	}

	w.flags.IfNotSet(featureflag.FlagDisableCollisions, func() {
		w.tree.Collisions(w.objects, func(a, b octree.Object) {
			stats.Collisions = append(stats.Collisions, [2]uint32{a.ID(), b.ID()})
		})
	})

	stats.NodeCount = w.tree.NodeCount()
	stats.MaxDepth = w.tree.MaxDepth()
	stats.Duration = time.Since(start)

	instrumentCollisions(w.name, len(stats.Collisions))
	w.incCounter("frames", 1)
	w.incCounter("moved", stats.Moved)
	w.incCounter("collisions", len(stats.Collisions))
	return stats
}

// Pick returns the collidable bodies containing p, sorted by id.
func (w *World) Pick(p mgl64.Vec3) []*Body {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	objects := w.tree.Pick(p, nil, func(obj octree.Object, p mgl64.Vec3) bool {
		return obj.(*Body).ContainsPoint(p)
	})

	for _, obj := range w.objects[w.entityCount:] {
		if b := obj.(*Body); b.Collidable() && b.ContainsPoint(p) {
			objects = append(objects, b)
		}
	}
	return sortedBodies(objects)
}

// Pick2D returns the collidable bodies whose bounding box projected on the
// XY plane contains p, sorted by id.
func (w *World) Pick2D(p mgl64.Vec2) []*Body {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	objects := w.tree.Pick2D(p, nil, nil)

	for _, obj := range w.objects[w.entityCount:] {
		if obj.Collidable() && obj.AABB().Project2D().Contains(p) {
			objects = append(objects, obj)
		}
	}
	return sortedBodies(objects)
}

// Region returns the bodies whose bounding box intersects box, sorted by id.
func (w *World) Region(box geometry.AABB) []*Body {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	seen := make(map[octree.Object]struct{})
	var objects []octree.Object

	w.tree.VisitAABB(box, func(obj octree.Object) {
		if _, ok := seen[obj]; ok {
			return
		}
		seen[obj] = struct{}{}
		objects = append(objects, obj)
	})

	for _, obj := range w.objects[w.entityCount:] {
		if obj.AABB().Intersects(box) {
			objects = append(objects, obj)
		}
	}
	return sortedBodies(objects)
}

// Region2D returns the bodies whose bounding box projected on the XY plane
// intersects box, sorted by id.
func (w *World) Region2D(box geometry.AABB2) []*Body {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	seen := make(map[octree.Object]struct{})
	var objects []octree.Object

	w.tree.VisitAABB2D(box, func(obj octree.Object) {
		if _, ok := seen[obj]; ok {
			return
		}
		seen[obj] = struct{}{}
		objects = append(objects, obj)
	})

	for _, obj := range w.objects[w.entityCount:] {
		if obj.AABB().Project2D().Intersects(box) {
			objects = append(objects, obj)
		}
	}
	return sortedBodies(objects)
}

// DebugBox is the bounding box of an octree node.
type DebugBox struct {
	AABB  geometry.AABB `json:"aabb"`
	Depth int           `json:"depth"`
}

// DebugBoxes returns the boxes of every octree node, parents first.
func (w *World) DebugBoxes() []DebugBox {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	boxes := make([]DebugBox, 0, w.tree.NodeCount())
	w.tree.VisitAABBs(func(box geometry.AABB, depth int) {
		boxes = append(boxes, DebugBox{
			AABB:  box,
			Depth: depth,
		})
	})
	return boxes
}

// WorldStats describes a world and its index.
type WorldStats struct {
	ID           string       `json:"id"`
	Frame        uint64       `json:"frame"`
	Entities     int          `json:"entities"`
	Shapes       int          `json:"shapes"`
	FeatureFlags []string     `json:"feature_flags,omitempty"`
	Tree         octree.Stats `json:"tree"`
}

func (w *World) Stats() WorldStats {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	flags := w.flags.List()
	sort.Strings(flags)

	return WorldStats{
		ID:           w.ID,
		Frame:        w.frame,
		Entities:     w.entityCount,
		Shapes:       len(w.objects) - w.entityCount,
		FeatureFlags: flags,
		Tree:         w.tree.Stats(),
	}
}

// HandleFrame registers h to be called with the stats of every dispatched
// frame. Calling cancel unregisters it.
func (w *World) HandleFrame(h func(FrameStats)) (cancel func()) {
	w.frameMutex.Lock()
	defer w.frameMutex.Unlock()

	id := w.frameHandlerIDs.New()
	w.frameHandlers[id] = h

	return func() {
		w.frameMutex.Lock()
		defer w.frameMutex.Unlock()

		delete(w.frameHandlers, id)
		w.frameHandlerIDs.Reuse(id)
	}
}

// StartDispatchFrames runs a frame every frameDuration and passes its stats to
// the frame handlers, until ctx is done. Only the first call has an effect.
func (w *World) StartDispatchFrames(ctx context.Context, frameDuration time.Duration) {
	w.startFrameOnce.Do(func() {
		if w.summaryInterval > 0 {
			go w.startSummaryWorker(ctx)
			defer w.logSummary()
		}

		ticker := time.NewTicker(frameDuration)
		defer ticker.Stop()

		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return

			case now := <-ticker.C:
				stats := w.Frame(now.Sub(last).Seconds())
				last = now
				w.dispatchFrame(stats)
			}
		}
	})
}

func (w *World) dispatchFrame(stats FrameStats) {
	w.frameMutex.RLock()
	defer w.frameMutex.RUnlock()

	for _, h := range w.frameHandlers {
		h(stats)
	}
}

func (w *World) startSummaryWorker(ctx context.Context) {
	ticker := time.NewTicker(w.summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			w.logSummary()
		}
	}
}

func (w *World) incCounter(key string, n int) {
	w.counterMutex.Lock()
	defer w.counterMutex.Unlock()

	w.counter[key] += n
}

func (w *World) logSummary() {
	w.counterMutex.Lock()
	defer w.counterMutex.Unlock()

	if len(w.counter) == 0 {
		return
	}

	entry := logs.WithTag("world_id", w.ID).
		WithTag("world", w.name).
		WithTag("time_interval", w.summaryInterval)

	for k, v := range w.counter {
		entry = entry.WithTag(k, v)
		delete(w.counter, k)
	}

	if w.flags.IsSet(featureflag.FlagDisableFrameLogs) {
		return
	}
	entry.Info("frame summary")
}

func (w *World) instrumentBodies() {
	instrumentBodyCount(w.name, octree.CategoryEntity.String(), w.entityCount)
	instrumentBodyCount(w.name, octree.CategoryShape.String(), len(w.objects)-w.entityCount)
}

func toBodies(objects []octree.Object) []*Body {
	bodies := make([]*Body, len(objects))
	for i, obj := range objects {
		bodies[i] = obj.(*Body)
	}
	return bodies
}

func sortedBodies(objects []octree.Object) []*Body {
	bodies := toBodies(objects)
	sort.Slice(bodies, func(i, j int) bool {
		return bodies[i].ID() < bodies[j].ID()
	})
	return bodies
}
