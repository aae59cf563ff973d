package octree

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/octree/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultExtent        = 4096
	DefaultMinOctantSize = 1
	DefaultBucketSize    = 16
	DefaultName          = "default"
)

// Options configures a tree. They are fixed for the lifetime of the tree.
type Options struct {
	// The world extent covered by the root. Objects outside are never stored.
	Bounds geometry.AABB

	// The size under which a node is never split, whatever its occupancy.
	MinOctantSize float64

	// The number of objects a leaf holds before being split.
	BucketSize int

	// The name used to label metrics and logs.
	Name string
}

func (o Options) withDefaults() Options {
	if o.Bounds == (geometry.AABB{}) || o.Bounds.IsEmpty() {
		o.Bounds = geometry.AABB{
			Min: mgl64.Vec3{-DefaultExtent, -DefaultExtent, -DefaultExtent},
			Max: mgl64.Vec3{DefaultExtent, DefaultExtent, DefaultExtent},
		}
	}
	if o.MinOctantSize <= 0 {
		o.MinOctantSize = DefaultMinOctantSize
	}
	if o.BucketSize <= 0 {
		o.BucketSize = DefaultBucketSize
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	return o
}

// Tree is an octree of axis-aligned bounding boxes. Nodes are split when
// their bucket overflows and destroyed when they become empty.
//
// A tree is not safe for concurrent use. Every call, queries included, must
// be serialized by the caller.
type Tree struct {
	opts Options

	nodes     []*node
	free      []NodeID
	nodeCount int

	maxDepth   int
	generation uint32
	splits     int
	collapses  int
}

func New(opts Options) *Tree {
	t := &Tree{
		opts: opts.withDefaults(),
	}
	t.newNode(t.opts.Bounds, 1, noNode)
	t.instrument()
	return t
}

func (t *Tree) Options() Options {
	return t.opts
}

// Insert adds obj to every leaf its bounding box intersects and saves its
// bounding box. An object inserted again after moving is first evicted from
// its saved region. Objects outside of the tree bounds are ignored.
func (t *Tree) Insert(obj Object) {
	box := obj.AABB()
	if saved := obj.SavedAABB(); !saved.IsEmpty() && saved != box {
		t.removeObject(RootID, obj, saved, true)
	}

	if t.nodes[RootID].aabb.Intersects(box) {
		t.addObject(RootID, obj, box)
	}
	obj.SaveAABB()
	t.instrument()
}

// Remove drops obj from every node intersecting its current or saved
// bounding box and collapses the nodes left empty.
func (t *Tree) Remove(obj Object) {
	region := obj.AABB().Union(obj.SavedAABB())
	t.removeObject(RootID, obj, region, true)
	t.instrument()
}

// Update moves obj to the leaves intersecting its current bounding box and
// saves it. It returns false without touching the tree when obj did not move
// since the last save.
func (t *Tree) Update(obj Object) bool {
	moved := t.updateObject(obj)
	if moved {
		t.instrument()
	}
	return moved
}

// FullUpdate clears the tree and inserts the objects preceding the first
// shape, saving their bounding box. It returns the index of the first shape.
func (t *Tree) FullUpdate(objects []Object) int {
	defer instrumentLatency(t.opts.Name, opFullUpdate, time.Now())

	t.maxDepth = 0
	t.clear()

	end := Partition(objects)
	for _, obj := range objects[:end] {
		if box := obj.AABB(); t.nodes[RootID].aabb.Intersects(box) {
			t.addObject(RootID, obj, box)
		}
		obj.SaveAABB()
	}

	t.instrument()
	logs.WithTag(treeLabel, t.opts.Name).
		WithTag("object_count", end).
		WithTag("node_count", t.nodeCount).
		WithTag("max_depth", t.maxDepth).
		Debug("octree rebuilt")
	return end
}

// DynamicUpdate updates the objects preceding the first shape. Objects that
// did not move are skipped. It returns the index of the first shape.
func (t *Tree) DynamicUpdate(objects []Object) int {
	defer instrumentLatency(t.opts.Name, opDynamicUpdate, time.Now())

	t.maxDepth = 0

	end := Partition(objects)
	for _, obj := range objects[:end] {
		t.updateObject(obj)
	}

	t.instrument()
	return end
}

// Collisions finds the colliding pairs among the objects preceding the first
// shape and calls action once per pair. Candidates come from the tree and are
// confirmed with HasCollided. It returns the index of the first shape.
func (t *Tree) Collisions(objects []Object, action CollisionAction) int {
	defer instrumentLatency(t.opts.Name, opCollisions, time.Now())

	end := Partition(objects)
	for _, candidate := range objects[:end] {
		if !candidate.Collidable() {
			continue
		}

		q := query{
			candidate:  candidate,
			generation: t.nextGeneration(),
		}

		t.visitRoot(candidate.AABB(), &q, func(other Object) {
			if candidate.ID() >= other.ID() ||
				!other.Collidable() ||
				other.CollisionUpdateID() == q.generation {
				return
			}

			other.SetCollisionUpdateID(q.generation)
			if candidate.HasCollided(other) {
				action(candidate, other)
			}
		})
	}
	return end
}

// nextGeneration returns a new collision tag. Zero means never tagged and is
// skipped when the counter wraps.
func (t *Tree) nextGeneration() uint32 {
	t.generation++
	if t.generation == 0 {
		t.generation = 1
	}
	return t.generation
}

// Pick appends to results the collidable objects whose bounding box contains
// p and that satisfy pred. Each object is reported once, even when p lies on
// the boundary between leaves holding the same object.
func (t *Tree) Pick(p mgl64.Vec3, results []Object, pred PickPredicate) []Object {
	q := query{seen: make(map[Object]struct{})}

	t.visitRoot(geometry.PointAABB(p), &q, func(obj Object) {
		if !obj.Collidable() {
			return
		}
		if _, ok := q.seen[obj]; ok {
			return
		}
		q.seen[obj] = struct{}{}

		if pred == nil || pred(obj, p) {
			results = append(results, obj)
		}
	})
	return results
}

// Pick2D is the XY-plane version of Pick: Z is ignored.
func (t *Tree) Pick2D(p mgl64.Vec2, results []Object, pred PickPredicate2D) []Object {
	q := query{seen: make(map[Object]struct{})}

	t.visitRoot2D(geometry.PointAABB2(p), &q, func(obj Object) {
		if !obj.Collidable() {
			return
		}
		if _, ok := q.seen[obj]; ok {
			return
		}
		q.seen[obj] = struct{}{}

		if pred == nil || pred(obj, p) {
			results = append(results, obj)
		}
	})
	return results
}

// VisitAABB calls fn for each stored object intersecting box. An object
// stored in several leaves is visited once per leaf.
func (t *Tree) VisitAABB(box geometry.AABB, fn Visitor) {
	t.visitRoot(box, &query{}, fn)
}

func (t *Tree) VisitPoint(p mgl64.Vec3, fn Visitor) {
	t.visitRoot(geometry.PointAABB(p), &query{}, fn)
}

// VisitAABB2D calls fn for each stored object whose projection on the XY
// plane intersects box.
func (t *Tree) VisitAABB2D(box geometry.AABB2, fn Visitor) {
	t.visitRoot2D(box, &query{}, fn)
}

func (t *Tree) VisitPoint2D(p mgl64.Vec2, fn Visitor) {
	t.visitRoot2D(geometry.PointAABB2(p), &query{}, fn)
}

// VisitObject calls fn for each stored object intersecting the bounding box
// of obj. Nothing is visited when obj is not collidable, and the traversal
// stops as soon as obj stops being collidable.
func (t *Tree) VisitObject(obj Object, fn Visitor) {
	if !obj.Collidable() {
		return
	}
	t.visitRoot(obj.AABB(), &query{candidate: obj}, fn)
}

// VisitObjects calls fn for each object of each node, whatever its position.
func (t *Tree) VisitObjects(fn func(id NodeID, obj Object)) {
	t.visitObjects(RootID, fn)
}

// VisitAABBs calls fn with the bounding box and depth of every live node,
// parents before children.
func (t *Tree) VisitAABBs(fn func(box geometry.AABB, depth int)) {
	t.visitAABBs(RootID, fn)
}

func (t *Tree) visitRoot(box geometry.AABB, q *query, fn Visitor) {
	if !t.nodes[RootID].aabb.Intersects(box) {
		return
	}
	t.visit(RootID, box, q, fn)
}

func (t *Tree) visitRoot2D(box geometry.AABB2, q *query, fn Visitor) {
	if !t.nodes[RootID].aabb.Project2D().Intersects(box) {
		return
	}
	t.visit2D(RootID, box, q, fn)
}

// clear returns every node but the root to the pool and resets the root.
func (t *Tree) clear() {
	t.free = t.free[:0]
	for id := len(t.nodes) - 1; id > int(RootID); id-- {
		t.nodes[id].release()
		t.free = append(t.free, NodeID(id))
	}

	t.nodes[RootID].reset(t.opts.Bounds, 1, noNode)
	t.nodeCount = 1
}

func (t *Tree) instrument() {
	instrumentShape(t.opts.Name, t.nodeCount, t.maxDepth)
}

// NodeCount returns the number of live nodes, root included.
func (t *Tree) NodeCount() int {
	return t.nodeCount
}

// MaxDepth returns the deepest node depth reached since the last batch
// update started. The root is at depth 1.
func (t *Tree) MaxDepth() int {
	return t.maxDepth
}

// NodeInfo is a snapshot of a node.
type NodeInfo struct {
	ID      NodeID
	AABB    geometry.AABB
	Depth   int
	Leaf    bool
	Objects []Object
}

func (t *Tree) Node(id NodeID) (NodeInfo, error) {
	n, err := t.liveNode(id)
	if err != nil {
		return NodeInfo{}, err
	}

	return NodeInfo{
		ID:      id,
		AABB:    n.aabb,
		Depth:   n.depth,
		Leaf:    n.isLeaf(),
		Objects: append([]Object(nil), n.objects...),
	}, nil
}

// Parent returns the parent of the given node. Asking for the parent of the
// root is a programming error reported with ErrTypeNoParent.
func (t *Tree) Parent(id NodeID) (NodeID, error) {
	n, err := t.liveNode(id)
	if err != nil {
		return noNode, err
	}

	if n.parent == noNode {
		return noNode, errNoParent(id)
	}
	return n.parent, nil
}

// Children returns the materialized children of the given node, in octant
// order. Asking for the children of a leaf is a programming error reported
// with ErrTypeNoChildren.
func (t *Tree) Children(id NodeID) ([]NodeID, error) {
	n, err := t.liveNode(id)
	if err != nil {
		return nil, err
	}

	if n.isLeaf() {
		return nil, errNoChildren(id)
	}

	children := make([]NodeID, 0, len(n.children))
	for _, c := range n.children {
		if c != noNode {
			children = append(children, c)
		}
	}
	return children, nil
}

func (t *Tree) liveNode(id NodeID) (*node, error) {
	if id < 0 || int(id) >= len(t.nodes) || !t.nodes[id].live {
		return nil, errUnknownNode(id)
	}
	return t.nodes[id], nil
}

// Stats describes the shape of a tree.
type Stats struct {
	Name       string  `json:"name"`
	NodeCount  int     `json:"node_count"`
	LeafCount  int     `json:"leaf_count"`
	ObjectRefs int     `json:"object_refs"`
	MaxDepth   int     `json:"max_depth"`
	Splits     int     `json:"splits"`
	Collapses  int     `json:"collapses"`
	PoolSize   int     `json:"pool_size"`
	MinOctant  float64 `json:"min_octant_size"`
	BucketSize int     `json:"bucket_size"`
}

func (t *Tree) Stats() Stats {
	s := Stats{
		Name:       t.opts.Name,
		NodeCount:  t.nodeCount,
		MaxDepth:   t.maxDepth,
		Splits:     t.splits,
		Collapses:  t.collapses,
		PoolSize:   len(t.free),
		MinOctant:  t.opts.MinOctantSize,
		BucketSize: t.opts.BucketSize,
	}

	for _, n := range t.nodes {
		if !n.live {
			continue
		}
		if n.isLeaf() {
			s.LeafCount++
		}
		s.ObjectRefs += len(n.objects)
	}
	return s
}
