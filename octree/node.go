package octree

import (
	"github.com/aukilabs/octree/geometry"
)

// NodeID addresses a node in the arena of a tree.
type NodeID int32

const (
	// RootID is the id of the root node. The root lives as long as its tree.
	RootID NodeID = 0

	noNode NodeID = -1
)

// A node is either a leaf, holding objects in its bucket, or split, with its
// objects pushed down into children. Children slots are filled on first use.
type node struct {
	aabb      geometry.AABB
	octants   [8]geometry.AABB
	octants2D [8]geometry.AABB2
	depth     int
	parent    NodeID
	children  *[8]NodeID
	objects   []Object
	live      bool
}

func (n *node) reset(box geometry.AABB, depth int, parent NodeID) {
	n.aabb = box
	n.octants = box.Octants()
	for i, o := range n.octants {
		n.octants2D[i] = o.Project2D()
	}
	n.depth = depth
	n.parent = parent
	n.children = nil
	clear(n.objects)
	n.objects = n.objects[:0]
	n.live = true
}

func (n *node) release() {
	clear(n.objects)
	n.objects = n.objects[:0]
	n.children = nil
	n.parent = noNode
	n.live = false
}

func (n *node) isLeaf() bool {
	return n.children == nil
}

func (n *node) indexOf(obj Object) int {
	for i, o := range n.objects {
		if o == obj {
			return i
		}
	}
	return -1
}

func (n *node) removeFromBucket(obj Object) {
	i := n.indexOf(obj)
	if i < 0 {
		return
	}

	last := len(n.objects) - 1
	copy(n.objects[i:], n.objects[i+1:])
	n.objects[last] = nil
	n.objects = n.objects[:last]
}

// newNode takes a node from the pool, or grows the arena when the pool is
// empty.
func (t *Tree) newNode(box geometry.AABB, depth int, parent NodeID) NodeID {
	var id NodeID
	if l := len(t.free); l > 0 {
		id = t.free[l-1]
		t.free = t.free[:l-1]
	} else {
		id = NodeID(len(t.nodes))
		t.nodes = append(t.nodes, &node{})
	}

	t.nodes[id].reset(box, depth, parent)
	t.nodeCount++
	return id
}

// destroy returns the subtree rooted at id to the pool. The root is never
// destroyed.
func (t *Tree) destroy(id NodeID) {
	if id == RootID {
		return
	}

	n := t.nodes[id]
	if n.children != nil {
		for _, c := range n.children {
			if c != noNode {
				t.destroy(c)
			}
		}
	}

	n.release()
	t.free = append(t.free, id)
	t.nodeCount--
	t.collapses++
	instrumentCollapse(t.opts.Name)
}

// child returns the child for the given octant, creating it when the slot is
// still empty.
func (t *Tree) child(id NodeID, octant int) NodeID {
	n := t.nodes[id]
	if c := n.children[octant]; c != noNode {
		return c
	}

	c := t.newNode(n.octants[octant], n.depth+1, id)
	n.children[octant] = c
	return c
}

func (t *Tree) trackDepth(depth int) {
	if depth > t.maxDepth {
		t.maxDepth = depth
	}
}

func (t *Tree) addObject(id NodeID, obj Object, box geometry.AABB) {
	n := t.nodes[id]
	t.trackDepth(n.depth)

	if !n.isLeaf() {
		for i := range n.octants {
			if n.octants[i].Intersects(box) {
				t.addObject(t.child(id, i), obj, box)
			}
		}
		return
	}

	if n.indexOf(obj) >= 0 {
		return
	}
	n.objects = append(n.objects, obj)

	if len(n.objects) > t.opts.BucketSize && n.aabb.MinExtent() > t.opts.MinOctantSize {
		t.split(id)
	}
}

func (t *Tree) split(id NodeID) {
	n := t.nodes[id]

	children := [8]NodeID{noNode, noNode, noNode, noNode, noNode, noNode, noNode, noNode}
	n.children = &children

	objects := n.objects
	n.objects = nil

	materialized := false
	for _, obj := range objects {
		box := obj.AABB()
		for i := range n.octants {
			if n.octants[i].Intersects(box) {
				t.addObject(t.child(id, i), obj, box)
				materialized = true
			}
		}
	}

	// Every object moved out of the node since it was added.
	if !materialized {
		n.children = nil
		n.objects = objects
		return
	}

	t.splits++
	instrumentSplit(t.opts.Name)
}

// removeObject purges obj from the buckets of the subtree that intersect
// region. When evict is false, the object is only dropped from nodes it no
// longer overlaps, or from every visited node once it is not collidable.
// Children left empty are destroyed, and a node whose children are all gone
// becomes a leaf again.
func (t *Tree) removeObject(id NodeID, obj Object, region geometry.AABB, evict bool) {
	n := t.nodes[id]

	if evict || !obj.Collidable() || !n.aabb.Intersects(obj.AABB()) {
		n.removeFromBucket(obj)
	}

	if n.isLeaf() {
		return
	}

	remaining := 0
	for i, c := range n.children {
		if c == noNode {
			continue
		}

		if n.octants[i].Intersects(region) {
			t.removeObject(c, obj, region, evict)

			if t.empty(c) {
				t.destroy(c)
				n.children[i] = noNode
				continue
			}
		}
		remaining++
	}

	if remaining == 0 {
		n.children = nil
	}
}

// empty reports whether the subtree rooted at id holds no object. It walks
// the whole subtree.
func (t *Tree) empty(id NodeID) bool {
	n := t.nodes[id]
	if len(n.objects) != 0 {
		return false
	}

	if n.isLeaf() {
		return true
	}

	for _, c := range n.children {
		if c != noNode && !t.empty(c) {
			return false
		}
	}
	return true
}

func (t *Tree) updateObject(obj Object) bool {
	box := obj.AABB()
	saved := obj.SavedAABB()
	if box == saved {
		return false
	}

	if t.nodes[RootID].aabb.Intersects(box) {
		t.addObject(RootID, obj, box)
	}
	t.removeObject(RootID, obj, saved, false)
	obj.SaveAABB()
	return true
}

// query holds the state scoped to one traversal.
type query struct {
	// When set, the traversal stops as soon as the candidate is no longer
	// collidable.
	candidate Object

	generation uint32
	seen       map[Object]struct{}
}

func (q *query) stopped() bool {
	return q.candidate != nil && !q.candidate.Collidable()
}

func (t *Tree) visit(id NodeID, box geometry.AABB, q *query, fn Visitor) {
	n := t.nodes[id]

	if q.stopped() {
		return
	}
	for _, obj := range n.objects {
		if obj.AABB().Intersects(box) {
			fn(obj)
		}
	}

	if n.isLeaf() {
		return
	}
	for i, c := range n.children {
		if c != noNode && n.octants[i].Intersects(box) {
			t.visit(c, box, q, fn)
		}
	}
}

func (t *Tree) visit2D(id NodeID, box geometry.AABB2, q *query, fn Visitor) {
	n := t.nodes[id]

	if q.stopped() {
		return
	}
	for _, obj := range n.objects {
		if obj.AABB().Project2D().Intersects(box) {
			fn(obj)
		}
	}

	if n.isLeaf() {
		return
	}
	for i, c := range n.children {
		if c != noNode && n.octants2D[i].Intersects(box) {
			t.visit2D(c, box, q, fn)
		}
	}
}

func (t *Tree) visitObjects(id NodeID, fn func(NodeID, Object)) {
	n := t.nodes[id]
	for _, obj := range n.objects {
		fn(id, obj)
	}

	if n.isLeaf() {
		return
	}
	for _, c := range n.children {
		if c != noNode {
			t.visitObjects(c, fn)
		}
	}
}

func (t *Tree) visitAABBs(id NodeID, fn func(geometry.AABB, int)) {
	n := t.nodes[id]
	fn(n.aabb, n.depth)

	if n.isLeaf() {
		return
	}
	for _, c := range n.children {
		if c != noNode {
			t.visitAABBs(c, fn)
		}
	}
}
