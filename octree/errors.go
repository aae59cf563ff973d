package octree

import "github.com/aukilabs/go-tooling/pkg/errors"

const (
	ErrTypeNoParent             = "no_parent"
	ErrTypeNoChildren           = "no_children"
	ErrTypeUnknownNode          = "unknown_node"
	ErrTypeUnpartitionedObjects = "unpartitioned_objects"
)

func errNoParent(id NodeID) error {
	return errors.New("root node has no parent").
		WithType(ErrTypeNoParent).
		WithTag("node_id", id)
}

func errNoChildren(id NodeID) error {
	return errors.New("leaf node has no children").
		WithType(ErrTypeNoChildren).
		WithTag("node_id", id)
}

func errUnknownNode(id NodeID) error {
	return errors.New("node does not exist").
		WithType(ErrTypeUnknownNode).
		WithTag("node_id", id)
}
