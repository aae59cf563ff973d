package octree

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	treeLabel      = "tree"
	operationLabel = "operation"

	opFullUpdate    = "full_update"
	opDynamicUpdate = "dynamic_update"
	opCollisions    = "collisions"
)

var (
	octreeNodeCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "octree_node_count",
		Help: "The number of live nodes, root included.",
	}, []string{treeLabel})

	octreeMaxDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "octree_max_depth",
		Help: "The maximum node depth observed during the last update pass.",
	}, []string{treeLabel})

	octreeSplits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_splits_total",
		Help: "The number of leaf nodes split into octants.",
	}, []string{treeLabel})

	octreeCollapses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_collapses_total",
		Help: "The number of empty nodes destroyed after a removal.",
	}, []string{treeLabel})

	octreeOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "octree_operation_latency",
		Help: "The time to run a batch operation over the tree.",
	}, []string{
		treeLabel,
		operationLabel,
	})
)

func instrumentShape(tree string, nodeCount, maxDepth int) {
	octreeNodeCount.
		With(prometheus.Labels{treeLabel: tree}).
		Set(float64(nodeCount))

	octreeMaxDepth.
		With(prometheus.Labels{treeLabel: tree}).
		Set(float64(maxDepth))
}

func instrumentSplit(tree string) {
	octreeSplits.
		With(prometheus.Labels{treeLabel: tree}).
		Inc()
}

func instrumentCollapse(tree string) {
	octreeCollapses.
		With(prometheus.Labels{treeLabel: tree}).
		Inc()
}

func instrumentLatency(tree, operation string, start time.Time) {
	octreeOperationLatency.With(prometheus.Labels{
		treeLabel:      tree,
		operationLabel: operation,
	}).Observe(time.Since(start).Seconds())
}
