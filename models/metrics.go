package models

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	worldLabel    = "world"
	categoryLabel = "category"
)

var (
	worldBodyCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "world_body_count",
		Help: "The number of bodies in a world.",
	}, []string{
		worldLabel,
		categoryLabel,
	})

	worldCollisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "world_collisions_total",
		Help: "The total number of colliding body pairs found during frames.",
	}, []string{worldLabel})

	worldFrameLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "world_frame_latency",
		Help: "The time to step, index and sweep a world for one frame.",
	}, []string{worldLabel})
)

func instrumentBodyCount(world, category string, count int) {
	worldBodyCount.
		With(prometheus.Labels{
			worldLabel:    world,
			categoryLabel: category,
		}).
		Set(float64(count))
}

func instrumentCollisions(world string, count int) {
	worldCollisionsTotal.
		With(prometheus.Labels{worldLabel: world}).
		Add(float64(count))
}

func instrumentFrameLatency(world string, start time.Time) {
	worldFrameLatency.
		With(prometheus.Labels{worldLabel: world}).
		Observe(time.Since(start).Seconds())
}
