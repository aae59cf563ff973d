package main

import (
	"math/rand"
	"testing"
	"time"

	"github.com/aukilabs/octree/geometry"
	"github.com/aukilabs/octree/models"
	"github.com/aukilabs/octree/octree"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func validConfig() config {
	return config{
		WorldExtent:   100,
		MinOctantSize: 1,
		BucketSize:    8,
		FrameDuration: time.Millisecond * 15,
		Bodies:        50,
		Shapes:        4,
		MaxSpeed:      10,
	}
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, validateConfig(validConfig()))

	tests := []struct {
		name   string
		modify func(*config)
	}{
		{name: "zero extent", modify: func(c *config) { c.WorldExtent = 0 }},
		{name: "negative min octant size", modify: func(c *config) { c.MinOctantSize = -1 }},
		{name: "zero bucket size", modify: func(c *config) { c.BucketSize = 0 }},
		{name: "zero frame duration", modify: func(c *config) { c.FrameDuration = 0 }},
		{name: "negative bodies", modify: func(c *config) { c.Bodies = -1 }},
		{name: "world too small", modify: func(c *config) { c.MinOctantSize = 50 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conf := validConfig()
			test.modify(&conf)
			require.Error(t, validateConfig(conf))
		})
	}
}

func TestPopulate(t *testing.T) {
	conf := validConfig()
	world := models.NewWorld(models.WorldOptions{
		Tree: octree.Options{
			Bounds:        geometry.NewAABB(mgl64.Vec3{-100, -100, -100}, mgl64.Vec3{100, 100, 100}),
			MinOctantSize: conf.MinOctantSize,
			BucketSize:    conf.BucketSize,
		},
	})

	populate(world, rand.New(rand.NewSource(1)), conf)

	stats := world.Stats()
	require.Equal(t, conf.Bodies, stats.Entities)
	require.Equal(t, conf.Shapes, stats.Shapes)

	for _, b := range world.Bodies() {
		require.True(t, world.Bounds().ContainsAABB(b.AABB()), "body %d", b.ID())
	}
}
