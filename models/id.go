package models

import (
	"sort"
	"sync"
)

// IDGenerator hands out sequential ids starting at 1. Released ids are handed
// out again before new ones, lowest first.
type IDGenerator struct {
	mutex     sync.Mutex
	currentID uint32
	released  []uint32
}

func (g *IDGenerator) New() uint32 {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if len(g.released) != 0 {
		id := g.released[0]
		g.released = g.released[1:]
		return id
	}

	g.currentID++
	return g.currentID
}

// Reuse releases the given id. Ids that were never handed out, or that are
// already released, are ignored.
func (g *IDGenerator) Reuse(id uint32) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if id == 0 || id > g.currentID {
		return
	}

	i := sort.Search(len(g.released), func(i int) bool {
		return g.released[i] >= id
	})
	if i < len(g.released) && g.released[i] == id {
		return
	}

	g.released = append(g.released, 0)
	copy(g.released[i+1:], g.released[i:])
	g.released[i] = id
}
