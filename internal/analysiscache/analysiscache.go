package analysiscache

import (
	"sync"

	"github.com/seclab/argus/callgraph"
	"github.com/seclab/argus/interproc"
	"github.com/seclab/argus/pta"
)

// Cache stores expensive artifacts derived from a completed points-to
// analysis that several downstream analyses share: the collapsed call graph
// and the inter-procedural CFG.
type Cache struct {
	pts *pta.Result

	cgOnce sync.Once
	cg     *callgraph.Graph

	icfgOnce sync.Once
	icfg     *interproc.ICFG
}

// New builds a cache around a points-to result.
func New(pts *pta.Result) *Cache {
	return &Cache{pts: pts}
}

// PointsTo returns the underlying points-to result.
func (c *Cache) PointsTo() *pta.Result { return c.pts }

// CallGraph returns the lazily built context-insensitive call graph. It is
// safe for concurrent use by multiple analyses.
func (c *Cache) CallGraph() *callgraph.Graph {
	if c == nil {
		return nil
	}
	c.cgOnce.Do(func() {
		c.cg = c.pts.CallGraphCI()
	})
	return c.cg
}

// ICFG returns the lazily built inter-procedural CFG.
func (c *Cache) ICFG() *interproc.ICFG {
	if c == nil {
		return nil
	}
	c.icfgOnce.Do(func() {
		c.icfg = interproc.BuildICFG(c.CallGraph())
	})
	return c.icfg
}
