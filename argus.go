// Package argus wires the analysis engines together behind the analysis-id
// registry the driver talks to. The front-end hands over a populated
// ir.Hierarchy and an entry method; everything else is derived.
package argus

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/seclab/argus/callgraph"
	"github.com/seclab/argus/constprop"
	"github.com/seclab/argus/dataflow"
	"github.com/seclab/argus/deadcode"
	"github.com/seclab/argus/internal/analysiscache"
	"github.com/seclab/argus/interproc"
	"github.com/seclab/argus/ir"
	"github.com/seclab/argus/pta"
	"github.com/seclab/argus/taint"
)

var (
	// ErrUnknownAnalysis reports an unregistered analysis id.
	ErrUnknownAnalysis = errors.New("argus: unknown analysis")
	// ErrNilHierarchy reports a manager constructed without a class
	// hierarchy.
	ErrNilHierarchy = errors.New("argus: nil class hierarchy")
)

// CHAID is the registry id of the standalone class-hierarchy call-graph
// construction.
const CHAID = "cha"

// Manager runs analyses over one loaded program.
type Manager struct {
	cfg       *Config
	hierarchy *ir.Hierarchy
	logger    *log.Logger
	runID     string
}

// NewManager validates the configuration and returns a manager. A nil
// logger discards output.
func NewManager(cfg *Config, hierarchy *ir.Hierarchy, logger *log.Logger) (*Manager, error) {
	if hierarchy == nil {
		return nil, ErrNilHierarchy
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	m := &Manager{
		cfg:       cfg,
		hierarchy: hierarchy,
		logger:    logger,
		runID:     uuid.NewString(),
	}
	m.logger.Printf("argus: run %s, policy %s", m.runID, cfg.PTAPolicy)
	return m, nil
}

// RunID returns the identifier printed in the log line written when this
// manager was created.
func (m *Manager) RunID() string { return m.runID }

// Run dispatches an analysis by its registry id.
func (m *Manager) Run(id string, entry *ir.Method) (any, error) {
	switch id {
	case constprop.ID:
		return m.IntraConstProp(), nil
	case CHAID:
		return m.BuildCallGraph(entry), nil
	case pta.ID:
		return m.PointsTo(entry)
	case interproc.ID:
		res, _, err := m.InterConstProp(entry)
		return res, err
	case taint.ID:
		res, err := m.PointsTo(entry)
		if err != nil {
			return nil, err
		}
		return taint.FlowsOf(res), nil
	case deadcode.ID:
		return m.DeadCode(entry)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysis, id)
	}
}

// bodies returns every method body of the program.
func (m *Manager) bodies() []*ir.IR {
	var out []*ir.IR
	for _, c := range m.hierarchy.Classes() {
		for _, method := range c.Methods() {
			if body := method.IR(); body != nil {
				out = append(out, body)
			}
		}
	}
	return out
}

// IntraConstProp runs intra-procedural constant propagation on every method
// body. Bodies are independent, so they fan out up to the configured
// concurrency; each solver instance stays confined to one goroutine.
func (m *Manager) IntraConstProp() map[*ir.Method]*dataflow.Result[*ir.Stmt, *dataflow.CPFact] {
	results := make(map[*ir.Method]*dataflow.Result[*ir.Stmt, *dataflow.CPFact])
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(max(m.cfg.Concurrency, 1))
	for _, body := range m.bodies() {
		g.Go(func() error {
			r := constprop.Solve(body.CFG())
			mu.Lock()
			results[body.Method()] = r
			mu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never fail
	return results
}

// LiveVars runs live-variable analysis on every method body.
func (m *Manager) LiveVars() map[*ir.Method]*dataflow.Result[*ir.Stmt, *dataflow.VarSet] {
	results := make(map[*ir.Method]*dataflow.Result[*ir.Stmt, *dataflow.VarSet])
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(max(m.cfg.Concurrency, 1))
	for _, body := range m.bodies() {
		g.Go(func() error {
			r := dataflow.Solve[*ir.Stmt, *ir.CFGEdge, *dataflow.VarSet](body.CFG(), dataflow.NewLiveVars())
			mu.Lock()
			results[body.Method()] = r
			mu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never fail
	return results
}

// BuildCallGraph runs class-hierarchy call-graph construction from entry.
func (m *Manager) BuildCallGraph(entry *ir.Method) *callgraph.Graph {
	return callgraph.NewBuilder(m.hierarchy, m.logger).Build(entry)
}

// PointsTo runs the points-to analysis under the configured policy, with
// the taint plugin attached when a taint configuration is set.
func (m *Manager) PointsTo(entry *ir.Method) (*pta.Result, error) {
	solver, err := pta.NewSolver(m.hierarchy, m.cfg.PTAPolicy, m.logger)
	if err != nil {
		return nil, err
	}
	if m.cfg.TaintConfig != "" {
		tc, err := taint.LoadConfig(m.cfg.TaintConfig)
		if err != nil {
			return nil, err
		}
		plugin, err := taint.NewPlugin(solver, tc, m.hierarchy, m.logger)
		if err != nil {
			return nil, err
		}
		solver.AddPlugin(plugin)
	}
	return solver.Solve(entry), nil
}

// InterConstProp runs whole-program constant propagation: points-to first,
// then the ICFG solver over the discovered call graph. The returned solver
// exposes the alias sets for inspection.
func (m *Manager) InterConstProp(entry *ir.Method) (*dataflow.Result[*ir.Stmt, *dataflow.CPFact], *interproc.Solver, error) {
	pts, err := m.PointsTo(entry)
	if err != nil {
		return nil, nil, err
	}
	cache := analysiscache.New(pts)
	solver := interproc.NewSolver(cache.ICFG(), pts, m.logger)
	return solver.Solve(), solver, nil
}

// DeadCode detects dead statements in every method reachable from entry.
func (m *Manager) DeadCode(entry *ir.Method) (map[*ir.Method][]*ir.Stmt, error) {
	cg := m.BuildCallGraph(entry)
	constants := m.IntraConstProp()
	live := m.LiveVars()
	out := make(map[*ir.Method][]*ir.Stmt)
	for _, method := range cg.Reachable() {
		body := method.IR()
		if body == nil {
			continue
		}
		dead := deadcode.Detect(body, constants[method], live[method])
		if len(dead) > 0 {
			out[method] = dead
		}
	}
	return out, nil
}
