package pta

// Plugin observes and extends the solver. The taint analysis is the shipped
// plugin: it seeds taint objects at source calls and forwards taint through
// its own flow graph alongside pointer propagation.
type Plugin interface {
	// OnNewCallEdge runs when a call edge is added for the first time,
	// before argument and return wiring.
	OnNewCallEdge(e *CSEdge)
	// OnPropagate runs after a non-empty delta has been committed to p's
	// points-to set.
	OnPropagate(p Pointer, delta *PointsToSet)
	// OnFinish runs once the worklist is exhausted, before the result is
	// returned.
	OnFinish(r *Result)
}
