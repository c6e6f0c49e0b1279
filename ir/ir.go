package ir

// Var is a method-local variable, parameter or this-reference.
type Var struct {
	name   string
	method *Method
	typ    *Type

	invokes     []*Stmt
	loadFields  []*Stmt
	storeFields []*Stmt
	loadArrays  []*Stmt
	storeArrays []*Stmt
}

// Name returns the variable name.
func (v *Var) Name() string { return v.name }

// Method returns the declaring method.
func (v *Var) Method() *Method { return v.method }

// Type returns the declared type.
func (v *Var) Type() *Type { return v.typ }

// Invokes returns the instance invokes with this variable as receiver.
func (v *Var) Invokes() []*Stmt { return v.invokes }

// LoadFields returns the statements loading an instance field of this
// variable (x = v.f).
func (v *Var) LoadFields() []*Stmt { return v.loadFields }

// StoreFields returns the statements storing into an instance field of this
// variable (v.f = x).
func (v *Var) StoreFields() []*Stmt { return v.storeFields }

// LoadArrays returns the statements loading an element of this variable.
func (v *Var) LoadArrays() []*Stmt { return v.loadArrays }

// StoreArrays returns the statements storing an element of this variable.
func (v *Var) StoreArrays() []*Stmt { return v.storeArrays }

func (v *Var) String() string { return v.method.name + "/" + v.name }

// IR is a finished method body.
type IR struct {
	method  *Method
	this    *Var
	params  []*Var
	retVars []*Var
	vars    []*Var
	stmts   []*Stmt
	cfg     *CFG
}

// Method returns the owning method.
func (r *IR) Method() *Method { return r.method }

// This returns the receiver variable, nil for static methods.
func (r *IR) This() *Var { return r.this }

// Params returns the parameter variables in declaration order.
func (r *IR) Params() []*Var { return r.params }

// ReturnVars returns the variables appearing in return statements.
func (r *IR) ReturnVars() []*Var { return r.retVars }

// Vars returns every variable of the method.
func (r *IR) Vars() []*Var { return r.vars }

// Stmts returns the statements in program order.
func (r *IR) Stmts() []*Stmt { return r.stmts }

// CFG returns the control-flow graph of this body.
func (r *IR) CFG() *CFG { return r.cfg }
