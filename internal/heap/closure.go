package heap

// Closure is the runtime pairing of a Function with the upvalues it
// captured at the point it was created (GLOSSARY "Closure"). Every
// closure over the same Function shares the Function but owns its own
// Upvalues slice; always len(Upvalues) == Function.UpvalueCount.
type Closure struct {
	header
	Function *Function
	Upvalues []*Upvalue
}

func (c *Closure) Kind() ObjKind  { return ObjClosure }
func (c *Closure) String() string { return c.Function.String() }
