package heap

// Instance is an object created by calling a Class: a reference to its
// class plus an open field table. Spec ordering guarantee: "method
// lookup is field-first" — GET_PROPERTY consults Fields before falling
// through to Class.Method, while SET_PROPERTY always writes Fields and
// never a method.
type Instance struct {
	header
	Class  *Class
	Fields Table
}

func (i *Instance) Kind() ObjKind  { return ObjInstance }
func (i *Instance) String() string { return i.Class.Name.Chars + " instance" }
