package heap

// Class is a named method table. Method lookup, including through
// inheritance, is resolved entirely at OP_INHERIT time by copying the
// superclass's method table into the subclass's, so a Class never needs
// a live Superclass pointer at runtime; it only needs one during
// GET_SUPER/SUPER_INVOKE, where the compiler captures the superclass as
// a synthetic local instead.
type Class struct {
	header
	Name    *String
	Methods Table
}

func (c *Class) Kind() ObjKind  { return ObjClass }
func (c *Class) String() string { return c.Name.Chars }

// Method looks up name in this class's method table.
func (c *Class) Method(name *String) (Value, bool) {
	return c.Methods.Get(name)
}

// SetMethod installs closure as the method named name.
func (c *Class) SetMethod(name *String, closure Value) {
	c.Methods.Set(name, closure)
}
