package heap

// ObjKind tags the concrete type of a heap Object, mirroring the C
// union-free Obj struct's `type` field from original_source/object.h.
type ObjKind uint8

const (
	ObjString ObjKind = iota
	ObjFunction
	ObjNative
	ObjClosure
	ObjUpvalue
	ObjClass
	ObjInstance
	ObjBoundMethod
)

func (k ObjKind) String() string {
	switch k {
	case ObjString:
		return "string"
	case ObjFunction:
		return "function"
	case ObjNative:
		return "native"
	case ObjClosure:
		return "closure"
	case ObjUpvalue:
		return "upvalue"
	case ObjClass:
		return "class"
	case ObjInstance:
		return "instance"
	case ObjBoundMethod:
		return "bound method"
	default:
		return "unknown"
	}
}

// Object is implemented by every heap-allocated runtime value. Every
// concrete object embeds header, which carries the mark bit and the
// intrusive next-pointer the collector uses to sweep vm.objects without
// a separate container.
type Object interface {
	Kind() ObjKind
	String() string

	marked() bool
	setMarked(bool)
	next() Object
	setNext(Object)
}

// header is embedded by every concrete heap object. It is deliberately
// unexported: callers reach its behavior only through the Object
// interface, so every new object kind gets marking and list-threading for
// free by embedding header.
type header struct {
	mark     bool
	nextLink Object
}

func (h *header) marked() bool     { return h.mark }
func (h *header) setMarked(b bool) { h.mark = b }
func (h *header) next() Object     { return h.nextLink }
func (h *header) setNext(o Object) { h.nextLink = o }
