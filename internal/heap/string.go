package heap

// String is an immutable, interned character sequence. Exactly one
// instance exists per distinct content across a Heap's lifetime (spec
// §3's string invariant); Heap.InternString is the only constructor that
// should be used to obtain one.
type String struct {
	header
	Chars string
	Hash  uint32
}

func (s *String) Kind() ObjKind  { return ObjString }
func (s *String) String() string { return s.Chars }
func (s *String) Len() int       { return len(s.Chars) }

// hashString implements the FNV-1a hash used by original_source/table.c's
// ObjString.hash field, kept verbatim since the spec's hash table (§3)
// depends only on this hash being stable and well-distributed, not on any
// particular algorithm.
func hashString(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}
