package object

// fnvOffsetBasis and fnvPrime are the constants of the 32-bit FNV-1a hash, as
// specified by spec.md section 4.5 ("String hash: 32-bit FNV-1a over
// bytes").
const (
	fnvOffsetBasis uint32 = 2166136261
	fnvPrime       uint32 = 16777619
)

// emptyStringHash is the fixed hash used for the empty string, per spec.md
// 4.5 ("the empty string uses a fixed hash constant"). It is simply the
// FNV-1a offset basis, i.e. the hash of zero bytes, computed once here by
// name for clarity at call sites.
const emptyStringHash = fnvOffsetBasis

// HashString computes the 32-bit FNV-1a hash of s.
func HashString(s string) uint32 {
	if len(s) == 0 {
		return emptyStringHash
	}
	hash := fnvOffsetBasis
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= fnvPrime
	}
	return hash
}
