package tbf

import "hash/fnv"

// Fingerprint derives a stable 64-bit identity from a tensor name
// (FNV-1a). Two distinct names that collide are indistinguishable at the
// format level; this is an accepted risk, not a checked condition.
func Fingerprint(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return h.Sum64()
}
