package main

const fnv64Offset = 1469598103934665603
const fnv64Prime = 1099511628211

// SolveRequestKey identifies one solve request in the result cache. The goal
// hash and the algorithm/heuristic salt go through an avalanche step before
// mixing, so solving A to B and B to A, or the same pair under two
// algorithms, occupy distinct entries.
func SolveRequestKey(start, goal Board, algorithm, heuristic string) uint64 {
	key := ComputeHash(start)
	key ^= mixKey(ComputeHash(goal))
	key ^= mixKey(hashName(algorithm)<<1 ^ hashName(heuristic))
	return key
}

func hashName(name string) uint64 {
	hash := uint64(fnv64Offset)
	for i := 0; i < len(name); i++ {
		hash ^= uint64(name[i])
		hash *= fnv64Prime
	}
	return hash
}

func mixKey(v uint64) uint64 {
	v += 0x9e3779b97f4a7c15
	v = (v ^ (v >> 30)) * 0xbf58476d1ce4e5b9
	v = (v ^ (v >> 27)) * 0x94d049bb133111eb
	return v ^ (v >> 31)
}
