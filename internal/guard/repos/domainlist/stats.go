package domainlist

// CacheStats reports lightweight cache metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type CacheStats struct {
	Capacity  int    `json:"capacity"`  // configured capacity (0 for disabled cache)
	Size      int    `json:"size"`      // current number of entries
	Hits      uint64 `json:"hits"`      // total cache hits since construction
	Misses    uint64 `json:"misses"`    // total cache misses since construction
	Evictions uint64 `json:"evictions"` // total evictions since construction
}

// StoreStats reports lightweight store metrics and metadata.
type StoreStats struct {
	Version     uint64 `json:"version"`      // snapshot version (0 if unknown)
	UpdatedUnix int64  `json:"updated_unix"` // last updated unix time (0 if unknown)
	ExactKeys   uint64 `json:"exact_keys"`
	SuffixKeys  uint64 `json:"suffix_keys"`
}

// RepoStats exposes repository-level counters and underlying stats.
type RepoStats struct {
	Decisions  uint64     `json:"decisions"`
	BloomSkips uint64     `json:"bloom_skips"` // hosts allowed without touching cache or store
	StoreErrs  uint64     `json:"store_errors"`
	Cache      CacheStats `json:"cache"`
	Store      StoreStats `json:"store"`
}
