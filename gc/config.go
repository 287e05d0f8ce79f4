package gc

import (
	"os"
	"strconv"
)

// Config collects the collector's tunable sizes (nursery size, chunk
// size, shadow-stack capacity, debug assertions) into explicit,
// overridable parameters rather than hardwired constants.
type Config struct {
	// NurseryBytes is the total size of the nursery arena (both halves
	// combined).
	NurseryBytes int
	// ChunkBytes is the initial/overflow to-space chunk size used by
	// check_bounds.
	ChunkBytes int
	// ShadowStackFrames is the capacity, in frames, of each of the
	// read and write shadow stacks.
	ShadowStackFrames int
	// DebugAssertions gates the debug-build preconditions and
	// diagnostic prints.
	DebugAssertions bool
}

// DefaultConfig returns the tunables the collector assumes when
// nothing overrides them.
func DefaultConfig() Config {
	return Config{
		NurseryBytes:      1 << 20, // 1 MiB, split into two 512 KiB halves
		ChunkBytes:        DefaultChunkBytes,
		ShadowStackFrames: 1024,
		DebugAssertions:   false,
	}
}

// ConfigFromEnv starts from DefaultConfig and applies any of
// GIBBON_NURSERY_BYTES, GIBBON_CHUNK_BYTES, GIBBON_SHADOWSTACK_FRAMES,
// and GIBBON_DEBUG found in the environment, matching the env::var
// configuration original_source/gibbon-rts/src/gc.rs reads for
// allocator sizing.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v, ok := envInt("GIBBON_NURSERY_BYTES"); ok {
		cfg.NurseryBytes = v
	}
	if v, ok := envInt("GIBBON_CHUNK_BYTES"); ok {
		cfg.ChunkBytes = v
	}
	if v, ok := envInt("GIBBON_SHADOWSTACK_FRAMES"); ok {
		cfg.ShadowStackFrames = v
	}
	if v := os.Getenv("GIBBON_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DebugAssertions = b
		}
	}
	return cfg
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
