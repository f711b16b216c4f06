// Package config holds the process-wide settings consulted by the codec, toc,
// writer, reader, and combiner packages.
//
// It mirrors the shape of the teacher's per-type encoder config
// (blob.NumericEncoderConfig): a plain struct holding thresholds and a
// package-level default instance, mutated only at startup via Configure.
// Callers wanting per-instance overrides pass explicit functional options to
// writer.New / reader.Open / combiner.New instead of touching the global.
package config

import "fmt"

// MaxMagicLen is the maximum length, in bytes, of a file magic.
const MaxMagicLen = 30

// DefaultMagic is the magic written when no override is configured.
var DefaultMagic = []byte("msglc-2024")

// Config holds the tunable knobs enumerated in spec.md §6.
type Config struct {
	// SmallObjOptimizationThreshold is SMALL: the minimum packed byte span a
	// container must exceed before the TOC builder indexes its children
	// individually.
	SmallObjOptimizationThreshold int
	// TrivialSize is TRIVIAL: the per-child "small" cutoff used to decide
	// whether an array qualifies for block grouping.
	TrivialSize int
	// WriteBufferSize and ReadBufferSize size the bufio wrapper used by
	// the stores that storage.LocalFileSystem opens.
	WriteBufferSize int
	ReadBufferSize  int
	// FastLoading enables bulk-decode on ToPlainObject when few children have
	// been individually accessed.
	FastLoading bool
	// FastLoadingThreshold is the accessed/total fraction below which fast
	// loading fires.
	FastLoadingThreshold float64
	// CopyChunkSize is the combiner's transfer chunk size.
	CopyChunkSize int
	// SimpleRepr is stored for the string-representation knob, but no
	// package in this module reads it: Reader, LazyList and LazyDict define
	// no String method, so its value has no effect.
	SimpleRepr bool
	// DisableGC enables the cooperative GC suppressor for the duration of any
	// open Reader/Writer/Combiner.
	DisableGC bool
	// Magic overrides the default file magic (<=MaxMagicLen bytes).
	Magic []byte
}

// Default returns a Config populated with the library defaults.
func Default() Config {
	return Config{
		SmallObjOptimizationThreshold: 1 << 13, // 8KiB
		TrivialSize:                   20,
		WriteBufferSize:               1 << 16, // 64KiB
		ReadBufferSize:                1 << 16, // 64KiB
		FastLoading:                   true,
		FastLoadingThreshold:          0.3,
		CopyChunkSize:                 1 << 24, // 16MiB
		SimpleRepr:                    true,
		DisableGC:                     false,
		Magic:                         append([]byte(nil), DefaultMagic...),
	}
}

// global is the process-wide configuration record. Mutation is not
// thread-safe and should occur only at startup (spec.md §5).
var global = Default()

// Global returns a copy of the current process-wide configuration.
func Global() Config {
	return global
}

// Configure mutates the process-wide configuration in place.
//
// It keeps the invariant TrivialSize <= SmallObjOptimizationThreshold: when
// an option would leave SmallObjOptimizationThreshold below TrivialSize,
// whichever of the two was set, SmallObjOptimizationThreshold is raised to
// TrivialSize.
func Configure(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(&global); err != nil {
			return err
		}
	}

	if global.TrivialSize > global.SmallObjOptimizationThreshold {
		global.SmallObjOptimizationThreshold = global.TrivialSize
	}

	return nil
}

// Option mutates a Config in place, returning an error for invalid input.
type Option func(*Config) error

// WithSmallObjOptimizationThreshold sets SMALL. A value below the current
// TrivialSize is raised to TrivialSize.
func WithSmallObjOptimizationThreshold(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("small_obj_optimization_threshold must be positive, got %d", n)
		}
		c.SmallObjOptimizationThreshold = n
		if c.TrivialSize > c.SmallObjOptimizationThreshold {
			c.SmallObjOptimizationThreshold = c.TrivialSize
		}

		return nil
	}
}

// WithTrivialSize sets TRIVIAL.
func WithTrivialSize(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("trivial_size must be positive, got %d", n)
		}
		c.TrivialSize = n
		if c.TrivialSize > c.SmallObjOptimizationThreshold {
			c.SmallObjOptimizationThreshold = c.TrivialSize
		}

		return nil
	}
}

// WithWriteBufferSize sets the write-side bufio size.
func WithWriteBufferSize(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("write_buffer_size must be positive, got %d", n)
		}
		c.WriteBufferSize = n

		return nil
	}
}

// WithReadBufferSize sets the read-side bufio size.
func WithReadBufferSize(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("read_buffer_size must be positive, got %d", n)
		}
		c.ReadBufferSize = n

		return nil
	}
}

// WithFastLoading toggles bulk-decode on ToPlainObject.
func WithFastLoading(enabled bool) Option {
	return func(c *Config) error {
		c.FastLoading = enabled
		return nil
	}
}

// WithFastLoadingThreshold sets the accessed/total fraction gating fast loading.
func WithFastLoadingThreshold(f float64) Option {
	return func(c *Config) error {
		if f < 0 || f > 1 {
			return fmt.Errorf("fast_loading_threshold must be in [0, 1], got %f", f)
		}
		c.FastLoadingThreshold = f

		return nil
	}
}

// WithCopyChunkSize sets the combiner transfer chunk size.
func WithCopyChunkSize(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("copy_chunk_size must be positive, got %d", n)
		}
		c.CopyChunkSize = n

		return nil
	}
}

// WithSimpleRepr sets SimpleRepr, which no package in this module reads.
func WithSimpleRepr(enabled bool) Option {
	return func(c *Config) error {
		c.SimpleRepr = enabled
		return nil
	}
}

// WithDisableGC toggles the cooperative GC suppressor.
func WithDisableGC(enabled bool) Option {
	return func(c *Config) error {
		c.DisableGC = enabled
		return nil
	}
}

// WithMagic overrides the file magic. magic must be non-empty and no longer
// than MaxMagicLen.
func WithMagic(magic []byte) Option {
	return func(c *Config) error {
		if len(magic) == 0 || len(magic) > MaxMagicLen {
			return fmt.Errorf("magic must be 1..%d bytes, got %d", MaxMagicLen, len(magic))
		}
		c.Magic = append([]byte(nil), magic...)

		return nil
	}
}

// PaddedMagic left-pads c.Magic with 0x00 to MaxMagicLen bytes, the on-disk
// form written at the start of every file (spec.md §3, §6).
func (c Config) PaddedMagic() []byte {
	return padLeft(c.Magic, MaxMagicLen)
}

// CheckCompatibility reports whether header, a MaxMagicLen-byte prefix read
// from a file, is compatible with c's configured magic. Leading 0x00 bytes
// are stripped from both sides and the remainders must be equal, so shorter
// user-set magics within the 30-byte slot are tolerated while any other
// non-zero byte in the slot is rejected (spec.md §6).
func (c Config) CheckCompatibility(header []byte) bool {
	want := stripLeadingZeros(c.PaddedMagic())
	got := stripLeadingZeros(header)

	return string(got) == string(want)
}

func padLeft(b []byte, n int) []byte {
	if len(b) >= n {
		return b[len(b)-n:]
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)

	return out
}

func stripLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}

	return b[i:]
}
