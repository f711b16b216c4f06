package reader

// Stats accumulates the I/O a Reader (and every embedded Reader it
// produces, which share one Stats instance) has actually performed —
// useful for verifying the "read only the bytes strictly needed for a
// path" claim in spec.md §1.
type Stats struct {
	BytesRead int64
	Reads     int64
}

func (s *Stats) add(n int) {
	if s == nil {
		return
	}
	s.BytesRead += int64(n)
	s.Reads++
}
