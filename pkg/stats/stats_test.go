package stats

import "testing"

func TestBuildStatsCounters(t *testing.T) {
	s := NewBuildStats()
	s.RecordLayerConsidered()
	s.RecordLayerConsidered()
	s.RecordLayerBuilt()
	s.RecordCandidateFitted()
	s.RecordBytesWritten(4096)

	if s.LayersConsidered != 2 {
		t.Errorf("LayersConsidered = %d, want 2", s.LayersConsidered)
	}
	if s.LayersBuilt != 1 {
		t.Errorf("LayersBuilt = %d, want 1", s.LayersBuilt)
	}
	if s.BytesWritten != 4096 {
		t.Errorf("BytesWritten = %d, want 4096", s.BytesWritten)
	}
}

func TestQueryStatsMeans(t *testing.T) {
	s := NewQueryStats()
	if got := s.MeanLatencyNanos(); got != 0 {
		t.Errorf("MeanLatencyNanos on empty = %v, want 0", got)
	}

	s.RecordLookup(3, 900)
	s.RecordLookup(3, 1100)
	s.RecordNotFound()

	if got := s.MeanLatencyNanos(); got != 1000 {
		t.Errorf("MeanLatencyNanos = %v, want 1000", got)
	}
	if got := s.MeanPagesFetched(); got != 3 {
		t.Errorf("MeanPagesFetched = %v, want 3", got)
	}
	if s.NotFoundCount != 1 {
		t.Errorf("NotFoundCount = %d, want 1", s.NotFoundCount)
	}
}
