package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	for _, size := range []float64{0, -3} {
		s := NewProgressSampler(size)
		if s.bucketSize != 10 {
			t.Errorf("bucketSize for %v = %v, want 10", size, s.bucketSize)
		}
		if s.lastBucket != -1 {
			t.Errorf("lastBucket = %d, want -1", s.lastBucket)
		}
	}
}

func TestProgressSamplerNilAlwaysLogs(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog("a.zip", 50) {
		t.Error("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	steps := []struct {
		percent float64
		want    bool
	}{
		{0, true},
		{4.2, false},
		{9.99, false},
		{10, true},
		{35, true},
		{38, false},
		{100, true},
		{104, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog("/in/a.zip", step.percent); got != step.want {
			t.Fatalf("ShouldLog(%v) = %v, want %v", step.percent, got, step.want)
		}
	}
}

func TestProgressSamplerArchiveChangeResetsBuckets(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog("/in/a.zip", 80)

	if !s.ShouldLog("  /in/b.7z ", 0) {
		t.Fatal("new archive should log")
	}
	if s.lastArchive != "/in/b.7z" {
		t.Fatalf("lastArchive = %q, want trimmed path", s.lastArchive)
	}
	if !s.ShouldLog("/in/b.7z", 10) {
		t.Fatal("bucket should have been reset for the new archive")
	}
}

func TestProgressSamplerUnknownPercent(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLog("/in/a.cab", -1) {
		t.Fatal("first record for an archive should log")
	}
	if s.ShouldLog("/in/a.cab", -1) {
		t.Fatal("unknown percent alone should not log")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(10)
	s.ShouldLog("/in/a.zip", 50)
	s.Reset()
	if s.lastArchive != "" || s.lastBucket != -1 {
		t.Fatalf("reset left state %q/%d", s.lastArchive, s.lastBucket)
	}
	if !s.ShouldLog("/in/a.zip", 50) {
		t.Fatal("should log after reset")
	}
}
