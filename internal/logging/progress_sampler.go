package logging

import (
	"strings"
	"sync"
)

// ProgressSampler suppresses repetitive extraction progress logs. A record is
// let through when the archive changes or the percentage enters a new bucket.
type ProgressSampler struct {
	mu          sync.Mutex
	bucketSize  float64
	lastArchive string
	lastBucket  int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 10%) or when the archive changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. A negative
// percent means unknown and only counts toward archive changes.
func (s *ProgressSampler) ShouldLog(archive string, percent float64) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	archive = strings.TrimSpace(archive)
	emit := false
	if archive != "" && archive != s.lastArchive {
		s.lastArchive = archive
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		bucket := int(percent / s.bucketSize)
		if percent >= 100 {
			bucket = int(100 / s.bucketSize)
		}
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state before a new archive starts.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.lastArchive = ""
	s.lastBucket = -1
	s.mu.Unlock()
}
