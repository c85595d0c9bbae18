package services

import (
	"fmt"
	"regexp"
	"testing"
	"time"
)

var referencePattern = regexp.MustCompile(`^BK-\d{4}-\d{6}$`)

func TestReferenceFormat(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Add(7 * time.Millisecond)
	g := NewReferenceGeneratorWith(func() time.Time { return at }, func(int) int { return 3 })

	ref := g.Generate()
	if !referencePattern.MatchString(ref) {
		t.Fatalf("reference %q does not match %s", ref, referencePattern)
	}
	want := fmt.Sprintf("BK-2025-%04d03", at.UnixMilli()%10000)
	if ref != want {
		t.Errorf("Generate() = %q, want %q", ref, want)
	}
}

func TestReferenceDefaultGenerator(t *testing.T) {
	g := NewReferenceGenerator()
	for i := 0; i < 100; i++ {
		if ref := g.Generate(); !referencePattern.MatchString(ref) {
			t.Fatalf("reference %q does not match %s", ref, referencePattern)
		}
	}
}

func TestReferenceDistinctAcrossMillis(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := NewReferenceGeneratorWith(func() time.Time {
		clock.Advance(time.Millisecond)
		return clock.Now()
	}, func(int) int { return 0 })

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		ref := g.Generate()
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate reference %q at %d", ref, i)
		}
		seen[ref] = struct{}{}
	}
}
