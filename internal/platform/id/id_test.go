package id

import (
	"regexp"
	"testing"
)

func TestNewIDShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z2-7]{26}$`)

	generated, err := NewID()
	if err != nil {
		t.Fatalf("NewID error = %v", err)
	}
	if !pattern.MatchString(generated) {
		t.Fatalf("NewID = %q, want 26 lowercase base32 characters", generated)
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		generated, err := NewID()
		if err != nil {
			t.Fatalf("NewID error = %v", err)
		}
		if _, dup := seen[generated]; dup {
			t.Fatalf("NewID produced duplicate %q", generated)
		}
		seen[generated] = struct{}{}
	}
}
