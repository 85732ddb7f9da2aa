package utils

import (
	"testing"
	"time"
)

func TestDisplayB(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{999, "999 B"},
		{1000, "1.00 KB"},
		{1500000, "1.50 MB"},
		{2000000000, "2.00 GB"},
	}
	for _, tt := range tests {
		if got := DisplayB(tt.in); got != tt.want {
			t.Fatalf("DisplayB(%d): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestDisplayDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Microsecond, "1.5ms"},
		{1234 * time.Millisecond, "1.23s"},
		{90*time.Second + 400*time.Millisecond, "1m30s"},
	}
	for _, tt := range tests {
		if got := DisplayDuration(tt.in); got != tt.want {
			t.Fatalf("DisplayDuration(%s): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestNewULIDOrdered(t *testing.T) {
	prev, err := NewULID()
	if err != nil {
		t.Fatalf("new ulid: %v", err)
	}
	for i := 0; i < 1000; i++ {
		id, err := NewULID()
		if err != nil {
			t.Fatalf("new ulid: %v", err)
		}
		if id.Compare(prev) <= 0 {
			t.Fatalf("ids out of order: %s then %s", prev, id)
		}
		prev = id
	}
}

func TestDefaultIfNil(t *testing.T) {
	if got := DefaultIfNil(nil, 7); got != 7 {
		t.Fatalf("expected default, got %d", got)
	}
	if got := DefaultIfNil(Ptr(3), 7); got != 3 {
		t.Fatalf("expected pointer value, got %d", got)
	}
}
