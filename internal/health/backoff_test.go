package health

import (
	"math/rand"
	"testing"
	"time"
)

func TestNextRetryDelayFirstAttempt(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 5 * time.Second, Multiplier: 2.0}
	if got := NextRetryDelay(cfg, 1, nil); got != 5*time.Second {
		t.Fatalf("attempt 1: got %v", got)
	}
	if got := NextRetryDelay(cfg, 0, nil); got != 5*time.Second {
		t.Fatalf("attempt 0: got %v", got)
	}
}

func TestNextRetryDelayFixedInterval(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 5 * time.Second, Multiplier: 1.0}
	for attempt := 2; attempt <= 5; attempt++ {
		if got := NextRetryDelay(cfg, attempt, nil); got != 5*time.Second {
			t.Fatalf("attempt %d: got %v", attempt, got)
		}
	}
}

func TestNextRetryDelayExponential(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: time.Second, Multiplier: 2.0}
	if got := NextRetryDelay(cfg, 2, nil); got != 2*time.Second {
		t.Fatalf("attempt 2: got %v", got)
	}
	if got := NextRetryDelay(cfg, 4, nil); got != 8*time.Second {
		t.Fatalf("attempt 4: got %v", got)
	}
}

func TestNextRetryDelayMaxClamp(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second, Multiplier: 2.0}
	if got := NextRetryDelay(cfg, 6, nil); got != 3*time.Second {
		t.Fatalf("got %v", got)
	}
}

func TestNextRetryDelayZeroInitial(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 0, Multiplier: 2.0}
	if got := NextRetryDelay(cfg, 3, nil); got != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestNextRetryDelayJitterBounds(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: time.Second, Multiplier: 1.0, Jitter: true}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		got := NextRetryDelay(cfg, 2, rng)
		if got < 500*time.Millisecond || got > 1500*time.Millisecond {
			t.Fatalf("jittered delay out of bounds: %v", got)
		}
	}
}

func TestClassify(t *testing.T) {
	ok := ProbeResult{OK: true}
	bad := ProbeResult{OK: false}

	cases := []struct {
		name               string
		health, root, cert ProbeResult
		want               Classification
	}{
		{"all passing", ok, ok, ok, ClassHealthy},
		{"root failing", ok, bad, ok, ClassDegraded},
		{"cert failing", ok, ok, bad, ClassDegraded},
		{"health failing", bad, ok, ok, ClassUnhealthy},
		{"everything failing", bad, bad, bad, ClassUnhealthy},
	}
	for _, tc := range cases {
		if got := Classify(tc.health, tc.root, tc.cert); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}
