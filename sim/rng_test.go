package sim

import (
	"math"
	"testing"
)

// === SimulationKey Tests ===

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

// === PartitionedRNG Tests ===

func TestPartitionedRNG_DeterministicDerivation(t *testing.T) {
	// BDD: Same key+slot produces same sequence
	rng1 := NewPartitionedRNG(NewSimulationKey(42))
	rng2 := NewPartitionedRNG(NewSimulationKey(42))

	for i := 0; i < 3; i++ {
		v1 := rng1.ForTrial(7).Float64()
		v2 := rng2.ForTrial(7).Float64()
		if v1 != v2 {
			t.Errorf("Value %d: got %v and %v, want identical", i, v1, v2)
		}
	}
}

func TestPartitionedRNG_TrialIsolation(t *testing.T) {
	// BDD: Drawing from trial 0 (e.g. many retries) doesn't affect trial 1
	rngA := NewPartitionedRNG(NewSimulationKey(42))
	for i := 0; i < 1000; i++ {
		rngA.ForTrial(0).Float64()
	}
	aFirst := rngA.ForTrial(1).Float64()

	fresh := NewPartitionedRNG(NewSimulationKey(42))
	want := fresh.ForTrial(1).Float64()

	if aFirst != want {
		t.Errorf("trial 1 first value = %v, want %v (isolation broken)", aFirst, want)
	}
}

func TestPartitionedRNG_DifferentSlotsDiffer(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	if rng.ForTrial(0).Uint64() == rng.ForTrial(1).Uint64() {
		t.Error("trial 0 and trial 1 produced the same first draw")
	}
}

func TestPartitionedRNG_DifferentSeedsDiffer(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(1)).ForTrial(0).Uint64()
	b := NewPartitionedRNG(NewSimulationKey(2)).ForTrial(0).Uint64()
	if a == b {
		t.Error("different seeds produced the same first draw")
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	// BDD: Same name returns same *rand.Rand instance
	rng := NewPartitionedRNG(NewSimulationKey(42))

	if rng.ForTrial(3) != rng.ForTrial(3) {
		t.Error("ForTrial returned different instances for same slot")
	}
	if rng.ForTrial(3) != rng.ForSubsystem("trial_3") {
		t.Error("ForTrial and ForSubsystem disagree on the same name")
	}
}

func TestPartitionedRNG_Key(t *testing.T) {
	seed := int64(12345)
	rng := NewPartitionedRNG(NewSimulationKey(seed))

	if rng.Key() != SimulationKey(seed) {
		t.Errorf("Key() = %v, want %v", rng.Key(), seed)
	}
}

func TestPartitionedRNG_ExtremeSeeds(t *testing.T) {
	for _, seed := range []int64{0, math.MinInt64, math.MaxInt64} {
		val := NewPartitionedRNG(NewSimulationKey(seed)).ForTrial(0).Float64()
		if val < 0 || val >= 1 {
			t.Errorf("seed %d: Float64() returned %v, want [0, 1)", seed, val)
		}
	}
}

func TestPartitionedRNG_LazyInitialization(t *testing.T) {
	// BDD: Subsystems map is empty until a stream is requested
	rng := NewPartitionedRNG(NewSimulationKey(42))

	if len(rng.subsystems) != 0 {
		t.Errorf("New PartitionedRNG has %d subsystems, want 0", len(rng.subsystems))
	}

	rng.ForTrial(0)

	if len(rng.subsystems) != 1 {
		t.Errorf("After one ForTrial call, have %d subsystems, want 1", len(rng.subsystems))
	}
}

// === fnv1a64 Tests ===

func TestFnv1a64_Collision(t *testing.T) {
	// Different slot names should produce different hashes (spot check)
	hashes := make(map[int64]string)
	for slot := 0; slot < 1000; slot++ {
		name := SubsystemTrial(slot)
		h := fnv1a64(name)
		if existing, ok := hashes[h]; ok {
			t.Errorf("Hash collision: %q and %q both hash to %d", name, existing, h)
		}
		hashes[h] = name
	}
}

func TestSubsystemTrial(t *testing.T) {
	tests := []struct {
		slot int
		want string
	}{
		{0, "trial_0"},
		{1, "trial_1"},
		{299, "trial_299"},
	}

	for _, tt := range tests {
		if got := SubsystemTrial(tt.slot); got != tt.want {
			t.Errorf("SubsystemTrial(%d) = %q, want %q", tt.slot, got, tt.want)
		}
	}
}

// === Benchmark ===

func BenchmarkPartitionedRNG_ForTrial_CacheHit(b *testing.B) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	rng.ForTrial(0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rng.ForTrial(0)
	}
}
