// Package testutils holds helpers shared by the forge test suites: a reproducible PRNG, weighted
// operation picking for model-based tests, an exhaustive value generator and a few components.
package testutils

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"testing"
	"time"
)

// Seed is the seed every NewRand call starts from. Set FORGE_TEST_SEED to replay a failing run.
var Seed uint64 //nolint:gochecknoglobals // intentionally global for test reproducibility

func init() { //nolint:gochecknoinits // intentionally using init to set seed
	Seed = uint64(time.Now().UnixNano()) //nolint:gosec // overflow is acceptable for test seeds
	if envSeed := os.Getenv("FORGE_TEST_SEED"); envSeed != "" {
		if parsed, err := strconv.ParseUint(envSeed, 0, 64); err == nil {
			Seed = parsed
		}
	}
}

// NewRand returns a PCG source seeded with Seed and logs the seed on the test so a failure can be
// reproduced.
func NewRand(t testing.TB) *rand.Rand {
	t.Helper()
	t.Logf("to reproduce: FORGE_TEST_SEED=%s", fmt.Sprintf("0x%x", Seed))
	return rand.New(rand.NewPCG(Seed, Seed)) //nolint:gosec // weak RNG is fine for tests
}
