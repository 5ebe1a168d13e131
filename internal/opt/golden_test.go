package opt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ssaopt/internal/ir"
	"ssaopt/internal/irtext"
)

// TestGoldenFixturesRoundTripThroughPipeline loads each spec §8 boundary
// scenario from its on-disk .ssair form and runs it through the full
// pipeline, checking the result still satisfies every universal invariant
// and that a second pass over a copy of the output leaves its block count
// unchanged.
func TestGoldenFixturesRoundTripThroughPipeline(t *testing.T) {
	fixtures := []string{
		"record.ssair",
		"element_chain.ssair",
		"cse_across_call.ssair",
		"bsm_skip.ssair",
		"sink.ssair",
		"merge.ssair",
	}

	for _, name := range fixtures {
		name := name
		t.Run(name, func(t *testing.T) {
			path := filepath.Join("testdata", name)
			src, err := os.ReadFile(path)
			require.NoError(t, err)

			mod, err := irtext.ParseString(path, string(src))
			require.NoError(t, err)
			require.Len(t, mod.Functions, 1)

			fn := mod.Functions[0]
			require.NoError(t, Verify(fn), "fixture itself must already be a legal CFG")

			pipeline := NewPipeline(Options{})
			out, stats := pipeline.Run(fn)
			require.NoError(t, Verify(out))
			assert.Len(t, stats, len(DefaultPipeline()))

			second, _ := NewPipeline(Options{}).Run(out.Clone())
			assert.Equal(t, len(out.Blocks), len(second.Blocks),
				"a second run over an already-optimized function should reach a fixed point in block count")
		})
	}
}

// TestGoldenRecordFixtureFusesTaggedTuple pins down the one boundary
// scenario (spec §8 "Record") whose expected rewrite survives the full
// pipeline: Record fuses the probe's is_tuple check into is_tagged_tuple,
// and no pass downstream of Record ever reintroduces a plain is_tuple op,
// so the fused instruction must still be present somewhere in the output.
func TestGoldenRecordFixtureFusesTaggedTuple(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("testdata", "record.ssair"))
	require.NoError(t, err)

	mod, err := irtext.ParseString("record.ssair", string(src))
	require.NoError(t, err)
	fn := mod.Functions[0]

	out, _ := NewPipeline(Options{}).Run(fn)
	require.NoError(t, Verify(out))

	found := false
	for _, b := range out.Blocks {
		for _, inst := range b.AllInstructions() {
			if inst.Op.Is(ir.OpIsTaggedTuple) {
				found = true
			}
		}
	}
	assert.True(t, found, "the fused is_tagged_tuple check must survive the full pipeline")
}

// TestGoldenFixturesParseRoundTripThroughPrinter confirms every fixture
// also round-trips through internal/ir.Printer unchanged, independent of
// the optimizer: parse, print, reparse, print again, compare.
func TestGoldenFixturesParseRoundTripThroughPrinter(t *testing.T) {
	entries, err := os.ReadDir("testdata")
	require.NoError(t, err)

	for _, e := range entries {
		e := e
		if e.IsDir() {
			continue
		}
		t.Run(e.Name(), func(t *testing.T) {
			path := filepath.Join("testdata", e.Name())
			src, err := os.ReadFile(path)
			require.NoError(t, err)

			mod, err := irtext.ParseString(path, string(src))
			require.NoError(t, err)
			require.Len(t, mod.Functions, 1)

			printed := ir.PrintFunction(mod.Functions[0])
			reparsed, err := irtext.ParseString(path, printed)
			require.NoError(t, err)
			require.Len(t, reparsed.Functions, 1)
			assert.Equal(t, printed, ir.PrintFunction(reparsed.Functions[0]))
		})
	}
}
