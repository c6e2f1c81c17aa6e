package engine

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	mg "duckchess/duckmg"

	"golang.org/x/exp/rand"
)

// buildTestNetwork produces a small deterministic network in memory.
func buildTestNetwork(seed uint64) *Network {
	rnd := rand.New(rand.NewSource(seed))
	small := func(n int) []int16 {
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(rnd.Intn(17) - 8)
		}
		return out
	}
	return &Network{
		inputWeights:  small(nnueInputSize * nnueHidden1),
		inputBiases:   small(nnueHidden1),
		hiddenWeights: small(nnueConcatSize * nnueHidden2),
		hiddenBiases:  small(nnueHidden2),
		outputWeights: small(nnueHidden2),
		outputBias:    7,
	}
}

// writeNetworkFile serializes a network in the on-disk format.
func writeNetworkFile(t *testing.T, net *Network) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(nnueMagic)
	for _, v := range []uint32{nnueVersion, nnueInputSize, nnueHidden1} {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	for _, layer := range [][]int16{
		net.inputWeights, net.inputBiases,
		net.hiddenWeights, net.hiddenBiases,
		net.outputWeights,
	} {
		binary.Write(&buf, binary.LittleEndian, layer)
	}
	binary.Write(&buf, binary.LittleEndian, net.outputBias)

	path := filepath.Join(t.TempDir(), "test.nnue")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadNetworkRoundTrip(t *testing.T) {
	want := buildTestNetwork(1)
	path := writeNetworkFile(t, want)

	got, err := LoadNetwork(path)
	if err != nil {
		t.Fatalf("LoadNetwork: %v", err)
	}
	if !bytes.Equal(int16Bytes(got.inputWeights), int16Bytes(want.inputWeights)) {
		t.Error("input weights differ after round trip")
	}
	if got.outputBias != want.outputBias {
		t.Errorf("output bias %d != %d", got.outputBias, want.outputBias)
	}
}

func int16Bytes(xs []int16) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, xs)
	return buf.Bytes()
}

func TestLoadNetworkRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()

	badMagic := filepath.Join(dir, "magic.nnue")
	os.WriteFile(badMagic, []byte("XXXX\x01\x00\x00\x00"), 0o644)
	if _, err := LoadNetwork(badMagic); err == nil {
		t.Error("bad magic accepted")
	}

	var buf bytes.Buffer
	buf.WriteString(nnueMagic)
	for _, v := range []uint32{99, nnueInputSize, nnueHidden1} {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	badVersion := filepath.Join(dir, "version.nnue")
	os.WriteFile(badVersion, buf.Bytes(), 0o644)
	if _, err := LoadNetwork(badVersion); err == nil {
		t.Error("bad version accepted")
	}

	if _, err := LoadNetwork(filepath.Join(dir, "missing.nnue")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestClippedReLU(t *testing.T) {
	cases := map[int16]int32{-100: 0, 0: 0, 50: 50, 127: 127, 200: 127}
	for in, want := range cases {
		if got := clippedReLU(in); got != want {
			t.Errorf("clippedReLU(%d) = %d, want %d", in, got, want)
		}
	}
}

// Incremental accumulator updates must agree with a from-scratch refresh
// after any sequence of makes, and unmake must restore the stack exactly.
func TestAccumulatorIncrementalMatchesRefresh(t *testing.T) {
	net := buildTestNetwork(2)
	prevNet := nnueNet
	nnueNet = net
	defer func() { nnueNet = prevNet }()

	fens := []string{
		mg.FENStartPos,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"k7/8/8/3pP3/8/8/8/7K w - d6 0 2",
		"1n5k/P7/8/8/8/8/8/7K w - - 0 1",
	}
	for _, fen := range fens {
		b, err := mg.ParseFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		resetAccumulatorStack(b)
		walkAccumulator(t, b, net, 2)
	}
}

func walkAccumulator(t *testing.T, b *mg.Board, net *Network, depth int) {
	t.Helper()
	if depth == 0 {
		return
	}
	topBefore := accTop
	for _, m := range b.GenerateMoves() {
		unapply, ok := applyMoveWithState(b, m)
		if !ok {
			continue
		}

		acc := currentAccumulator()
		if !acc.computed {
			acc.Refresh(b, net)
		}
		var fresh Accumulator
		fresh.Refresh(b, net)
		if acc.white != fresh.white || acc.black != fresh.black {
			t.Fatalf("incremental accumulator diverged after %s in %s", m.String(), b.ToFEN())
		}

		// Spot-check the full evaluation path too.
		if ev := Evaluation(b); ev != net.Forward(&fresh, b.SideToMove()) {
			t.Fatalf("Evaluation mismatch after %s", m.String())
		}

		walkAccumulator(t, b, net, depth-1)
		unapply()
		if accTop != topBefore {
			t.Fatalf("accumulator stack not restored after %s", m.String())
		}
	}
}

func TestFeatureIndexPerspectives(t *testing.T) {
	// A white pawn on e2 from White's view uses e2; from Black's view the
	// square mirrors vertically to e7.
	wIdx := featureIndex(mg.WhitePawn, 12, mg.White)
	bIdx := featureIndex(mg.WhitePawn, 12, mg.Black)
	if wIdx == bIdx {
		t.Fatal("perspectives must map to different features")
	}
	if wIdx != 12*12+0 {
		t.Errorf("white perspective index = %d", wIdx)
	}
	if bIdx != (12^56)*12+0 {
		t.Errorf("black perspective index = %d", bIdx)
	}
}

func TestForwardBounded(t *testing.T) {
	net := buildTestNetwork(3)
	b, _ := mg.ParseFEN(mg.FENStartPos)
	var acc Accumulator
	acc.Refresh(b, net)
	score := net.Forward(&acc, mg.White)
	if score < -3000 || score > 3000 {
		t.Fatalf("forward pass out of sane range: %d", score)
	}
}
