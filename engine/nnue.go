package engine

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	mg "duckchess/duckmg"
)

// Network dimensions. 768 input features per perspective (64 squares x 12
// piece kinds; the black perspective mirrors squares vertically), a 256-wide
// incremental first layer per perspective, a 32-wide second layer over both
// perspectives concatenated side-to-move first, and a single output.
const (
	nnueInputSize  = 768
	nnueHidden1    = 256
	nnueHidden2    = 32
	nnueConcatSize = nnueHidden1 * 2

	// Quantization: weights are scaled by 64, activations clip at 127.
	nnueWeightScale    = 64
	nnueActivationCeil = 127

	nnueMagic   = "NNUE"
	nnueVersion = 1
)

// Network holds the quantized NNUE weights. All layers are int16,
// little-endian on disk. inputWeights is feature-major so an accumulator
// update touches one contiguous 256-entry column per feature flip.
type Network struct {
	inputWeights  []int16 // [nnueInputSize * nnueHidden1]
	inputBiases   []int16 // [nnueHidden1]
	hiddenWeights []int16 // [nnueConcatSize * nnueHidden2]
	hiddenBiases  []int16 // [nnueHidden2]
	outputWeights []int16 // [nnueHidden2]
	outputBias    int16
}

// featureIndex maps a piece on a square to the input feature index seen from
// the given perspective. The black perspective mirrors the board vertically.
func featureIndex(p mg.Piece, sq int, perspective mg.Color) int {
	pieceIdx := int(p.Color())*6 + int(p.Type()) - 1
	if perspective == mg.Black {
		sq ^= 56
	}
	return sq*12 + pieceIdx
}

// LoadNetwork reads a weight file: a 16-byte header (magic "NNUE", version,
// input size, first hidden size, all uint32 little-endian after the 4-byte
// magic) followed by the layers in fixed order: input weights, input biases,
// hidden weights, hidden biases, output weights, output bias.
func LoadNetwork(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("nnue: reading header: %w", err)
	}
	if string(magic[:]) != nnueMagic {
		return nil, fmt.Errorf("nnue: bad magic %q", magic[:])
	}
	var header struct {
		Version uint32
		Input   uint32
		Hidden1 uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("nnue: reading header: %w", err)
	}
	if header.Version != nnueVersion {
		return nil, fmt.Errorf("nnue: version %d, want %d", header.Version, nnueVersion)
	}
	if header.Input != nnueInputSize || header.Hidden1 != nnueHidden1 {
		return nil, fmt.Errorf("nnue: topology %dx%d, want %dx%d",
			header.Input, header.Hidden1, nnueInputSize, nnueHidden1)
	}

	net := &Network{
		inputWeights:  make([]int16, nnueInputSize*nnueHidden1),
		inputBiases:   make([]int16, nnueHidden1),
		hiddenWeights: make([]int16, nnueConcatSize*nnueHidden2),
		hiddenBiases:  make([]int16, nnueHidden2),
		outputWeights: make([]int16, nnueHidden2),
	}
	for _, layer := range [][]int16{
		net.inputWeights, net.inputBiases,
		net.hiddenWeights, net.hiddenBiases,
		net.outputWeights,
	} {
		if err := binary.Read(r, binary.LittleEndian, layer); err != nil {
			return nil, fmt.Errorf("nnue: reading weights: %w", err)
		}
	}
	if err := binary.Read(r, binary.LittleEndian, &net.outputBias); err != nil {
		return nil, fmt.Errorf("nnue: reading weights: %w", err)
	}
	return net, nil
}

// clippedReLU clamps the activation into [0, nnueActivationCeil].
func clippedReLU(x int16) int32 {
	if x < 0 {
		return 0
	}
	if x > nnueActivationCeil {
		return nnueActivationCeil
	}
	return int32(x)
}

// Forward runs the second and output layers over a computed accumulator.
// The side to move's perspective comes first in the concatenation.
// Returns centipawns from the side to move's point of view.
func (n *Network) Forward(acc *Accumulator, stm mg.Color) int32 {
	us, them := &acc.white, &acc.black
	if stm == mg.Black {
		us, them = them, us
	}

	var hidden [nnueHidden2]int32
	for j := 0; j < nnueHidden2; j++ {
		hidden[j] = int32(n.hiddenBiases[j])
	}
	for i := 0; i < nnueHidden1; i++ {
		a := clippedReLU(us[i])
		if a != 0 {
			row := n.hiddenWeights[i*nnueHidden2 : (i+1)*nnueHidden2]
			for j := 0; j < nnueHidden2; j++ {
				hidden[j] += a * int32(row[j]) / nnueWeightScale
			}
		}
		a = clippedReLU(them[i])
		if a != 0 {
			row := n.hiddenWeights[(nnueHidden1+i)*nnueHidden2 : (nnueHidden1+i+1)*nnueHidden2]
			for j := 0; j < nnueHidden2; j++ {
				hidden[j] += a * int32(row[j]) / nnueWeightScale
			}
		}
	}

	out := int32(n.outputBias)
	for j := 0; j < nnueHidden2; j++ {
		a := hidden[j]
		if a < 0 {
			a = 0
		} else if a > nnueActivationCeil {
			a = nnueActivationCeil
		}
		out += a * int32(n.outputWeights[j]) / nnueWeightScale
	}
	return out
}
