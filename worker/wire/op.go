package wire

import "fmt"

// Op identifies a worker operation.
type Op uint8

// Operations understood by an engine host.
const (
	OpConfigure Op = iota + 1
	OpSynthesizeEcho
	OpCancelEcho
	OpDenoise
	OpDenoiseAndCancelEcho
)

var opNames = map[Op]string{
	OpConfigure:            "configure",
	OpSynthesizeEcho:       "synthesize_echo",
	OpCancelEcho:           "cancel_echo",
	OpDenoise:              "denoise",
	OpDenoiseAndCancelEcho: "denoise_and_cancel_echo",
}

// Ops lists every valid operation in wire order.
func Ops() []Op {
	return []Op{OpConfigure, OpSynthesizeEcho, OpCancelEcho, OpDenoise, OpDenoiseAndCancelEcho}
}

// String returns the snake_case operation name.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

// Valid reports whether o is a known operation.
func (o Op) Valid() bool {
	_, ok := opNames[o]
	return ok
}

// IsTransform reports whether o produces an output buffer.
func (o Op) IsTransform() bool {
	return o.Valid() && o != OpConfigure
}

// ParseOp returns the operation with the given name. A few short aliases
// used on the command line are accepted as well.
func ParseOp(name string) (Op, error) {
	for op, n := range opNames {
		if n == name {
			return op, nil
		}
	}
	switch name {
	case "echo":
		return OpSynthesizeEcho, nil
	case "cancel":
		return OpCancelEcho, nil
	case "process", "denoise_cancel":
		return OpDenoiseAndCancelEcho, nil
	}
	return 0, fmt.Errorf("wire: unknown op %q", name)
}
