package decode

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// TransferSignature is the ERC-20 Transfer event with parameter names and
// indexed markers.
const TransferSignature = "Transfer(address indexed from, address indexed to, uint256 value)"

// ParseSignature parses a human-readable event signature such as
// "Transfer(address indexed from, address indexed to, uint256 value)".
// The "event" keyword prefix is optional. Tuple parameters and anonymous
// events are not supported.
func ParseSignature(text string) (abi.Event, error) {
	sig := strings.TrimSpace(text)
	sig = strings.TrimPrefix(sig, "event ")
	sig = strings.TrimSpace(sig)

	open := strings.Index(sig, "(")
	if open <= 0 || !strings.HasSuffix(sig, ")") {
		return abi.Event{}, fmt.Errorf("malformed signature: %q", text)
	}
	name := strings.TrimSpace(sig[:open])
	if !isIdentifier(name) {
		return abi.Event{}, fmt.Errorf("invalid event name in %q", text)
	}
	body := sig[open+1 : len(sig)-1]
	if strings.ContainsAny(body, "()") {
		return abi.Event{}, fmt.Errorf("tuple parameters are not supported: %q", text)
	}

	var inputs abi.Arguments
	if strings.TrimSpace(body) != "" {
		for i, part := range strings.Split(body, ",") {
			arg, err := parseArgument(part)
			if err != nil {
				return abi.Event{}, fmt.Errorf("parameter %d of %q: %w", i, text, err)
			}
			inputs = append(inputs, arg)
		}
	}
	indexed := 0
	for _, arg := range inputs {
		if arg.Indexed {
			indexed++
		}
	}
	if indexed > 3 {
		return abi.Event{}, fmt.Errorf("at most 3 indexed parameters, got %d in %q", indexed, text)
	}

	return abi.NewEvent(name, name, false, inputs), nil
}

// Topic0 returns the Keccak-256 hash identifying the signature.
func Topic0(text string) (common.Hash, error) {
	event, err := ParseSignature(text)
	if err != nil {
		return common.Hash{}, err
	}
	return event.ID, nil
}

func parseArgument(part string) (abi.Argument, error) {
	fields := strings.Fields(part)
	if len(fields) == 0 {
		return abi.Argument{}, fmt.Errorf("empty parameter")
	}

	typeName := normalizeTypeName(fields[0])
	typ, err := abi.NewType(typeName, "", nil)
	if err != nil {
		return abi.Argument{}, err
	}

	arg := abi.Argument{Type: typ}
	rest := fields[1:]
	if len(rest) > 0 && rest[0] == "indexed" {
		arg.Indexed = true
		rest = rest[1:]
	}
	switch len(rest) {
	case 0:
	case 1:
		if !isIdentifier(rest[0]) {
			return abi.Argument{}, fmt.Errorf("invalid parameter name %q", rest[0])
		}
		arg.Name = rest[0]
	default:
		return abi.Argument{}, fmt.Errorf("unexpected tokens %q", strings.Join(rest, " "))
	}
	return arg, nil
}

func normalizeTypeName(name string) string {
	switch {
	case name == "uint" || strings.HasPrefix(name, "uint["):
		return "uint256" + strings.TrimPrefix(name, "uint")
	case name == "int" || strings.HasPrefix(name, "int["):
		return "int256" + strings.TrimPrefix(name, "int")
	default:
		return name
	}
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
