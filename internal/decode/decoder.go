package decode

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"transferScan/internal/model"
)

// Record is a raw log decoded against one of the configured signatures.
type Record struct {
	Event   string
	Indexed []Value
	Body    []Value
	Log     model.RawLog
}

// Amount returns the first unsigned body value, which for token events is
// the transferred amount.
func (r *Record) Amount() (*big.Int, bool) {
	if r == nil {
		return nil, false
	}
	for _, v := range r.Body {
		if n, ok := v.Uint(); ok {
			return n, true
		}
	}
	return nil, false
}

// Failure describes a log that matched a signature but could not be decoded.
type Failure struct {
	Index  int
	Topic0 common.Hash
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("log %d (%s): %v", f.Index, f.Topic0.Hex(), f.Err)
}

// Decoder decodes raw logs against a fixed set of event signatures. It holds
// no mutable state after construction and may be shared between scans.
type Decoder struct {
	events map[common.Hash]abi.Event
}

// NewDecoder parses the given signatures.
func NewDecoder(signatures ...string) (*Decoder, error) {
	if len(signatures) == 0 {
		return nil, fmt.Errorf("at least one event signature is required")
	}
	events := make(map[common.Hash]abi.Event, len(signatures))
	for _, sig := range signatures {
		event, err := ParseSignature(sig)
		if err != nil {
			return nil, err
		}
		events[event.ID] = event
	}
	return &Decoder{events: events}, nil
}

// Topics returns the topic0 of every configured signature.
func (d *Decoder) Topics() []common.Hash {
	out := make([]common.Hash, 0, len(d.events))
	for id := range d.events {
		out = append(out, id)
	}
	return out
}

// CanDecode reports whether topic0 matches a configured signature.
func (d *Decoder) CanDecode(topic0 common.Hash) bool {
	_, ok := d.events[topic0]
	return ok
}

// Decode returns one slot per entry, in input order. Entries whose topic0
// matches no signature yield nil. Entries that match but fail to decode also
// yield nil and are reported in the failure list.
func (d *Decoder) Decode(entries []model.RawLog) ([]*Record, []Failure) {
	out := make([]*Record, len(entries))
	var failures []Failure
	for i, entry := range entries {
		topic0, ok := entry.Topic0()
		if !ok {
			continue
		}
		event, ok := d.events[topic0]
		if !ok {
			continue
		}
		record, err := decodeLog(event, entry)
		if err != nil {
			failures = append(failures, Failure{Index: i, Topic0: topic0, Err: err})
			continue
		}
		out[i] = record
	}
	return out, failures
}

func decodeLog(event abi.Event, entry model.RawLog) (*Record, error) {
	indexedArgs := indexedArguments(event.Inputs)
	if len(entry.Topics) != len(indexedArgs)+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", len(indexedArgs)+1, len(entry.Topics))
	}

	indexedRaw := make(map[string]interface{}, len(indexedArgs))
	if err := abi.ParseTopicsIntoMap(indexedRaw, indexedArgs, entry.Topics[1:]); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	indexed := make([]Value, 0, len(indexedArgs))
	for _, arg := range indexedArgs {
		v, err := toValue(arg.Type, indexedRaw[arg.Name])
		if err != nil {
			return nil, fmt.Errorf("indexed %s: %w", arg.Name, err)
		}
		indexed = append(indexed, v)
	}

	bodyArgs := event.Inputs.NonIndexed()
	values, err := unpackNonIndexed(event, entry.Data)
	if err != nil {
		return nil, err
	}
	if len(values) != len(bodyArgs) {
		return nil, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
	}
	body := make([]Value, 0, len(values))
	for i, raw := range values {
		v, err := toValue(bodyArgs[i].Type, raw)
		if err != nil {
			return nil, fmt.Errorf("body %s: %w", bodyArgs[i].Name, err)
		}
		body = append(body, v)
	}

	return &Record{
		Event:   event.Name,
		Indexed: indexed,
		Body:    body,
		Log:     entry,
	}, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, data []byte) ([]interface{}, error) {
	if len(event.Inputs.NonIndexed()) == 0 {
		if len(data) != 0 {
			return nil, fmt.Errorf("unexpected %d data bytes for %s", len(data), event.Name)
		}
		return nil, nil
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
