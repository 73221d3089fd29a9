package decode

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindAddress Kind = iota + 1
	KindUint
	KindInt
	KindBool
	KindBytes
	KindString
	// KindHash holds the topic hash of an indexed dynamic parameter.
	KindHash
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindHash:
		return "hash"
	default:
		return "invalid"
	}
}

// Value is a decoded event parameter.
type Value struct {
	kind    Kind
	address common.Address
	number  *big.Int
	flag    bool
	bytes   []byte
	text    string
	hash    common.Hash
}

func AddressValue(a common.Address) Value { return Value{kind: KindAddress, address: a} }
func UintValue(n *big.Int) Value          { return Value{kind: KindUint, number: new(big.Int).Set(n)} }
func IntValue(n *big.Int) Value           { return Value{kind: KindInt, number: new(big.Int).Set(n)} }
func BoolValue(b bool) Value              { return Value{kind: KindBool, flag: b} }
func BytesValue(b []byte) Value           { return Value{kind: KindBytes, bytes: append([]byte(nil), b...)} }
func StringValue(s string) Value          { return Value{kind: KindString, text: s} }
func HashValue(h common.Hash) Value       { return Value{kind: KindHash, hash: h} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Address() (common.Address, bool) {
	return v.address, v.kind == KindAddress
}

// Uint returns a copy of the unsigned integer.
func (v Value) Uint() (*big.Int, bool) {
	if v.kind != KindUint {
		return nil, false
	}
	return new(big.Int).Set(v.number), true
}

// Int returns a copy of the signed integer.
func (v Value) Int() (*big.Int, bool) {
	if v.kind != KindInt {
		return nil, false
	}
	return new(big.Int).Set(v.number), true
}

func (v Value) Bool() (bool, bool) {
	return v.flag, v.kind == KindBool
}

func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return append([]byte(nil), v.bytes...), true
}

func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindString
}

func (v Value) Hash() (common.Hash, bool) {
	return v.hash, v.kind == KindHash
}

func (v Value) String() string {
	switch v.kind {
	case KindAddress:
		return v.address.Hex()
	case KindUint, KindInt:
		return v.number.String()
	case KindBool:
		if v.flag {
			return "true"
		}
		return "false"
	case KindBytes:
		return hexutil.Encode(v.bytes)
	case KindString:
		return v.text
	case KindHash:
		return v.hash.Hex()
	default:
		return "<invalid>"
	}
}

// MarshalText renders the value the same way String does.
func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// toValue converts a go-ethereum unpacked value into a Value.
func toValue(typ abi.Type, raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case common.Hash:
		return HashValue(v), nil
	case common.Address:
		return AddressValue(v), nil
	case bool:
		return BoolValue(v), nil
	case string:
		return StringValue(v), nil
	case []byte:
		return BytesValue(v), nil
	}

	switch typ.T {
	case abi.UintTy:
		n, err := asBigInt(raw)
		if err != nil {
			return Value{}, err
		}
		return UintValue(n), nil
	case abi.IntTy:
		n, err := asBigInt(raw)
		if err != nil {
			return Value{}, err
		}
		return IntValue(n), nil
	case abi.FixedBytesTy:
		rv := reflect.ValueOf(raw)
		if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
			out := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(out), rv)
			return BytesValue(out), nil
		}
	}
	return Value{}, fmt.Errorf("unsupported %s value of type %T", typ.String(), raw)
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}
