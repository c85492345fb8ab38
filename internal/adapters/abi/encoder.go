package abi

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/deployplan/internal/domain"
	"github.com/trebuchet-org/deployplan/internal/usecase"
)

// ArgumentEncoder converts loosely typed plan values (as decoded from YAML)
// to the Go types go-ethereum expects and packs constructor arguments
type ArgumentEncoder struct{}

// NewArgumentEncoder creates a new argument encoder
func NewArgumentEncoder() *ArgumentEncoder {
	return &ArgumentEncoder{}
}

// EncodeConstructorArgs packs args for the constructor of contract
func (e *ArgumentEncoder) EncodeConstructorArgs(contract *domain.CompiledContract, args []any) ([]byte, error) {
	inputs := contract.ABI.Constructor.Inputs
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("constructor of %s takes %d arguments, got %d", contract.Name, len(inputs), len(args))
	}
	if len(inputs) == 0 {
		return []byte{}, nil
	}

	values := make([]any, len(args))
	for i, arg := range args {
		v, err := ConvertValue(inputs[i].Type, arg)
		if err != nil {
			name := inputs[i].Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("constructor argument %s (%s): %w", name, inputs[i].Type.String(), err)
		}
		values[i] = v
	}

	packed, err := inputs.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode constructor arguments: %w", err)
	}
	return packed, nil
}

// ConvertValue converts v to the Go representation of the ABI type t
func ConvertValue(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.BoolTy:
		return toBool(v)
	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", v)
		}
		return s, nil
	case abi.IntTy, abi.UintTy:
		return toInteger(t, v)
	case abi.BytesTy:
		return toBytes(v)
	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		arr := reflect.New(t.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		return toList(t, v)
	case abi.TupleTy:
		return toTuple(t, v)
	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.String())
	}
}

func toAddress(v any) (common.Address, error) {
	switch val := v.(type) {
	case common.Address:
		return val, nil
	case *common.Address:
		if val == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *val, nil
	case string:
		if !common.IsHexAddress(val) {
			return common.Address{}, fmt.Errorf("invalid address %q", val)
		}
		return common.HexToAddress(val), nil
	default:
		return common.Address{}, fmt.Errorf("expected an address, got %T", v)
	}
}

func toBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("invalid bool %q", val)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected a bool, got %T", v)
	}
}

func toBytes(v any) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		if !strings.HasPrefix(val, "0x") && !strings.HasPrefix(val, "0X") {
			return nil, fmt.Errorf("bytes must be 0x-prefixed hex, got %q", val)
		}
		b, err := hexutil.Decode(val)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q: %w", val, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("expected hex bytes, got %T", v)
	}
}

// toInteger returns *big.Int for sizes above 64 bits and the matching sized
// Go integer otherwise, as go-ethereum's packer requires
func toInteger(t abi.Type, v any) (any, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, err
	}

	var lo, hi *big.Int
	if t.T == abi.UintTy {
		lo = big.NewInt(0)
		hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(t.Size)), big.NewInt(1))
	} else {
		hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1)), big.NewInt(1))
		lo = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1)))
	}
	if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
		return nil, fmt.Errorf("value %s out of range for %s", n.String(), t.String())
	}

	goType := t.GetType()
	if goType == reflect.TypeOf(&big.Int{}) {
		return n, nil
	}
	if t.T == abi.UintTy {
		return reflect.ValueOf(n.Uint64()).Convert(goType).Interface(), nil
	}
	return reflect.ValueOf(n.Int64()).Convert(goType).Interface(), nil
}

// YAML decodes integers wider than 64 bits as floats. Above these bounds a
// whole-numbered float may already have been rounded.
const (
	maxExactFloat64 = 1 << 53
	maxExactFloat32 = 1 << 24
)

func toBigInt(v any) (*big.Int, error) {
	switch val := v.(type) {
	case *big.Int:
		if val == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(val), nil
	case int:
		return big.NewInt(int64(val)), nil
	case int8:
		return big.NewInt(int64(val)), nil
	case int16:
		return big.NewInt(int64(val)), nil
	case int32:
		return big.NewInt(int64(val)), nil
	case int64:
		return big.NewInt(val), nil
	case uint:
		return new(big.Int).SetUint64(uint64(val)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(val)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(val)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(val)), nil
	case uint64:
		return new(big.Int).SetUint64(val), nil
	case float64:
		if math.Abs(val) > maxExactFloat64 {
			return nil, fmt.Errorf("%g does not fit a float exactly; quote it as a string", val)
		}
		return floatToBigInt(big.NewFloat(val))
	case float32:
		if math.Abs(float64(val)) > maxExactFloat32 {
			return nil, fmt.Errorf("%g does not fit a float exactly; quote it as a string", val)
		}
		return floatToBigInt(big.NewFloat(float64(val)))
	case string:
		return parseBigInt(val)
	default:
		return nil, fmt.Errorf("expected an integer, got %T", v)
	}
}

// parseBigInt accepts decimal, 0x hex and exponent notation such as "1e18"
func parseBigInt(s string) (*big.Int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if n, ok := new(big.Int).SetString(s, 0); ok {
		return n, nil
	}
	if strings.ContainsAny(s, "eE") && !strings.HasPrefix(strings.ToLower(s), "0x") {
		f, ok := new(big.Float).SetPrec(512).SetString(s)
		if ok {
			return floatToBigInt(f)
		}
	}
	return nil, fmt.Errorf("invalid integer %q", s)
}

func floatToBigInt(f *big.Float) (*big.Int, error) {
	if !f.IsInt() {
		return nil, fmt.Errorf("%s is not a whole number", f.Text('g', -1))
	}
	n, _ := f.Int(nil)
	return n, nil
}

func toList(t abi.Type, v any) (any, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	n := rv.Len()
	if t.T == abi.ArrayTy && n != t.Size {
		return nil, fmt.Errorf("expected %d elements, got %d", t.Size, n)
	}

	var out reflect.Value
	if t.T == abi.ArrayTy {
		out = reflect.New(t.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(t.GetType(), n, n)
	}
	for i := 0; i < n; i++ {
		elem, err := ConvertValue(*t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}

// toTuple accepts a map keyed by component name or a positional list
func toTuple(t abi.Type, v any) (any, error) {
	out := reflect.New(t.GetType()).Elem()

	get := func(i int) (any, error) {
		return nil, fmt.Errorf("expected a map or list for tuple, got %T", v)
	}
	switch val := v.(type) {
	case map[string]any:
		get = func(i int) (any, error) {
			field, ok := val[t.TupleRawNames[i]]
			if !ok {
				return nil, fmt.Errorf("missing tuple field %s", t.TupleRawNames[i])
			}
			return field, nil
		}
	case []any:
		if len(val) != len(t.TupleElems) {
			return nil, fmt.Errorf("expected %d tuple elements, got %d", len(t.TupleElems), len(val))
		}
		get = func(i int) (any, error) { return val[i], nil }
	}

	for i, elem := range t.TupleElems {
		raw, err := get(i)
		if err != nil {
			return nil, err
		}
		converted, err := ConvertValue(*elem, raw)
		if err != nil {
			return nil, fmt.Errorf("tuple field %s: %w", t.TupleRawNames[i], err)
		}
		out.Field(i).Set(reflect.ValueOf(converted))
	}
	return out.Interface(), nil
}

var _ usecase.ArgumentEncoder = (*ArgumentEncoder)(nil)
