package binding

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// coerceArgs converts loosely typed arguments (strings from a command line,
// Go ints, uint256 values) into the Go types the ABI packer expects.
func coerceArgs(method string, inputs abi.Arguments, values []interface{}) ([]interface{}, error) {
	if len(values) != len(inputs) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", method, len(inputs), len(values))
	}
	out := make([]interface{}, len(values))
	for i, input := range inputs {
		v, err := coerce(input.Type, values[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, fmt.Errorf("%s argument %s (%s): %w", method, name, input.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

func coerce(t abi.Type, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, fmt.Errorf("nil value")
	}
	target := t.GetType()
	if reflect.TypeOf(v) == target {
		return v, nil
	}

	switch t.T {
	case abi.IntTy, abi.UintTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		if t.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s", n)
		}
		if target == bigIntType {
			return n, nil
		}
		rv := reflect.New(target).Elem()
		if t.T == abi.UintTy {
			if !n.IsUint64() || rv.OverflowUint(n.Uint64()) {
				return nil, fmt.Errorf("value %s overflows %s", n, t)
			}
			rv.SetUint(n.Uint64())
		} else {
			if !n.IsInt64() || rv.OverflowInt(n.Int64()) {
				return nil, fmt.Errorf("value %s overflows %s", n, t)
			}
			rv.SetInt(n.Int64())
		}
		return rv.Interface(), nil

	case abi.AddressTy:
		return toAddress(v)

	case abi.BoolTy:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("cannot use %T as bool", v)
		}
		return strconv.ParseBool(strings.TrimSpace(s))

	case abi.StringTy:
		switch x := v.(type) {
		case []byte:
			return string(x), nil
		case fmt.Stringer:
			return x.String(), nil
		}
		return nil, fmt.Errorf("cannot use %T as string", v)

	case abi.BytesTy:
		return toBytes(v)

	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit in bytes%d", len(b), t.Size)
		}
		rv := reflect.New(target).Elem()
		reflect.Copy(rv, reflect.ValueOf(b))
		return rv.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		return coerceList(t, target, v)
	}

	return v, nil
}

func coerceList(t abi.Type, target reflect.Type, v interface{}) (interface{}, error) {
	rv := reflect.ValueOf(v)
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]"))
		var parts []string
		if s != "" {
			parts = strings.Split(s, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
		}
		rv = reflect.ValueOf(parts)
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot use %T as %s", v, t)
	}

	var out reflect.Value
	if t.T == abi.ArrayTy {
		if rv.Len() != t.Size {
			return nil, fmt.Errorf("expected %d elements, got %d", t.Size, rv.Len())
		}
		out = reflect.New(target).Elem()
	} else {
		out = reflect.MakeSlice(target, rv.Len(), rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		elem, err := coerce(*t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}

func toBigInt(v interface{}) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil *big.Int")
		}
		return x, nil
	case big.Int:
		return &x, nil
	case *uint256.Int:
		if x == nil {
			return nil, fmt.Errorf("nil *uint256.Int")
		}
		return x.ToBig(), nil
	case uint256.Int:
		return x.ToBig(), nil
	case *big.Float:
		if x == nil || !x.IsInt() {
			return nil, fmt.Errorf("%v is not an integer", x)
		}
		n, _ := x.Int(nil)
		return n, nil
	case string:
		n, ok := new(big.Int).SetString(strings.TrimSpace(x), 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", x)
		}
		return n, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := big.NewFloat(rv.Float())
		if !f.IsInt() {
			return nil, fmt.Errorf("%v is not an integer", v)
		}
		n, _ := f.Int(nil)
		return n, nil
	}
	return nil, fmt.Errorf("cannot use %T as integer", v)
}

func toAddress(v interface{}) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case *common.Address:
		if x == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *x, nil
	case string:
		s := strings.TrimSpace(x)
		if !isHexAddress(s) {
			return common.Address{}, fmt.Errorf("invalid address %q", x)
		}
		return common.HexToAddress(s), nil
	case []byte:
		if len(x) != common.AddressLength {
			return common.Address{}, fmt.Errorf("address must be %d bytes, got %d", common.AddressLength, len(x))
		}
		return common.BytesToAddress(x), nil
	}
	return common.Address{}, fmt.Errorf("cannot use %T as address", v)
}

func toBytes(v interface{}) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
			s = "0x" + s
		}
		return hexutil.Decode(s)
	case common.Hash:
		return x.Bytes(), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return b, nil
	}
	return nil, fmt.Errorf("cannot use %T as bytes", v)
}

// isHexAddress accepts exactly 0x followed by 40 hex digits, in any case.
func isHexAddress(s string) bool {
	if len(s) != 2+2*common.AddressLength {
		return false
	}
	if s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	return common.IsHexAddress(s)
}
