package schema

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var scannerType = reflect.TypeFor[sql.Scanner]()

// Assign stores a database value in dst, which must be settable. nil stores the
// zero value. Conversions cover sql.Scanner fields, pointer fields, numeric
// widening and narrowing, []byte and string, textual numbers and booleans
// (drivers such as MySQL return these as bytes) and integer booleans.
func Assign(dst reflect.Value, src any) error {
	if !dst.CanSet() {
		return fmt.Errorf("%w: destination is not settable", ErrNotAssignable)
	}
	if src == nil {
		dst.SetZero()
		return nil
	}
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}
	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := Assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	if dst.Kind() == reflect.Interface && sv.Type().Implements(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	if err := convertAssign(dst, sv); err != nil {
		return fmt.Errorf("%w: %T into %s: %v", ErrNotAssignable, src, dst.Type(), err)
	}
	return nil
}

func convertAssign(dst, sv reflect.Value) error {
	if b, ok := sv.Interface().([]byte); ok {
		return assignText(dst, string(b))
	}
	if s, ok := sv.Interface().(string); ok && dst.Kind() != reflect.String {
		return assignText(dst, s)
	}

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return setInt(dst, sv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return setInt(dst, int64(sv.Uint()))
		case reflect.Float32, reflect.Float64:
			return setInt(dst, int64(sv.Float()))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if sv.Int() < 0 {
				return fmt.Errorf("negative value %d", sv.Int())
			}
			return setUint(dst, uint64(sv.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return setUint(dst, sv.Uint())
		}
	case reflect.Float32, reflect.Float64:
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetFloat(float64(sv.Int()))
			return nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			dst.SetFloat(float64(sv.Uint()))
			return nil
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(sv.Float())
			return nil
		}
	case reflect.Bool:
		switch sv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetBool(sv.Int() != 0)
			return nil
		}
	case reflect.String:
		switch sv.Kind() {
		case reflect.String:
			dst.SetString(sv.String())
			return nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			dst.SetString(strconv.FormatInt(sv.Int(), 10))
			return nil
		}
		if t, ok := sv.Interface().(time.Time); ok {
			dst.SetString(t.Format(time.RFC3339Nano))
			return nil
		}
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 && sv.Kind() == reflect.String {
			dst.SetBytes([]byte(sv.String()))
			return nil
		}
	}
	if sv.Type().ConvertibleTo(dst.Type()) && sv.Kind() == dst.Kind() {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("unsupported conversion")
}

func assignText(dst reflect.Value, s string) error {
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(s)
		return nil
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			dst.SetBytes([]byte(s))
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		return setInt(dst, n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		return setUint(dst, n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetFloat(f)
		return nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		dst.SetBool(b)
		return nil
	case reflect.Struct:
		if dst.Type() == timeType {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				t, err = time.Parse(time.DateTime, s)
			}
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(t))
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q", s)
}

func setInt(dst reflect.Value, n int64) error {
	if dst.OverflowInt(n) {
		return fmt.Errorf("value %d overflows %s", n, dst.Type())
	}
	dst.SetInt(n)
	return nil
}

func setUint(dst reflect.Value, n uint64) error {
	if dst.OverflowUint(n) {
		return fmt.Errorf("value %d overflows %s", n, dst.Type())
	}
	dst.SetUint(n)
	return nil
}

// ToInt64 normalizes a generated key returned by a driver to int64.
func ToInt64(v any) (int64, error) {
	var n int64
	if err := Assign(reflect.ValueOf(&n).Elem(), v); err != nil {
		return 0, err
	}
	return n, nil
}
