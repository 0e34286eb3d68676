package sealite

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"
)

var (
	anySliceType = reflect.TypeFor[[]any]()
	scannerType  = reflect.TypeFor[sql.Scanner]()
	timeType     = reflect.TypeFor[time.Time]()
)

// scanFunc maps the current row of rows to T.
type scanFunc[T any] func(rows *sql.Rows) (T, error)

// newScanFunc builds the mapping from the given columns to T:
//
//   - []any receives every column as returned by the driver.
//   - A struct (or pointer to struct) is filled field by field, matching
//     columns to the `db` tag or else the field name, ignoring case.
//   - Anything else is scanned as is and needs exactly one column.
func newScanFunc[T any](columns []string) (scanFunc[T], error) {
	typ := reflect.TypeFor[T]()

	if typ == anySliceType {
		return func(rows *sql.Rows) (T, error) {
			values := make([]any, len(columns))
			dest := make([]any, len(columns))
			for i := range values {
				dest[i] = &values[i]
			}

			err := rows.Scan(dest...)
			out, _ := any(values).(T)
			return out, err
		}, nil
	}

	structType, isPointer, ok := structTarget(typ)
	if !ok {
		if len(columns) != 1 {
			return nil, fmt.Errorf(
				"%w: %s needs exactly one column, got %d",
				ErrColumnMismatch, typ, len(columns),
			)
		}
		return func(rows *sql.Rows) (T, error) {
			var out T
			err := rows.Scan(&out)
			return out, err
		}, nil
	}

	indexes, err := fieldIndexes(structType, columns)
	if err != nil {
		return nil, err
	}

	return func(rows *sql.Rows) (T, error) {
		var out T
		target := reflect.ValueOf(&out).Elem()
		if isPointer {
			target.Set(reflect.New(structType))
			target = target.Elem()
		}

		dest := make([]any, len(indexes))
		for i, index := range indexes {
			dest[i] = fieldByIndex(target, index).Addr().Interface()
		}

		err := rows.Scan(dest...)
		return out, err
	}, nil
}

// structTarget reports whether typ is mapped field by field, returning the
// struct type and whether typ is a pointer to it. Scanners and time.Time
// are scanned whole.
func structTarget(typ reflect.Type) (reflect.Type, bool, bool) {
	isPointer := false
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
		isPointer = true
	}

	if typ.Kind() != reflect.Struct || typ == timeType {
		return nil, false, false
	}
	if reflect.PointerTo(typ).Implements(scannerType) {
		return nil, false, false
	}
	return typ, isPointer, true
}

// fieldIndexes returns, for every column, the index path of the struct
// field receiving it.
func fieldIndexes(structType reflect.Type, columns []string) ([][]int, error) {
	fields := map[string][]int{}
	for _, field := range reflect.VisibleFields(structType) {
		if !field.IsExported() {
			continue
		}
		if field.Anonymous {
			if _, _, ok := structTarget(field.Type); ok {
				continue
			}
		}
		if !settable(structType, field.Index) {
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup("db"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}

		key := strings.ToLower(name)
		if _, taken := fields[key]; !taken {
			fields[key] = field.Index
		}
	}

	indexes := make([][]int, len(columns))
	for i, column := range columns {
		index, ok := fields[strings.ToLower(column)]
		if !ok {
			return nil, fmt.Errorf(
				"%w: column %q has no destination in %s",
				ErrColumnMismatch, column, structType,
			)
		}
		indexes[i] = index
	}

	return indexes, nil
}

// settable reports whether the field at index can be reached without
// allocating an unexported embedded pointer, which reflect forbids.
func settable(structType reflect.Type, index []int) bool {
	typ := structType
	for _, x := range index[:len(index)-1] {
		field := typ.Field(x)
		typ = field.Type
		if typ.Kind() == reflect.Pointer {
			if !field.IsExported() {
				return false
			}
			typ = typ.Elem()
		}
	}
	return true
}

// fieldByIndex is reflect.Value.FieldByIndex allocating nil embedded
// pointers on the way.
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}
