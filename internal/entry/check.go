// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// ErrUnsupported reports a value that no codec can round-trip.
var ErrUnsupported = errors.New("unsupported value")

var (
	binaryMarshaler  = reflect.TypeFor[encoding.BinaryMarshaler]()
	textMarshaler    = reflect.TypeFor[encoding.TextMarshaler]()
	msgpackMarshaler = reflect.TypeFor[msgpack.Marshaler]()
	msgpackEncoder   = reflect.TypeFor[msgpack.CustomEncoder]()
	yamlMarshaler    = reflect.TypeFor[yaml.Marshaler]()
)

// Check reports whether v can be encoded without losing data. It rejects
// funcs, channels, unsafe pointers and struct fields the codecs would drop
// silently: unexported fields not tagged "-". Types that marshal themselves
// are trusted.
func Check(v any) error {
	return checkValue(reflect.ValueOf(v), "value")
}

// HasInterface reports whether a value of type t can hold interface values,
// whose dynamic types a decoder does not restore.
func HasInterface(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if cached, ok := dynamicTypes.Load(t); ok {
		return cached.(bool)
	}
	has := hasInterface(t, map[reflect.Type]bool{})
	dynamicTypes.Store(t, has)
	return has
}

var (
	dynamicTypes sync.Map // reflect.Type -> bool
	checkedTypes sync.Map // reflect.Type known to be encodable
)

func hasInterface(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return false
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return hasInterface(t.Elem(), seen)
	case reflect.Map:
		return hasInterface(t.Key(), seen) || hasInterface(t.Elem(), seen)
	case reflect.Struct:
		if selfMarshaling(t) {
			return false
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if skipped(f) {
				continue
			}
			if hasInterface(f.Type, seen) {
				return true
			}
		}
	}
	return false
}

func checkValue(v reflect.Value, path string) error {
	if !v.IsValid() {
		return nil
	}
	t := v.Type()
	if !HasInterface(t) {
		return checkType(t, path)
	}

	switch t.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		return checkValue(v.Elem(), path)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := checkValue(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			p := fmt.Sprintf("%s[%v]", path, iter.Key())
			if err := checkValue(iter.Key(), p); err != nil {
				return err
			}
			if err := checkValue(iter.Value(), p); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if skipped(f) {
				continue
			}
			if err := fieldAllowed(t, f, path); err != nil {
				return err
			}
			if err := checkValue(v.Field(i), path+"."+f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkType validates a type that holds no interfaces, so the result holds
// for every value of it.
func checkType(t reflect.Type, path string) error {
	if _, ok := checkedTypes.Load(t); ok {
		return nil
	}
	if err := walkType(t, path, map[reflect.Type]bool{}); err != nil {
		return err
	}
	checkedTypes.Store(t, struct{}{})
	return nil
}

func walkType(t reflect.Type, path string, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true

	switch t.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Errorf("%w: %s has kind %s", ErrUnsupported, path, t.Kind())
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return walkType(t.Elem(), path, seen)
	case reflect.Map:
		if err := walkType(t.Key(), path, seen); err != nil {
			return err
		}
		return walkType(t.Elem(), path, seen)
	case reflect.Struct:
		if selfMarshaling(t) {
			return nil
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if skipped(f) {
				continue
			}
			if err := fieldAllowed(t, f, path); err != nil {
				return err
			}
			if err := walkType(f.Type, path+"."+f.Name, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// fieldAllowed rejects unexported fields. An embedded struct of an unexported
// type is still encoded through its exported fields, which walkType and
// checkValue go on to check.
func fieldAllowed(owner reflect.Type, f reflect.StructField, path string) error {
	if f.IsExported() {
		return nil
	}
	if f.Anonymous && f.Type.Kind() == reflect.Struct {
		return nil
	}
	return fmt.Errorf("%w: %s: unexported field %s.%s would not be stored; export it or tag it `msgpack:\"-\"`",
		ErrUnsupported, path, owner, f.Name)
}

func skipped(f reflect.StructField) bool {
	return f.Tag.Get("msgpack") == "-" || f.Tag.Get("yaml") == "-"
}

func selfMarshaling(t reflect.Type) bool {
	for _, m := range []reflect.Type{binaryMarshaler, textMarshaler, msgpackMarshaler, msgpackEncoder, yamlMarshaler} {
		if t.Implements(m) || reflect.PointerTo(t).Implements(m) {
			return true
		}
	}
	return false
}
