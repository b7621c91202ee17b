package fsmbind

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"
)

// DefaultStateTag is the struct tag key that marks the state field.
const DefaultStateTag = "fsm"

const (
	stateTagName     = "state"
	stateTagReadonly = "readonly"
	stateTagOmitZero = "omitzero"
)

// Accessor reads and writes the state attribute of an entity.
// Read reports false when the attribute holds no state.
type Accessor[O any, S comparable] interface {
	Read(entity O) (S, bool, error)
	Write(entity O, state S) error
}

// AccessorOption configures a FieldAccessor.
type AccessorOption func(*accessorOptions)

type accessorOptions struct {
	tag string
}

// WithTag changes the struct tag key searched for the state marker.
func WithTag(key string) AccessorOption {
	return func(o *accessorOptions) {
		if key != "" {
			o.tag = key
		}
	}
}

// FieldAccessor is an Accessor backed by the single struct field tagged
// `fsm:"state"`. The field may be promoted from an embedded struct and may be
// unexported. Its type must be S or *S. A nil *S means no state. A value field
// always holds a state unless tagged `fsm:"state,omitzero"`, in which case its
// zero value means no state.
type FieldAccessor[O any, S comparable] struct {
	name     string
	index    []int
	pointer  bool
	omitZero bool
}

// NewFieldAccessor discovers the state field of O, which must be a pointer to a struct.
//
// Example:
//
//	type Order struct {
//		ID    string
//		State OrderState `fsm:"state"`
//	}
//
//	acc, err := fsmbind.NewFieldAccessor[*Order, OrderState]()
func NewFieldAccessor[O any, S comparable](opts ...AccessorOption) (*FieldAccessor[O, S], error) {
	o := &accessorOptions{tag: DefaultStateTag}
	for _, opt := range opts {
		opt(o)
	}

	t := reflect.TypeFor[O]()
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %s", ErrEntityType, t)
	}

	var (
		found    *reflect.StructField
		readonly bool
		omitZero bool
	)
	for _, f := range reflect.VisibleFields(t.Elem()) {
		value, ok := f.Tag.Lookup(o.tag)
		if !ok {
			continue
		}
		name, rest, _ := strings.Cut(value, ",")
		if strings.TrimSpace(name) != stateTagName {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: %s.%s and %s.%s", ErrMultipleStateFields, t.Elem().Name(), found.Name, t.Elem().Name(), f.Name)
		}
		found = &f
		for opt := range strings.SplitSeq(rest, ",") {
			switch strings.TrimSpace(opt) {
			case stateTagReadonly:
				readonly = true
			case stateTagOmitZero:
				omitZero = true
			}
		}
	}

	if found == nil {
		return nil, fmt.Errorf("%w: %s has no field tagged %s:%q", ErrNoStateField, t.Elem().Name(), o.tag, stateTagName)
	}

	st := reflect.TypeFor[S]()
	a := &FieldAccessor[O, S]{name: found.Name, index: found.Index, omitZero: omitZero}
	switch found.Type {
	case st:
	case reflect.PointerTo(st):
		a.pointer = true
	default:
		return nil, fmt.Errorf("%w: field %s is %s, want %s or *%s", ErrStateFieldType, found.Name, found.Type, st, st)
	}

	if readonly {
		return nil, fmt.Errorf("%w: field %s", ErrStateFieldImmutable, found.Name)
	}

	return a, nil
}

// Field returns the name of the discovered state field.
func (a *FieldAccessor[O, S]) Field() string {
	return a.name
}

func (a *FieldAccessor[O, S]) Read(entity O) (S, bool, error) {
	var zero S

	field, err := a.field(entity)
	if err != nil {
		return zero, false, err
	}

	if a.pointer {
		if field.IsNil() {
			return zero, false, nil
		}
		return *(field.Interface().(*S)), true, nil
	}

	state := field.Interface().(S)
	return state, !a.omitZero || state != zero, nil
}

func (a *FieldAccessor[O, S]) Write(entity O, state S) error {
	field, err := a.field(entity)
	if err != nil {
		return err
	}

	if a.pointer {
		p := new(S)
		*p = state
		field.Set(reflect.ValueOf(p))
		return nil
	}

	field.Set(reflect.ValueOf(&state).Elem())
	return nil
}

// field resolves the settable state field, walking embedded pointers.
func (a *FieldAccessor[O, S]) field(entity O) (reflect.Value, error) {
	v := reflect.ValueOf(entity)
	if !v.IsValid() || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: nil entity", ErrAccess)
	}

	field, err := v.Elem().FieldByIndexErr(a.index)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: field %s: %w", ErrAccess, a.name, err)
	}

	if !field.CanSet() {
		// Unexported field: the entity is addressable through its pointer.
		field = reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
	}
	return field, nil
}
