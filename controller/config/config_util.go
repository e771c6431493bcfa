package config

import (
	"errors"
	"net"
	"reflect"
	"strconv"
)

type param interface {
	Validate() error
}

// Display carries the labels the web client shows next to a param.
type Display struct {
	Description string
	Name        string
	Group       string
}

type U16Param struct {
	Type    string
	Value   uint16
	Range   [2]uint16
	Display Display
}

type U64Param struct {
	Type    string
	Value   uint64
	Range   [2]uint64
	Display Display
}

type BoolParam struct {
	Type    string
	Value   bool
	Display Display
}

type SelectParam struct {
	Type    string
	Value   string
	Range   []string
	Display Display
}

// StringParam is free text whose length (in bytes) must fall within Range.
type StringParam struct {
	Type    string
	Value   string
	Range   [2]uint64
	Display Display
}

// ListParam is an ordered list of distinct, non-empty strings.
// Range bounds the number of entries.
type ListParam struct {
	Type    string
	Value   []string
	Range   [2]uint64
	Display Display
}

type IPV4Param struct {
	Type string
	// To support the range of IP addresses, this is a string
	// To convert to the proper IP address that can be used later on use GetValue
	Value   string
	Display Display
}

func (p U16Param) Validate() error {
	if p.Value >= p.Range[0] && p.Value <= p.Range[1] {
		return nil
	}
	return errors.New("U16 value out of range")
}

func (p U64Param) Validate() error {
	if p.Value >= p.Range[0] && p.Value <= p.Range[1] {
		return nil
	}
	return errors.New("U64 value out of range")
}

func (p BoolParam) Validate() error {
	return nil
}

func (p SelectParam) Validate() error {
	for _, s := range p.Range {
		if s == p.Value {
			return nil
		}
	}
	return errors.New("Select value not in list")
}

func (p StringParam) Validate() error {
	l := uint64(len(p.Value))
	if l < p.Range[0] || l > p.Range[1] {
		return errors.New("String length must be between " +
			strconv.FormatUint(p.Range[0], 10) + " and " + strconv.FormatUint(p.Range[1], 10))
	}
	return nil
}

func (p ListParam) Validate() error {
	l := uint64(len(p.Value))
	if l < p.Range[0] || l > p.Range[1] {
		return errors.New("List length must be between " +
			strconv.FormatUint(p.Range[0], 10) + " and " + strconv.FormatUint(p.Range[1], 10))
	}
	seen := make(map[string]bool, len(p.Value))
	for _, s := range p.Value {
		if s == "" {
			return errors.New("List entries must not be empty")
		}
		if seen[s] {
			return errors.New("Duplicate list entry " + strconv.Quote(s))
		}
		seen[s] = true
	}
	return nil
}

func (p IPV4Param) Validate() error {
	_, err := p.GetValue()
	return err
}

func (p *IPV4Param) GetValue() ([4]byte, error) {
	var buf [4]byte
	if ip := net.ParseIP(p.Value); ip != nil {
		if ip4 := ip.To4(); ip4 != nil && len(ip4) == 4 {
			copy(buf[:], ip4[:4])
			return buf, nil
		}
	}
	return buf, errors.New("Invalid IPV4 address")
}

func MakeIPV4(value string, display Display) IPV4Param {
	return IPV4Param{"ipv4", value, display}
}
func MakeU16(value uint16, rng [2]uint16, display Display) U16Param {
	return U16Param{"u16", value, rng, display}
}
func MakeU64(value uint64, rng [2]uint64, display Display) U64Param {
	return U64Param{"u64", value, rng, display}
}
func MakeSelect(value string, rng []string, display Display) SelectParam {
	return SelectParam{"select", value, rng, display}
}
func MakeBool(value bool, display Display) BoolParam {
	return BoolParam{"bool", value, display}
}
func MakeString(value string, rng [2]uint64, display Display) StringParam {
	return StringParam{"string", value, rng, display}
}

// MakeList copies value so the default slices are never shared between configs.
func MakeList(value []string, rng [2]uint64, display Display) ListParam {
	return ListParam{"list", append([]string(nil), value...), rng, display}
}

// Validate checks every param of a single config struct.
// Every exported field must be a param.
func Validate(c interface{}) error {
	v := reflect.ValueOf(c)
	// We support pointers
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	if t.Kind() != reflect.Struct {
		return errors.New("Config is not a struct")
	}
	for i := 0; i < t.NumField(); i++ {
		fieldName := t.Field(i).Name
		if !v.Field(i).CanInterface() {
			return errors.New(fieldName + " : Could not retrieve unexported field")
		}
		p, ok := v.Field(i).Interface().(param)
		if !ok {
			return errors.New(fieldName + " : Invalid struct field type")
		}
		if err := p.Validate(); err != nil {
			return errors.New(fieldName + " : " + err.Error())
		}
	}
	return nil
}

// ValidateConfigSet analyses a struct containing several config structs
// to ensure that they are all valid
func ValidateConfigSet(c interface{}) error {
	v := reflect.ValueOf(c)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()
	if t.Kind() != reflect.Struct {
		return errors.New("Config is not a struct")
	}
	for i := 0; i < t.NumField(); i++ {
		fieldName := t.Field(i).Name
		if !v.Field(i).CanInterface() {
			return errors.New(fieldName + " : Could not retrieve unexported field")
		}
		if err := Validate(v.Field(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// CopyValue copies every param value from c2 to c1.
// Nothing is copied unless every field is compatible.
func CopyValue(c1 interface{}, c2 interface{}) error {
	p1 := reflect.ValueOf(c1)
	v2 := reflect.ValueOf(c2)

	if p1.Kind() != reflect.Ptr {
		return errors.New("Initial config must be pointer")
	}

	v1 := p1.Elem()
	if v2.Kind() == reflect.Ptr {
		v2 = v2.Elem()
	}
	if err := validateCopy(v1, v2); err != nil {
		return err
	}
	performCopy(v1, v2)
	return nil
}

func validateCopy(v1 reflect.Value, v2 reflect.Value) error {
	if v1.Type() != v2.Type() {
		return errors.New("Configs must be same type")
	}
	t := v1.Type()
	if t.Kind() != reflect.Struct {
		return errors.New("Configs must be struct")
	}
	for i := 0; i < t.NumField(); i++ {
		fieldName := t.Field(i).Name
		f1 := v1.Field(i)
		f2 := v2.Field(i)
		if t.Field(i).Type.Kind() != reflect.Struct {
			return errors.New(fieldName + " : must be struct")
		}
		if _, ok := t.Field(i).Type.FieldByName("Value"); !ok {
			return errors.New(fieldName + " : struct must contain Value field")
		}
		if !f1.FieldByName("Value").CanSet() {
			return errors.New(fieldName + " : struct Value field must be settable")
		}
		if f1.FieldByName("Value").Type() != f2.FieldByName("Value").Type() {
			return errors.New(fieldName + " : struct Value field must contain compatible types")
		}
	}
	return nil
}

func performCopy(v1 reflect.Value, v2 reflect.Value) {
	t := v1.Type()
	for i := 0; i < t.NumField(); i++ {
		src := v2.Field(i).FieldByName("Value")
		dst := v1.Field(i).FieldByName("Value")
		// Lists are cloned so that the two configs never alias
		if src.Kind() == reflect.Slice && !src.IsNil() {
			clone := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
			reflect.Copy(clone, src)
			dst.Set(clone)
		} else {
			dst.Set(src)
		}
	}
}

// CopyValueSet copies the param values of the named config structs in c2 to c1.
// If fields is nil every config struct is copied.
func CopyValueSet(c1 interface{}, c2 interface{}, fields []string) error {
	p1 := reflect.ValueOf(c1)
	v2 := reflect.ValueOf(c2)

	if p1.Kind() != reflect.Ptr {
		return errors.New("Initial config must be pointer")
	}

	v1 := p1.Elem()
	if v2.Kind() == reflect.Ptr {
		v2 = v2.Elem()
	}

	if v1.Type() != v2.Type() {
		return errors.New("Configs must be same type")
	}

	t := v1.Type()
	if t.Kind() != reflect.Struct {
		return errors.New("Configs must be struct")
	}
	if fields == nil {
		for i := 0; i < t.NumField(); i++ {
			fields = append(fields, t.Field(i).Name)
		}
	}
	for _, fname := range fields {
		f1 := v1.FieldByName(fname)
		f2 := v2.FieldByName(fname)
		if !f1.IsValid() || !f2.IsValid() {
			return errors.New(fname + " : field not in struct")
		}
		if err := validateCopy(f1, f2); err != nil {
			return errors.New(fname + " : " + err.Error())
		}
	}
	for _, fname := range fields {
		performCopy(v1.FieldByName(fname), v2.FieldByName(fname))
	}
	return nil
}
