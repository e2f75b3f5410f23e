package uci

import (
	"errors"
	"fmt"
	"strconv"
)

type Option interface {
	UciName() string
	UciString() string
	Set(s string) error
}

type BoolOption struct {
	Name  string
	Value *bool
}

func (opt *BoolOption) UciName() string {
	return opt.Name
}

func (opt *BoolOption) UciString() string {
	return fmt.Sprintf("option name %v type check default %v", opt.Name, *opt.Value)
}

func (opt *BoolOption) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*opt.Value = v
	return nil
}

type IntOption struct {
	Name  string
	Min   int
	Max   int
	Value *int
}

func (opt *IntOption) UciName() string {
	return opt.Name
}

func (opt *IntOption) UciString() string {
	return fmt.Sprintf("option name %v type spin default %v min %v max %v",
		opt.Name, *opt.Value, opt.Min, opt.Max)
}

func (opt *IntOption) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v < opt.Min || v > opt.Max {
		return errors.New("argument out of range")
	}
	*opt.Value = v
	return nil
}

type StringOption struct {
	Name  string
	Value *string
}

func (opt *StringOption) UciName() string {
	return opt.Name
}

func (opt *StringOption) UciString() string {
	return fmt.Sprintf("option name %v type string default %v", opt.Name, *opt.Value)
}

func (opt *StringOption) Set(s string) error {
	*opt.Value = s
	return nil
}

// ButtonOption runs an action when set; UCI buttons carry no value.
type ButtonOption struct {
	Name   string
	Action func()
}

func (opt *ButtonOption) UciName() string {
	return opt.Name
}

func (opt *ButtonOption) UciString() string {
	return fmt.Sprintf("option name %v type button", opt.Name)
}

func (opt *ButtonOption) Set(s string) error {
	opt.Action()
	return nil
}
