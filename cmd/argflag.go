package cmd

import (
	"strings"

	"github.com/Justype/condorlink/internal/condor"
	"github.com/Justype/condorlink/internal/utils"
)

// argsValue is a repeatable --arg key=value flag that keeps command-line order.
type argsValue struct {
	args *condor.Args
}

func newArgsValue() *argsValue {
	return &argsValue{args: condor.NewArgs()}
}

func (v *argsValue) String() string {
	return v.args.String()
}

// Set accepts "key=value" or a bare "key" switch.
func (v *argsValue) Set(s string) error {
	if !strings.Contains(s, "=") {
		v.args.Set(strings.TrimSpace(s), nil)
		return nil
	}
	key, value, err := utils.ParseKeyValue(s)
	if err != nil {
		return err
	}
	v.args.Set(key, value)
	return nil
}

func (v *argsValue) Type() string {
	return "key=value"
}

// Args returns the collected arguments.
func (v *argsValue) Args() *condor.Args {
	return v.args
}
