// Package console is a line-oriented command interpreter for the touch
// service. It runs over any reader/writer pair: stdin on a host, the UART on
// firmware builds.
//
//	read <chip> [electrode]            filtered value(s)
//	baseline <chip> <electrode>        baseline value
//	touched <chip>                     touch bitmap
//	get <chip>                         stored parameters and device registers
//	set <chip> <field> <value>         ffi|cdc|cdt|sfi|esi, clamped silently
//	threshold <chip> <touch> <release>
//	save | reset | help
//
// Replies are "ok ..." or "error: <code>".
package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"plantsense-go/drivers/mpr121"
	"plantsense-go/errcode"
	"plantsense-go/types"
	"plantsense-go/x/mathx"
)

// Service is the subset of *touch.Service the console drives.
type Service interface {
	Read(chip types.ChipSelector, electrode uint8) (uint16, error)
	ReadAll(chip types.ChipSelector) ([mpr121.Electrodes]uint16, error)
	Baseline(chip types.ChipSelector, electrode uint8) (uint16, error)
	Touched(chip types.ChipSelector) (uint16, error)
	SetField(chip types.ChipSelector, field types.ConfigField, value uint8) error
	SetThresholds(chip types.ChipSelector, touch, release uint8) error
	Params(chip types.ChipSelector) types.ParameterSet
	Registers(chip types.ChipSelector) (config1, config2 uint8, err error)
	Save() error
	Reset() error
}

type Console struct {
	svc Service
}

func New(svc Service) *Console { return &Console{svc: svc} }

// Serve executes one command per line until r is exhausted.
func (c *Console) Serve(r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := io.WriteString(w, c.Exec(line)+"\n"); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Exec runs a single command line and returns the reply line.
func (c *Console) Exec(line string) string {
	args, err := shlex.Split(line)
	if err != nil || len(args) == 0 {
		return reply(errcode.InvalidParams)
	}
	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "help", "?":
		return help()
	case "save":
		if err := c.svc.Save(); err != nil {
			return reply(codeOr(err, errcode.StorageError))
		}
		return "ok saved"
	case "reset":
		if err := c.svc.Reset(); err != nil {
			return reply(codeOr(err, errcode.StorageError))
		}
		return "ok defaults"
	}

	if len(args) == 0 {
		if isKnown(cmd) {
			return reply(errcode.InvalidParams)
		}
		return reply(errcode.UnknownCommand)
	}
	chip, err := types.ParseChip(args[0])
	if err != nil {
		if !isKnown(cmd) {
			return reply(errcode.UnknownCommand)
		}
		return reply(errcode.UnknownChip)
	}
	args = args[1:]

	switch cmd {
	case "read":
		return c.read(chip, args)
	case "baseline":
		if len(args) != 1 {
			return reply(errcode.InvalidParams)
		}
		e, ok := parseU8(args[0])
		if !ok {
			return reply(errcode.InvalidParams)
		}
		v, err := c.svc.Baseline(chip, e)
		if err != nil {
			return reply(codeOr(err, errcode.BusError))
		}
		return fmt.Sprintf("ok %d", v)
	case "touched":
		m, err := c.svc.Touched(chip)
		if err != nil {
			return reply(codeOr(err, errcode.BusError))
		}
		return fmt.Sprintf("ok 0x%04x", m)
	case "get":
		return c.get(chip)
	case "set":
		if len(args) != 2 {
			return reply(errcode.InvalidParams)
		}
		f, err := types.ParseField(args[0])
		if err != nil {
			return reply(errcode.UnknownField)
		}
		v, ok := parseU8(args[1])
		if !ok {
			return reply(errcode.InvalidParams)
		}
		if err := c.svc.SetField(chip, f, v); err != nil {
			return reply(codeOr(err, errcode.BusError))
		}
		got, _ := c.svc.Params(chip).Get(f)
		return fmt.Sprintf("ok %s=%d", f, got)
	case "threshold":
		if len(args) != 2 {
			return reply(errcode.InvalidParams)
		}
		touch, ok1 := parseU8(args[0])
		release, ok2 := parseU8(args[1])
		if !ok1 || !ok2 {
			return reply(errcode.InvalidParams)
		}
		if err := c.svc.SetThresholds(chip, touch, release); err != nil {
			return reply(codeOr(err, errcode.BusError))
		}
		return fmt.Sprintf("ok touch=%d release=%d", touch, release)
	}
	return reply(errcode.UnknownCommand)
}

func (c *Console) read(chip types.ChipSelector, args []string) string {
	switch len(args) {
	case 0:
		vals, err := c.svc.ReadAll(chip)
		if err != nil {
			return reply(codeOr(err, errcode.BusError))
		}
		var b strings.Builder
		b.WriteString("ok")
		for _, v := range vals {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(int(v)))
		}
		return b.String()
	case 1:
		e, ok := parseU8(args[0])
		if !ok {
			return reply(errcode.InvalidParams)
		}
		v, err := c.svc.Read(chip, e)
		if err != nil {
			return reply(codeOr(err, errcode.BusError))
		}
		return fmt.Sprintf("ok %d", v)
	}
	return reply(errcode.InvalidParams)
}

func (c *Console) get(chip types.ChipSelector) string {
	p := c.svc.Params(chip)
	c1, c2, err := c.svc.Registers(chip)
	if err != nil {
		return reply(codeOr(err, errcode.BusError))
	}
	return fmt.Sprintf("ok ffi=%d cdc=%d cdt=%d sfi=%d esi=%d config1=%#02x config2=%#02x",
		p.FFI, p.CDC, p.CDT, p.SFI, p.ESI, c1, c2)
}

// help lists the commands and the field names accepted by set.
func help() string {
	var b strings.Builder
	b.WriteString("ok read baseline touched get set threshold save reset help; fields:")
	for _, f := range types.Fields {
		b.WriteByte(' ')
		b.WriteString(f.String())
	}
	return b.String()
}

var known = map[string]bool{
	"read": true, "baseline": true, "touched": true, "get": true, "set": true, "threshold": true,
}

func isKnown(cmd string) bool { return known[cmd] }

func reply(c errcode.Code) string { return "error: " + string(c) }

// codeOr maps err to a console code, falling back to def for opaque errors.
func codeOr(err error, def errcode.Code) errcode.Code {
	if c := errcode.Of(err); c != errcode.Error {
		return c
	}
	return def
}

// parseU8 accepts decimal or 0x-prefixed values. Values above 255 saturate
// so that out-of-range requests still clamp instead of failing.
func parseU8(s string) (uint8, bool) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, false
	}
	return mathx.Saturate(v), true
}
