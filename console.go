package spindly

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"reflect"

	"github.com/dop251/goja"
)

// EnableConsole sets the console global on the runtime.
func EnableConsole(rt *goja.Runtime, attr ...slog.Attr) {
	v, _ := console(attr).Instantiate(rt)
	_ = rt.Set("console", v)
}

// console implements the js console
type console []slog.Attr

func (c console) Instantiate(rt *goja.Runtime) (goja.Value, error) {
	ret := rt.NewObject()
	_ = ret.Set("log", c.log)
	_ = ret.Set("debug", c.debug)
	_ = ret.Set("info", c.info)
	_ = ret.Set("warn", c.warn)
	_ = ret.Set("error", c.error)
	return ret, nil
}

func (c console) output(level slog.Level, call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	ctx := Context(rt)
	var args []goja.Value
	if len(call.Arguments) > 1 {
		args = call.Arguments[1:]
	}
	Logger(ctx).LogAttrs(ctx, level, Format(rt, call.Argument(0), args...).String(), c...)
	return goja.Undefined()
}

// log calls slog.Log.
func (c console) log(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	return c.output(slog.LevelInfo, call, rt)
}

// debug calls slog.Debug.
func (c console) debug(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	return c.output(slog.LevelDebug, call, rt)
}

// info calls slog.Info.
func (c console) info(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	return c.output(slog.LevelInfo, call, rt)
}

// warn calls slog.Warn.
func (c console) warn(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	return c.output(slog.LevelWarn, call, rt)
}

// error calls slog.Error.
func (c console) error(call goja.FunctionCall, rt *goja.Runtime) goja.Value {
	return c.output(slog.LevelError, call, rt)
}

func runeFormat(rt *goja.Runtime, f rune, val goja.Value, w *bytes.Buffer) bool {
	switch f {
	case 's':
		w.WriteString(val.String())
	case 'd':
		w.WriteString(val.ToNumber().String())
	case 'j':
		if j, ok := rt.Get("JSON").(*goja.Object); ok {
			if stringify, ok := goja.AssertFunction(j.Get("stringify")); ok {
				res, err := stringify(j, val)
				if err != nil {
					panic(err)
				}
				w.WriteString(res.String())
			}
		}
	case '%':
		w.WriteByte('%')
		return false
	default:
		w.WriteByte('%')
		w.WriteRune(f)
		return false
	}
	return true
}

func bufferFormat(rt *goja.Runtime, b *bytes.Buffer, f string, args ...goja.Value) {
	pct := false
	argNum := 0
	for _, chr := range f {
		if pct { //nolint:nestif
			if argNum < len(args) {
				if runeFormat(rt, chr, args[argNum], b) {
					argNum++
				}
			} else {
				b.WriteByte('%')
				b.WriteRune(chr)
			}
			pct = false
		} else {
			if chr == '%' {
				pct = true
			} else {
				b.WriteRune(chr)
			}
		}
	}

	for _, arg := range args[argNum:] {
		b.WriteByte(' ')
		b.WriteString(valueString(arg))
	}
}

func valueString(v goja.Value) string {
	if m, ok := v.(json.Marshaler); ok {
		data, err := m.MarshalJSON()
		if err == nil {
			return string(data)
		}
	}
	return v.String()
}

// Format implements js format
func Format(rt *goja.Runtime, msg goja.Value, args ...goja.Value) goja.Value {
	if msg == nil || goja.IsUndefined(msg) {
		return goja.Undefined()
	}

	if t := msg.ExportType(); t != nil && t.Kind() == reflect.String {
		s := msg.String()
		if len(args) > 0 {
			var b bytes.Buffer
			bufferFormat(rt, &b, s, args...)
			s = b.String()
		}
		return rt.ToValue(s)
	}

	var b bytes.Buffer
	b.WriteString(valueString(msg))
	for _, arg := range args {
		b.WriteRune(' ')
		b.WriteString(valueString(arg))
	}
	return rt.ToValue(b.String())
}

type loggerKey struct{}

// Logger get slog.Logger from the context
func Logger(ctx context.Context) *slog.Logger {
	if logger := ctx.Value(loggerKey{}); logger != nil {
		return logger.(*slog.Logger)
	}
	return slog.Default()
}

// WithLogger set the slog.Logger to context
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}
