package logger

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

//nolint:gochecknoglobals // static palette shared by all encoders
var levelColors = map[zapcore.Level]*color.Color{
	zapcore.DebugLevel:  color.New(color.FgCyan),
	zapcore.InfoLevel:   color.New(color.FgGreen),
	zapcore.WarnLevel:   color.New(color.FgYellow),
	zapcore.ErrorLevel:  color.New(color.FgRed, color.Bold),
	zapcore.DPanicLevel: color.New(color.FgRed, color.Bold),
	zapcore.PanicLevel:  color.New(color.FgRed, color.Bold),
	zapcore.FatalLevel:  color.New(color.FgMagenta, color.Bold),
}

// prettyEncoder prints a console line with a colored level, followed by the
// structured fields as indented JSON. Fields added with With are accumulated
// by the embedded JSON encoder.
type prettyEncoder struct {
	zapcore.Encoder
	head zapcore.Encoder
	pool buffer.Pool
}

func newPrettyEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return &prettyEncoder{
		Encoder: zapcore.NewJSONEncoder(zapcore.EncoderConfig{}),
		head:    zapcore.NewConsoleEncoder(cfg),
		pool:    buffer.NewPool(),
	}
}

func (e *prettyEncoder) Clone() zapcore.Encoder {
	return &prettyEncoder{
		Encoder: e.Encoder.Clone(),
		head:    e.head,
		pool:    e.pool,
	}
}

func (e *prettyEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line, err := e.head.EncodeEntry(entry, nil)
	if err != nil {
		return nil, err
	}
	head := strings.TrimRight(line.String(), "\n")
	line.Free()

	if c, ok := levelColors[entry.Level]; ok {
		lvl := entry.Level.CapitalString()
		head = strings.Replace(head, lvl, c.Sprint(lvl), 1)
	}

	body, err := e.Encoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return nil, err
	}
	defer body.Free()

	out := e.pool.Get()
	out.AppendString(head)

	var m map[string]any
	if json.Unmarshal(body.Bytes(), &m) == nil && len(m) > 0 {
		if pretty, mErr := json.MarshalIndent(m, "", "  "); mErr == nil {
			out.AppendString("\n")
			out.AppendString(color.New(color.Faint).Sprint(string(pretty)))
		}
	}

	out.AppendString("\n")
	return out, nil
}

func newPrettyZap(cfg *zap.Config) *zap.Logger {
	core := zapcore.NewCore(newPrettyEncoder(cfg.EncoderConfig), zapcore.Lock(os.Stdout), cfg.Level)
	return zap.New(core)
}
