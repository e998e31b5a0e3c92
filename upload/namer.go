package upload

import (
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const maxBaseLen = 64

// Namer generates unique object names of the form <millis>-<base><ext>.
// The millisecond stamp is strictly increasing within the process, so two
// uploads in the same millisecond never collide.
type Namer struct {
	last atomic.Int64
	now  func() time.Time
}

// NewNamer returns a namer over the wall clock.
func NewNamer() *Namer {
	return &Namer{now: time.Now}
}

// NewNamerWithClock is NewNamer with an injectable clock.
func NewNamerWithClock(now func() time.Time) *Namer {
	return &Namer{now: now}
}

// Name returns a unique name for the original client file name.
func (n *Namer) Name(original string) string {
	original = filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	ext := filepath.Ext(original)

	base := sanitize(strings.TrimSuffix(original, ext))
	if base == "" {
		base = "file"
	}

	name := strconv.FormatInt(n.next(), 10) + "-" + base
	if ext = sanitize(strings.ToLower(ext)); ext != "" {
		name += "." + ext
	}
	return name
}

func (n *Namer) next() int64 {
	for {
		now := n.now().UnixMilli()
		last := n.last.Load()
		if now <= last {
			now = last + 1
		}
		if n.last.CompareAndSwap(last, now) {
			return now
		}
	}
}

// sanitize keeps ASCII letters, digits, dot, dash and underscore.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
		if b.Len() >= maxBaseLen {
			break
		}
	}
	return strings.Trim(b.String(), ".")
}
