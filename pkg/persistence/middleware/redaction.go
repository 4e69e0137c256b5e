package middleware

import (
	"context"
	"regexp"

	"github.com/calyptra/flume/pkg/ports"
	"github.com/calyptra/flume/pkg/schema"
)

type redactionMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks the stored
// values of channels whose labels match the patterns, recursively through
// composite children. The in-memory snapshot is untouched.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, key string, snap *schema.Snapshot) error {
	return m.next.Save(ctx, key, m.redact(snap))
}

func (m *redactionMiddleware) Load(ctx context.Context, key string) (*schema.Snapshot, error) {
	return m.next.Load(ctx, key)
}

func (m *redactionMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// redact deep-copies the snapshot with matching channel values masked, so
// the caller's copy keeps its real data.
func (m *redactionMiddleware) redact(snap *schema.Snapshot) *schema.Snapshot {
	out := *snap
	out.Inputs = m.maskChannels(snap.Inputs)
	out.Outputs = m.maskChannels(snap.Outputs)
	if len(snap.Children) > 0 {
		out.Children = make(map[string]*schema.Snapshot, len(snap.Children))
		for label, child := range snap.Children {
			out.Children[label] = m.redact(child)
		}
	}
	return &out
}

func (m *redactionMiddleware) maskChannels(channels map[string]schema.Value) map[string]schema.Value {
	out := make(map[string]schema.Value, len(channels))
	for label, v := range channels {
		for _, p := range m.patterns {
			if p.MatchString(label) && v.Present {
				v.Data = "***"
				break
			}
		}
		out[label] = v
	}
	return out
}
