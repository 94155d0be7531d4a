package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ok(context.Context) error { return nil }
func down(context.Context) error { return errors.New("dial tcp: refused") }

func TestCheck(t *testing.T) {
	s := NewHealthService(Deps{Critical: map[string]Pinger{"cache": PingFunc(ok)}})
	assert.Equal(t, "ok", s.Check(context.Background()).Status)

	s = NewHealthService(Deps{
		Critical: map[string]Pinger{"cache": PingFunc(ok)},
		Optional: map[string]Pinger{"db": PingFunc(down)},
	})
	res := s.Check(context.Background())
	assert.Equal(t, "degraded", res.Status)
	assert.Equal(t, "down", res.Components["db"].Status)

	s = NewHealthService(Deps{
		Critical: map[string]Pinger{"cache": PingFunc(down)},
		Optional: map[string]Pinger{"db": PingFunc(down)},
	})
	assert.Equal(t, "unavailable", s.Check(context.Background()).Status)
}
