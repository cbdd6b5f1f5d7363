package dispatcher_test

import (
	"testing"

	"github.com/wlf-engine/wlf/pkg/dispatcher"
)

func TestNewRedisKeepsConfiguredID(t *testing.T) {
	d := dispatcher.NewRedis(dispatcher.RedisConfig{ID: "r1"})
	if d.ID() != "r1" {
		t.Errorf("ID = %s", d.ID())
	}
}
