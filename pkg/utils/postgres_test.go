package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns != 20 || c.MaxIdleConns != 10 {
		t.Fatalf("unexpected pool sizes: %+v", c)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout: %s", c.PingTimeout)
	}

	c = PostgresPoolConfig{MaxOpenConns: 3}.withDefaults()
	if c.MaxOpenConns != 3 {
		t.Fatalf("explicit value must win, got %d", c.MaxOpenConns)
	}
}
