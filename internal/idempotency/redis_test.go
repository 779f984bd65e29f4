package idempotency_test

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/idempotency"

	"github.com/stretchr/testify/assert"
)

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	rdb, err := idempotency.Connect(ctx, "127.0.0.1:1")
	assert.Error(t, err)
	assert.Nil(t, rdb)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}
