package authproto

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	flood := &Error{Kind: KindRateLimited, Wait: 30 * time.Second, Err: errors.New("FLOOD_WAIT_30")}
	wrapped := fmt.Errorf("send code: %w", flood)

	assert.Equal(t, KindRateLimited, KindOf(wrapped))
	assert.Equal(t, 30*time.Second, WaitOf(wrapped))
	assert.Equal(t, KindTransport, KindOf(context.DeadlineExceeded))
	assert.Zero(t, WaitOf(context.DeadlineExceeded))
	assert.Contains(t, flood.Error(), "wait 30s")
}

func TestDeliveryString(t *testing.T) {
	assert.Equal(t, "SMS", DeliverySMS.String())
	assert.Equal(t, "Telegram app notification", DeliveryApp.String())
}
