package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRenewalDue(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"fresh session, outside window", now.Add(SessionMaxDuration), false},
		{"just outside window", now.Add(SessionRefreshInterval + time.Second), false},
		{"exactly at window boundary", now.Add(SessionRefreshInterval), true},
		{"inside window", now.Add(time.Hour), true},
		{"about to expire", now.Add(time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renewalDue(now, tt.expiresAt))
		})
	}
}

func TestSessionDurations(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, SessionMaxDuration)
	assert.Equal(t, 2*SessionRefreshInterval, SessionMaxDuration)
}
