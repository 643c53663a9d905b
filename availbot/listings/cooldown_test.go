package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanBump(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 30 * time.Minute

	tests := []struct {
		name     string
		now      time.Time
		want     bool
		wantWait time.Duration
	}{
		{
			name:     "immediately after bump",
			now:      base,
			want:     false,
			wantWait: 30 * time.Minute,
		},
		{
			name:     "ten minutes in",
			now:      base.Add(10 * time.Minute),
			want:     false,
			wantWait: 20 * time.Minute,
		},
		{
			name:     "one second short",
			now:      base.Add(30*time.Minute - time.Second),
			want:     false,
			wantWait: time.Second,
		},
		{
			name: "exactly at cooldown",
			now:  base.Add(30 * time.Minute),
			want: true,
		},
		{
			name: "well past cooldown",
			now:  base.Add(2 * time.Hour),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, wait := CanBump(base, tt.now, cooldown)
			require.Equal(t, tt.want, got)
			require.Equal(t, tt.wantWait, wait)
		})
	}
}

func TestCanBumpZeroCooldown(t *testing.T) {
	now := time.Now()
	ok, wait := CanBump(now, now, 0)
	require.True(t, ok)
	require.Zero(t, wait)
}
