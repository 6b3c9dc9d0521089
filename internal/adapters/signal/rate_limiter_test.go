package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRoomRateLimiter(t *testing.T) {
	req := require.New(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRoomRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	req.True(rl.Allow("a"))
	req.True(rl.Allow("a"))
	req.False(rl.Allow("a"))
	req.True(rl.Allow("b"))

	now = now.Add(1100 * time.Millisecond)
	req.True(rl.Allow("a"))

	rl.Forget("a")
	req.True(rl.Allow("a"))
	req.False(rl.Allow("a"))
}

func TestStringData(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: `"alice"`, want: "alice"},
		{raw: ``, want: ""},
		{raw: `null`, want: ""},
		{raw: `12`, want: "12"},
		{raw: `true`, want: "true"},
		{raw: `{"a":1}`, wantErr: true},
		{raw: `["a"]`, wantErr: true},
		{raw: `nope`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := stringData([]byte(tt.raw))
			if tt.wantErr {
				require.ErrorIs(t, err, errBadPayload)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
