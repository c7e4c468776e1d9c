package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckSubscription(t *testing.T) {
	restaurantID := uint(3)

	cases := []struct {
		name         string
		channel      string
		serverID     uint
		restaurantID *uint
		wantErr      bool
	}{
		{"own server channel", "private-server-7", 7, &restaurantID, false},
		{"other server channel", "private-server-8", 7, &restaurantID, true},
		{"own restaurant channel", "private-restaurant-3", 7, &restaurantID, false},
		{"other restaurant channel", "private-restaurant-4", 7, &restaurantID, true},
		{"pending server restaurant channel", "private-restaurant-3", 7, nil, true},
		{"pending server own channel", "private-server-7", 7, nil, false},
		{"public channel", "restaurant-3", 7, &restaurantID, true},
		{"unknown scope", "private-admin-3", 7, &restaurantID, true},
		{"malformed id", "private-server-abc", 7, &restaurantID, true},
		{"empty", "", 7, &restaurantID, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckSubscription(tc.channel, tc.serverID, tc.restaurantID)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrForbidden)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestChannelNames(t *testing.T) {
	require.Equal(t, "private-restaurant-12", RestaurantChannel(12))
	require.Equal(t, "private-server-4", ServerChannel(4))
}
