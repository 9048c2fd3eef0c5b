package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWeekKey(t *testing.T) {
	k, err := ParseWeekKey("2025-W05", 2024)
	require.NoError(t, err)
	require.Equal(t, WeekKey{Year: 2025, Week: 5}, k)

	k, err = ParseWeekKey("2020w53", 2024)
	require.NoError(t, err)
	require.Equal(t, WeekKey{Year: 2020, Week: 53}, k)

	k, err = ParseWeekKey(" 7 ", 2025)
	require.NoError(t, err)
	require.Equal(t, WeekKey{Year: 2025, Week: 7}, k)

	for _, bad := range []string{"", "abc", "2025-W00", "2025-W53", "x-W3", "0"} {
		_, err := ParseWeekKey(bad, 2025)
		require.Error(t, err, bad)
	}
}

func TestParseWeekKeys_Dedup(t *testing.T) {
	ks, err := ParseWeekKeys([]string{"5", "2025-W05", "6"}, 2025)
	require.NoError(t, err)
	require.Equal(t, []WeekKey{{2025, 5}, {2025, 6}}, ks)
}

func TestDefaultWeeks_CrossesYear(t *testing.T) {
	// 2025-01-01 is in ISO week 1 of 2025; a week earlier is 2024-W52.
	now := time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, []WeekKey{{2024, 52}, {2025, 1}}, DefaultWeeks(now))
}

func TestWeekKey_StringAndOrder(t *testing.T) {
	require.Equal(t, "2025-W05", WeekKey{2025, 5}.String())
	require.Equal(t, "W5", WeekKey{2025, 5}.Label())
	require.True(t, WeekKey{2024, 52}.Before(WeekKey{2025, 1}))
	require.False(t, WeekKey{2025, 2}.Before(WeekKey{2025, 1}))
}

func TestParseEnums(t *testing.T) {
	require.Equal(t, StopStatusSucceeded, ParseStopStatus("Succeeded"))
	require.Equal(t, StopStatusFailed, ParseStopStatus("failed"))
	require.Equal(t, StopStatusOther, ParseStopStatus("Pending"))
	require.Equal(t, LoadStatusCompleted, ParseLoadStatus("Completed"))
	require.Equal(t, LoadStatusOther, ParseLoadStatus("InRoute"))

	yes, no, empty := "YES", "NO", ""
	require.Equal(t, TrackingEnabled, ParseTracking(&yes))
	require.Equal(t, TrackingDisabled, ParseTracking(&no))
	require.Equal(t, TrackingDisabled, ParseTracking(&empty))
	require.Equal(t, TrackingUnknown, ParseTracking(nil))

	require.True(t, IsAllCarriers(""))
	require.True(t, IsAllCarriers("all_carriers"))
	require.True(t, IsAllCarriers("*"))
	require.False(t, IsAllCarriers("ACME"))
}
