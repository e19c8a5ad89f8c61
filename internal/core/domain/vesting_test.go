package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
	errors "github.com/vestlabs/vestd/pkg/errors"
)

func testSchedule() Schedule {
	return Schedule{
		StartTime:           1000,
		EndTime:             1000 + 360*day,
		InitialUnlock:       100,
		CliffReleaseTime:    1000 + 90*day,
		CliffAmount:         900,
		ReleaseIntervalSecs: 30 * day,
		LinearVestAmount:    3600,
	}
}

func TestNewVesting(t *testing.T) {
	schedule := testSchedule()
	v := NewVesting("abc", "alice", schedule, true, schedule.Total(), 500)

	require.Equal(t, "abc", v.Id)
	require.Equal(t, "alice", v.Recipient)
	require.True(t, v.Revocable)
	require.True(t, v.IsActive())
	require.Equal(t, schedule.Total(), v.FundedAmount)
	require.Equal(t, int64(500), v.CreatedAt)

	events := v.Events()
	require.Len(t, events, 1)
	require.Equal(t, EventTypeVestingCreated, events[0].GetType())
	require.Equal(t, "abc", events[0].GetID())
	require.Empty(t, v.Events())
}

func TestVestingFromEvents(t *testing.T) {
	schedule := testSchedule()
	v := NewVesting("abc", "alice", schedule, true, 0, 500)
	require.NoError(t, v.Fund(1000, 600))
	v.Claim(400, 5, 700)
	require.NoError(t, v.InitiateTransfer("bob", 800))
	require.NoError(t, v.TransferTo("bob", 900))

	rebuilt := NewVestingFromEvents(v.Events())
	require.Equal(t, "abc", rebuilt.Id)
	require.Equal(t, "bob", rebuilt.Recipient)
	require.Empty(t, rebuilt.PendingOwner)
	require.Equal(t, uint64(1000), rebuilt.FundedAmount)
	require.Equal(t, uint64(400), rebuilt.ClaimedAmount)
	require.True(t, rebuilt.IsActive())
}

func TestVestingFund(t *testing.T) {
	schedule := testSchedule()
	v := NewVesting("abc", "alice", schedule, true, 0, 500)
	v.Events()

	require.NoError(t, v.Fund(1000, 600))
	require.Equal(t, uint64(1000), v.FundedAmount)

	err := v.Fund(schedule.Total(), 700)
	require.Error(t, err)
	require.True(t, errors.FUNDING_LIMIT_EXCEEDED.Is(err))

	require.NoError(t, v.Fund(schedule.Total()-1000, 800))
	require.Equal(t, schedule.Total(), v.FundedAmount)

	err = v.Fund(1, 900)
	require.Error(t, err)
	require.True(t, errors.VESTING_FULLY_FUNDED.Is(err))
}

func TestVestingRevoke(t *testing.T) {
	schedule := testSchedule()

	t.Run("revocable", func(t *testing.T) {
		v := NewVesting("abc", "alice", schedule, true, schedule.Total(), 500)
		deactivation := schedule.StartTime + 100*day
		require.NoError(t, v.Revoke(3000, deactivation))
		require.False(t, v.IsActive())
		require.Equal(t, deactivation, v.DeactivationTime)
		require.Equal(t, uint64(3000), v.WithheldAmount)

		// curve frozen at the deactivation timestamp
		frozen := v.VestedAt(deactivation)
		require.Equal(t, frozen, v.VestedAt(schedule.EndTime+day))

		err := v.Revoke(0, deactivation+1)
		require.Error(t, err)
		require.True(t, errors.VESTING_NOT_ACTIVE.Is(err))

		err = v.Fund(1, deactivation+1)
		require.Error(t, err)
		require.True(t, errors.VESTING_NOT_ACTIVE.Is(err))
	})

	t.Run("not revocable", func(t *testing.T) {
		v := NewVesting("abc", "alice", schedule, false, schedule.Total(), 500)
		err := v.Revoke(3000, schedule.StartTime+100*day)
		require.Error(t, err)
		require.True(t, errors.VESTING_NOT_REVOCABLE.Is(err))
	})
}

func TestVestingTransferFlow(t *testing.T) {
	schedule := testSchedule()
	v := NewVesting("abc", "alice", schedule, true, schedule.Total(), 500)

	require.NoError(t, v.InitiateTransfer("bob", 600))
	require.Equal(t, "bob", v.PendingOwner)

	err := v.InitiateTransfer("carol", 601)
	require.Error(t, err)
	require.True(t, errors.PENDING_TRANSFER_EXISTS.Is(err))

	require.NoError(t, v.CancelTransfer(602))
	require.Empty(t, v.PendingOwner)

	err = v.CancelTransfer(603)
	require.Error(t, err)
	require.True(t, errors.NO_PENDING_TRANSFER.Is(err))

	require.NoError(t, v.InitiateTransfer("bob", 604))
	require.NoError(t, v.TransferTo("bob", 605))
	require.Equal(t, "bob", v.Recipient)
	require.Empty(t, v.PendingOwner)
}

func TestVestingClone(t *testing.T) {
	schedule := testSchedule()
	v := NewVesting("abc", "alice", schedule, true, schedule.Total(), 500)

	clone := v.Clone()
	require.Empty(t, clone.Events())
	require.Len(t, v.Events(), 1)

	require.NoError(t, clone.InitiateTransfer("bob", 600))
	require.Empty(t, v.PendingOwner)
	require.Equal(t, "bob", clone.PendingOwner)
}
