package domain

import (
	"math"

	errors "github.com/vestlabs/vestd/pkg/errors"
)

// Schedule holds the immutable release parameters of a vesting position.
// All timestamps are unix seconds, all amounts are expressed in the smallest
// unit of the custodial asset.
type Schedule struct {
	StartTime           int64
	EndTime             int64
	Timelock            int64
	InitialUnlock       uint64
	CliffReleaseTime    int64
	CliffAmount         uint64
	ReleaseIntervalSecs int64
	LinearVestAmount    uint64
}

func (s Schedule) HasCliff() bool {
	return s.CliffReleaseTime != 0
}

// Total is the full amount released by the schedule once EndTime has passed.
func (s Schedule) Total() uint64 {
	return s.InitialUnlock + s.CliffAmount + s.LinearVestAmount
}

func (s Schedule) metadata() errors.ScheduleMetadata {
	return errors.ScheduleMetadata{
		StartTime:           s.StartTime,
		EndTime:             s.EndTime,
		CliffReleaseTime:    s.CliffReleaseTime,
		ReleaseIntervalSecs: s.ReleaseIntervalSecs,
	}
}

// Validate checks the schedule invariants enforced at creation time.
func (s Schedule) Validate() error {
	if s.CliffAmount > math.MaxUint64-s.InitialUnlock ||
		s.LinearVestAmount > math.MaxUint64-s.InitialUnlock-s.CliffAmount {
		return errors.INVALID_VESTED_AMOUNT.New("unlock amounts overflow").
			WithMetadata(s.metadata())
	}
	if s.Total() == 0 {
		return errors.INVALID_VESTED_AMOUNT.New("all unlock components are zero").
			WithMetadata(s.metadata())
	}
	if s.StartTime <= 0 {
		return errors.INVALID_START_TIMESTAMP.New("start time must be positive").
			WithMetadata(s.metadata())
	}
	if s.EndTime < s.StartTime {
		return errors.INVALID_END_TIMESTAMP.New("end time precedes start time").
			WithMetadata(s.metadata())
	}
	if s.EndTime == s.StartTime && s.LinearVestAmount > 0 {
		return errors.INVALID_END_TIMESTAMP.New(
			"linear amount requires a non-empty release window",
		).WithMetadata(s.metadata())
	}
	if s.ReleaseIntervalSecs <= 0 {
		return errors.INVALID_RELEASE_INTERVAL.New("release interval must be positive").
			WithMetadata(s.metadata())
	}
	if !s.HasCliff() {
		if s.CliffAmount != 0 {
			return errors.INVALID_CLIFF_AMOUNT.New("cliff amount set without a cliff time").
				WithMetadata(s.metadata())
		}
		if (s.EndTime-s.StartTime)%s.ReleaseIntervalSecs != 0 {
			return errors.INVALID_INTERVAL_LENGTH.New(
				"release interval does not divide the vesting window",
			).WithMetadata(s.metadata())
		}
		return s.validateLinearBounds(s.StartTime)
	}
	if s.CliffAmount == 0 {
		return errors.INVALID_CLIFF_AMOUNT.New("cliff time set without a cliff amount").
			WithMetadata(s.metadata())
	}
	if s.CliffReleaseTime <= s.StartTime || s.CliffReleaseTime >= s.EndTime {
		return errors.INVALID_CLIFF_RELEASE.New(
			"cliff release time must fall strictly between start and end",
		).WithMetadata(s.metadata())
	}
	if (s.EndTime-s.CliffReleaseTime)%s.ReleaseIntervalSecs != 0 {
		return errors.INVALID_INTERVAL_LENGTH.New(
			"release interval does not divide the post-cliff window",
		).WithMetadata(s.metadata())
	}
	return s.validateLinearBounds(s.CliffReleaseTime)
}

// validateLinearBounds rejects linear amounts whose per-step multiply in
// VestedAt would wrap around uint64.
func (s Schedule) validateLinearBounds(linearStart int64) error {
	if s.LinearVestAmount == 0 {
		return nil
	}
	totalSteps := (s.EndTime - linearStart) / s.ReleaseIntervalSecs
	if totalSteps > 0 && s.LinearVestAmount > math.MaxUint64/uint64(totalSteps) {
		return errors.INVALID_VESTED_AMOUNT.New(
			"linear amount overflows the release stepping",
		).WithMetadata(s.metadata())
	}
	return nil
}

// VestedAt computes the amount released by the schedule at refTime.
// The curve is monotone: zero before StartTime, InitialUnlock at StartTime,
// plus CliffAmount once CliffReleaseTime has passed, plus the linear amount
// released in whole ReleaseIntervalSecs steps. Partial intervals vest nothing,
// only integer division is applied, so claimable amounts are deterministic at
// interval boundaries.
func (s Schedule) VestedAt(refTime int64) uint64 {
	if refTime < s.StartTime {
		return 0
	}

	vested := s.InitialUnlock

	linearStart := s.StartTime
	if s.HasCliff() {
		linearStart = s.CliffReleaseTime
		if refTime >= s.CliffReleaseTime {
			vested += s.CliffAmount
		}
	}

	if s.LinearVestAmount == 0 || refTime < linearStart {
		return vested
	}

	totalSteps := (s.EndTime - linearStart) / s.ReleaseIntervalSecs
	if totalSteps <= 0 {
		return vested + s.LinearVestAmount
	}

	elapsedSteps := (refTime - linearStart) / s.ReleaseIntervalSecs
	if elapsedSteps > totalSteps {
		elapsedSteps = totalSteps
	}

	vested += s.LinearVestAmount * uint64(elapsedSteps) / uint64(totalSteps)
	return vested
}
