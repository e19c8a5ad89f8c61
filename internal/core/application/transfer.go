package application

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/vestlabs/vestd/internal/core/domain"
	errors "github.com/vestlabs/vestd/pkg/errors"
)

// InitiateTransfer opens a two-phase ownership handover of the vesting to
// newOwner. The position stays with the current recipient until the new
// owner accepts.
func (s *service) InitiateTransfer(ctx context.Context, caller, id, newOwner string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	vesting, err := s.requireOwner(caller, id)
	if err != nil {
		return err
	}
	if newOwner == "" {
		return errors.INVALID_ADDRESS.New("empty transfer target")
	}
	if newOwner == vesting.Recipient {
		return errors.INVALID_ADDRESS.New("vesting %s already belongs to %s", id, newOwner)
	}

	clone := vesting.Clone()
	if err := clone.InitiateTransfer(newOwner, s.clock()); err != nil {
		return err
	}
	if err := s.saveEvents(ctx, domain.VestingTopic, id, clone.Events()); err != nil {
		return err
	}

	s.commitVesting(clone)
	log.Debugf("transfer of vesting %s to %s initiated", id, newOwner)
	return nil
}

// CancelTransfer clears a pending handover. Only the current recipient can
// cancel.
func (s *service) CancelTransfer(ctx context.Context, caller, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	vesting, err := s.requireOwner(caller, id)
	if err != nil {
		return err
	}

	clone := vesting.Clone()
	if err := clone.CancelTransfer(s.clock()); err != nil {
		return err
	}
	if err := s.saveEvents(ctx, domain.VestingTopic, id, clone.Events()); err != nil {
		return err
	}

	s.commitVesting(clone)
	log.Debugf("pending transfer of vesting %s cancelled", id)
	return nil
}

// AcceptTransfer completes a pending handover. Only the designated pending
// owner can accept; the recipient entry and the index both move over.
func (s *service) AcceptTransfer(ctx context.Context, caller, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	vesting, err := s.getVesting(id)
	if err != nil {
		return err
	}
	if vesting.PendingOwner == "" {
		return errors.NO_PENDING_TRANSFER.New("no pending transfer for vesting %s", id).
			WithMetadata(errors.VestingMetadata{VestingID: id})
	}
	if caller != vesting.PendingOwner {
		return errors.NOT_AUTHORIZED_FOR_TRANSFER.New(
			"caller %s is not the pending owner of vesting %s", caller, id,
		).WithMetadata(errors.TransferMetadata{
			VestingID:    id,
			PendingOwner: vesting.PendingOwner,
		})
	}

	oldRecipient := vesting.Recipient
	clone := vesting.Clone()
	if err := clone.TransferTo(caller, s.clock()); err != nil {
		return err
	}
	if err := s.saveEvents(ctx, domain.VestingTopic, id, clone.Events()); err != nil {
		return err
	}

	s.index.RemoveVesting(oldRecipient, id)
	s.index.AddVesting(caller, id)
	s.commitVesting(clone)
	log.Debugf("vesting %s transferred from %s to %s", id, oldRecipient, caller)
	return nil
}

// DirectTransfer hands the vesting over to newOwner in one step, bypassing
// the two-phase flow. Any pending handover is superseded.
func (s *service) DirectTransfer(ctx context.Context, caller, id, newOwner string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	vesting, err := s.requireOwner(caller, id)
	if err != nil {
		return err
	}
	if newOwner == "" {
		return errors.INVALID_ADDRESS.New("empty transfer target")
	}
	if newOwner == vesting.Recipient {
		return errors.INVALID_ADDRESS.New("vesting %s already belongs to %s", id, newOwner)
	}

	oldRecipient := vesting.Recipient
	clone := vesting.Clone()
	if err := clone.TransferTo(newOwner, s.clock()); err != nil {
		return err
	}
	if err := s.saveEvents(ctx, domain.VestingTopic, id, clone.Events()); err != nil {
		return err
	}

	s.index.RemoveVesting(oldRecipient, id)
	s.index.AddVesting(newOwner, id)
	s.commitVesting(clone)
	log.Debugf("vesting %s transferred from %s to %s", id, oldRecipient, newOwner)
	return nil
}

func (s *service) requireOwner(caller, id string) (*domain.Vesting, error) {
	vesting, err := s.getVesting(id)
	if err != nil {
		return nil, err
	}
	if caller != vesting.Recipient {
		return nil, errors.NOT_VESTING_OWNER.New(
			"caller %s is not the recipient of vesting %s", caller, id,
		).WithMetadata(errors.VestingMetadata{VestingID: id})
	}
	return vesting, nil
}
