package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/vestlabs/vestd/internal/core/domain"
	"github.com/vestlabs/vestd/internal/core/ports"
	errors "github.com/vestlabs/vestd/pkg/errors"
)

// Service is the custodial vesting ledger. Every mutating operation runs to
// completion under a single mutex (the non-reentrant guard) and either
// applies fully or leaves no state behind.
type Service interface {
	CreateVesting(
		ctx context.Context, caller string, req CreateVestingRequest, value uint64,
	) (string, error)
	CreateVestingBatch(
		ctx context.Context, caller string, reqs []CreateVestingRequest, value uint64,
	) ([]string, error)
	FundVesting(ctx context.Context, caller, id string, amount uint64) error
	FundVestingBatch(
		ctx context.Context, caller string, ids []string, amounts []uint64, value uint64,
	) error
	Claim(ctx context.Context, caller, id string, fee uint64) (uint64, error)
	AdminClaim(ctx context.Context, caller, id string, fee uint64) (uint64, error)
	BatchAdminClaim(ctx context.Context, caller string, ids []string, fee uint64) error
	RevokeVesting(ctx context.Context, caller, id string) error
	BatchRevokeVestings(ctx context.Context, caller string, ids []string) error
	WithdrawAdmin(ctx context.Context, caller string, amount uint64) error
	WithdrawGasFee(ctx context.Context, caller, recipient string, amount uint64) error
	TransferFeeCollectorRole(ctx context.Context, caller, newCollector string) error

	InitiateTransfer(ctx context.Context, caller, id, newOwner string) error
	CancelTransfer(ctx context.Context, caller, id string) error
	AcceptTransfer(ctx context.Context, caller, id string) error
	DirectTransfer(ctx context.Context, caller, id, newOwner string) error

	GetVesting(ctx context.Context, id string) (*domain.Vesting, error)
	ListVestings(ctx context.Context, recipient string) ([]domain.Vesting, error)
	Recipients(ctx context.Context, from, to int) ([]string, error)
	Totals(ctx context.Context) (*LedgerTotals, error)
	FeeCollector() string
	FundingMode() domain.FundingMode
}

type service struct {
	repoManager ports.RepoManager
	treasury    ports.Treasury
	auth        ports.Authorizer

	fundingMode domain.FundingMode
	claimFee    uint64

	// guards the ledger state below and serializes every operation that
	// touches the treasury.
	lock  sync.Mutex
	clock func() int64

	vestings           map[string]*domain.Vesting
	index              *domain.RecipientIndex
	feeCollector       string
	reservedForVesting uint64
	reservedForFees    uint64
}

type ServiceOption func(*service)

// WithClock overrides the time source, mainly for tests that need to hit
// exact schedule boundaries.
func WithClock(clock func() int64) ServiceOption {
	return func(s *service) {
		s.clock = clock
	}
}

func NewService(
	repoManager ports.RepoManager, treasury ports.Treasury, auth ports.Authorizer,
	fundingMode domain.FundingMode, claimFee uint64, feeCollector string,
	opts ...ServiceOption,
) (Service, error) {
	if feeCollector == "" {
		return nil, fmt.Errorf("missing fee collector address")
	}

	svc := &service{
		repoManager:  repoManager,
		treasury:     treasury,
		auth:         auth,
		fundingMode:  fundingMode,
		claimFee:     claimFee,
		clock:        func() int64 { return time.Now().Unix() },
		vestings:     make(map[string]*domain.Vesting),
		index:        domain.NewRecipientIndex(),
		feeCollector: feeCollector,
	}
	for _, opt := range opts {
		opt(svc)
	}

	ctx := context.Background()

	settings, err := repoManager.Settings().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings != nil {
		svc.feeCollector = settings.FeeCollector
		svc.reservedForFees = settings.ReservedForFees
	} else {
		if err := svc.persistSettings(ctx); err != nil {
			return nil, fmt.Errorf("failed to store initial settings: %w", err)
		}
	}

	vestings, err := repoManager.Vestings().GetAllVestings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vestings: %w", err)
	}
	for i := range vestings {
		vesting := vestings[i]
		svc.vestings[vesting.Id] = &vesting
		svc.index.AddVesting(vesting.Recipient, vesting.Id)
		svc.reservedForVesting += reservedFor(&vesting)
	}
	log.Debugf("loaded %d vestings, reserved %d for vesting, %d for fees",
		len(vestings), svc.reservedForVesting, svc.reservedForFees)

	return svc, nil
}

// reservedFor is a record's contribution to the reserved-for-vesting total:
// everything funded and neither claimed nor released by revocation.
func reservedFor(v *domain.Vesting) uint64 {
	reserved := v.FundedAmount
	if v.ClaimedAmount+v.WithheldAmount >= reserved {
		return 0
	}
	return reserved - v.ClaimedAmount - v.WithheldAmount
}

func (s *service) FeeCollector() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.feeCollector
}

func (s *service) FundingMode() domain.FundingMode {
	return s.fundingMode
}

func (s *service) CreateVesting(
	ctx context.Context, caller string, req CreateVestingRequest, value uint64,
) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requirePrivileged(caller); err != nil {
		return "", err
	}

	vesting, err := s.stageCreate(req, value, s.clock())
	if err != nil {
		return "", err
	}

	if value > 0 {
		if err := s.treasury.Deposit(ctx, value); err != nil {
			return "", errors.TRANSFER_FAILED.Wrap(err)
		}
	}
	if err := s.saveEvents(ctx, domain.VestingTopic, vesting.Id, vesting.Events()); err != nil {
		return "", err
	}

	s.commitVesting(vesting)
	s.reservedForVesting += vesting.FundedAmount
	log.Debugf("created vesting %s for %s", vesting.Id, vesting.Recipient)
	return vesting.Id, nil
}

func (s *service) CreateVestingBatch(
	ctx context.Context, caller string, reqs []CreateVestingRequest, value uint64,
) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requirePrivileged(caller); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, errors.EMPTY_ARRAY.New("no vestings to create")
	}

	// aggregate precondition: the supplied value must cover the whole batch
	// before any record is created.
	var totalRequired uint64
	for _, req := range reqs {
		if req.Recipient == "" {
			return nil, errors.INVALID_ADDRESS.New("empty recipient")
		}
		if err := req.Schedule.Validate(); err != nil {
			return nil, err
		}
		totalRequired += req.Schedule.Total()
	}
	if s.fundingMode == domain.FundingModeFull {
		if value != totalRequired {
			return nil, errors.INSUFFICIENT_BALANCE.New(
				"batch requires exactly %d, got %d", totalRequired, value,
			).WithMetadata(errors.BalanceMetadata{Requested: totalRequired, Available: value})
		}
	} else if value != 0 {
		return nil, errors.INSUFFICIENT_BALANCE.New(
			"incremental funding mode requires no value at creation, got %d", value,
		).WithMetadata(errors.BalanceMetadata{Requested: 0, Available: value})
	}

	now := s.clock()
	staged := make([]*domain.Vesting, 0, len(reqs))
	for _, req := range reqs {
		vesting, err := s.stageCreate(req, fundedAtCreation(s.fundingMode, req.Schedule), now)
		if err != nil {
			return nil, err
		}
		staged = append(staged, vesting)
	}

	if value > 0 {
		if err := s.treasury.Deposit(ctx, value); err != nil {
			return nil, errors.TRANSFER_FAILED.Wrap(err)
		}
	}

	ids := make([]string, 0, len(staged))
	for _, vesting := range staged {
		if err := s.saveEvents(
			ctx, domain.VestingTopic, vesting.Id, vesting.Events(),
		); err != nil {
			return nil, err
		}
		s.commitVesting(vesting)
		s.reservedForVesting += vesting.FundedAmount
		ids = append(ids, vesting.Id)
	}
	log.Debugf("created %d vestings in batch", len(ids))
	return ids, nil
}

// stageCreate validates the request and builds the new aggregate without
// touching the ledger. In full funding mode value must equal the schedule
// total; in partial mode it must be zero.
func (s *service) stageCreate(
	req CreateVestingRequest, value uint64, now int64,
) (*domain.Vesting, error) {
	if req.Recipient == "" {
		return nil, errors.INVALID_ADDRESS.New("empty recipient")
	}
	if err := req.Schedule.Validate(); err != nil {
		return nil, err
	}

	funded := fundedAtCreation(s.fundingMode, req.Schedule)
	if value != funded {
		return nil, errors.INSUFFICIENT_BALANCE.New(
			"creation requires exactly %d, got %d", funded, value,
		).WithMetadata(errors.BalanceMetadata{Requested: funded, Available: value})
	}

	return domain.NewVesting(
		uuid.NewString(), req.Recipient, req.Schedule, req.Revocable, funded, now,
	), nil
}

func fundedAtCreation(mode domain.FundingMode, schedule domain.Schedule) uint64 {
	if mode == domain.FundingModeFull {
		return schedule.Total()
	}
	return 0
}

func (s *service) FundVesting(ctx context.Context, caller, id string, amount uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requirePrivileged(caller); err != nil {
		return err
	}

	vesting, err := s.stageFund(id, amount)
	if err != nil {
		return err
	}

	if err := s.treasury.Deposit(ctx, amount); err != nil {
		return errors.TRANSFER_FAILED.Wrap(err)
	}
	if err := s.saveEvents(ctx, domain.VestingTopic, id, vesting.Events()); err != nil {
		return err
	}

	s.commitVesting(vesting)
	s.reservedForVesting += amount
	log.Debugf("funded vesting %s with %d (%d/%d)",
		id, amount, vesting.FundedAmount, vesting.TotalRequired())
	return nil
}

func (s *service) FundVestingBatch(
	ctx context.Context, caller string, ids []string, amounts []uint64, value uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requirePrivileged(caller); err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.EMPTY_ARRAY.New("no vestings to fund")
	}
	if len(ids) != len(amounts) {
		return errors.ARRAY_LENGTH_MISMATCH.New(
			"got %d amounts for %d ids", len(amounts), len(ids),
		).WithMetadata(errors.ArrayLengthMetadata{Expected: len(ids), Got: len(amounts)})
	}

	var total uint64
	for _, amount := range amounts {
		total += amount
	}
	if total != value {
		return errors.INSUFFICIENT_BALANCE.New(
			"batch funds %d but supplied value is %d", total, value,
		).WithMetadata(errors.BalanceMetadata{Requested: total, Available: value})
	}

	// stage every item before committing anything; duplicated ids accumulate
	// against the same staged copy.
	staged := make(map[string]*domain.Vesting)
	order := make([]string, 0, len(ids))
	for i, id := range ids {
		if amounts[i] == 0 {
			continue
		}
		vesting, ok := staged[id]
		if !ok {
			var err error
			vesting, err = s.stageFund(id, 0)
			if err != nil {
				return err
			}
			staged[id] = vesting
			order = append(order, id)
		}
		if err := s.fundStaged(vesting, amounts[i]); err != nil {
			return err
		}
	}

	if value > 0 {
		if err := s.treasury.Deposit(ctx, value); err != nil {
			return errors.TRANSFER_FAILED.Wrap(err)
		}
	}
	for _, id := range order {
		vesting := staged[id]
		if err := s.saveEvents(ctx, domain.VestingTopic, id, vesting.Events()); err != nil {
			return err
		}
		s.commitVesting(vesting)
	}
	s.reservedForVesting += value
	log.Debugf("funded %d vestings with %d in batch", len(order), value)
	return nil
}

// stageFund clones the record and, when amount is non-zero, applies the
// funding increment. Incremental funding only exists in partial mode.
func (s *service) stageFund(id string, amount uint64) (*domain.Vesting, error) {
	vesting, err := s.getVesting(id)
	if err != nil {
		return nil, err
	}
	if s.fundingMode == domain.FundingModeFull {
		return nil, errors.VESTING_FULLY_FUNDED.New(
			"vesting %s was fully funded at creation", id,
		).WithMetadata(errors.FundingMetadata{
			VestingID:     id,
			Funded:        vesting.FundedAmount,
			TotalRequired: vesting.TotalRequired(),
			Amount:        amount,
		})
	}
	clone := vesting.Clone()
	if amount > 0 {
		if err := s.fundStaged(clone, amount); err != nil {
			return nil, err
		}
	}
	return clone, nil
}

func (s *service) fundStaged(vesting *domain.Vesting, amount uint64) error {
	return vesting.Fund(amount, s.clock())
}

func (s *service) Claim(ctx context.Context, caller, id string, fee uint64) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	vesting, err := s.getVesting(id)
	if err != nil {
		return 0, err
	}
	if caller != vesting.Recipient {
		return 0, errors.NOT_VESTING_OWNER.New(
			"caller %s is not the recipient of vesting %s", caller, id,
		).WithMetadata(errors.VestingMetadata{VestingID: id})
	}
	return s.claim(ctx, vesting, fee)
}

func (s *service) AdminClaim(
	ctx context.Context, caller, id string, fee uint64,
) (uint64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requirePrivileged(caller); err != nil {
		return 0, err
	}
	vesting, err := s.getVesting(id)
	if err != nil {
		return 0, err
	}
	return s.claim(ctx, vesting, fee)
}

func (s *service) BatchAdminClaim(
	ctx context.Context, caller string, ids []string, fee uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requirePrivileged(caller); err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.EMPTY_ARRAY.New("no vestings to claim")
	}
	expectedFee := s.claimFee * uint64(len(ids))
	if fee != expectedFee {
		return errors.INSUFFICIENT_FEE.New(
			"batch claim fee must be %d, got %d", expectedFee, fee,
		).WithMetadata(errors.FeeMetadata{ExpectedFee: expectedFee, ActualFee: fee})
	}

	now := s.clock()
	staged := make(map[string]*domain.Vesting)
	order := make([]string, 0, len(ids))
	payouts := make([]uint64, 0, len(ids))
	for _, id := range ids {
		vesting, ok := staged[id]
		if !ok {
			loaded, err := s.getVesting(id)
			if err != nil {
				return err
			}
			vesting = loaded.Clone()
			staged[id] = vesting
			order = append(order, id)
		}
		claimable, err := s.stageClaim(vesting, s.claimFee, now)
		if err != nil {
			return err
		}
		payouts = append(payouts, claimable)
	}

	// claims are durable before any payout goes out; the reserved accounting
	// guarantees the treasury covers every staged payout
	for _, id := range order {
		if err := s.saveEvents(ctx, domain.VestingTopic, id, staged[id].Events()); err != nil {
			return err
		}
	}

	var totalPaid uint64
	for i, id := range ids {
		if err := s.treasury.Transfer(ctx, staged[id].Recipient, payouts[i]); err != nil {
			return errors.TRANSFER_FAILED.Wrap(err)
		}
		totalPaid += payouts[i]
	}
	if err := s.treasury.Deposit(ctx, fee); err != nil {
		return errors.TRANSFER_FAILED.Wrap(err)
	}

	for _, id := range order {
		s.commitVesting(staged[id])
	}
	s.reservedForVesting -= totalPaid
	s.reservedForFees += fee
	if err := s.persistSettings(ctx); err != nil {
		return err
	}
	log.Debugf("claimed %d across %d vestings on behalf of recipients", totalPaid, len(ids))
	return nil
}

// claim pays out everything vested and not yet claimed on the record,
// clamped by the funded amount in partial mode. Ledger effects and the event
// write happen before the function returns; the outbound transfer runs under
// the same lock, so no reentrant operation can observe intermediate state.
func (s *service) claim(
	ctx context.Context, vesting *domain.Vesting, fee uint64,
) (uint64, error) {
	if fee != s.claimFee {
		return 0, errors.INSUFFICIENT_FEE.New(
			"claim fee must be %d, got %d", s.claimFee, fee,
		).WithMetadata(errors.FeeMetadata{ExpectedFee: s.claimFee, ActualFee: fee})
	}

	now := s.clock()
	clone := vesting.Clone()
	claimable, err := s.stageClaim(clone, fee, now)
	if err != nil {
		return 0, err
	}

	if err := s.treasury.Transfer(ctx, clone.Recipient, claimable); err != nil {
		return 0, errors.TRANSFER_FAILED.Wrap(err)
	}
	if err := s.treasury.Deposit(ctx, fee); err != nil {
		return 0, errors.TRANSFER_FAILED.Wrap(err)
	}
	if err := s.saveEvents(ctx, domain.VestingTopic, clone.Id, clone.Events()); err != nil {
		return 0, err
	}

	s.commitVesting(clone)
	s.reservedForVesting -= claimable
	s.reservedForFees += fee
	if err := s.persistSettings(ctx); err != nil {
		return 0, err
	}
	log.Debugf("claimed %d from vesting %s for %s", claimable, clone.Id, clone.Recipient)
	return claimable, nil
}

// stageClaim applies the claim on the staged copy and returns the amount to
// pay out.
func (s *service) stageClaim(
	vesting *domain.Vesting, fee uint64, now int64,
) (uint64, error) {
	if now < vesting.Schedule.Timelock {
		return 0, errors.TIMELOCK_ENABLED.New(
			"vesting %s is timelocked until %d", vesting.Id, vesting.Schedule.Timelock,
		).WithMetadata(errors.TimelockMetadata{
			VestingID: vesting.Id,
			Timelock:  vesting.Schedule.Timelock,
			Now:       now,
		})
	}

	vested := vesting.VestedAt(now)
	if vested <= vesting.ClaimedAmount {
		return 0, errors.NOTHING_TO_CLAIM.New("nothing to claim on vesting %s", vesting.Id).
			WithMetadata(errors.ClaimMetadata{
				VestingID: vesting.Id,
				Vested:    vested,
				Claimed:   vesting.ClaimedAmount,
				Funded:    vesting.FundedAmount,
			})
	}
	claimable := vested - vesting.ClaimedAmount

	if s.fundingMode == domain.FundingModePartial {
		var ceiling uint64
		if vesting.FundedAmount > vesting.ClaimedAmount {
			ceiling = vesting.FundedAmount - vesting.ClaimedAmount
		}
		if claimable > ceiling {
			if ceiling == 0 {
				return 0, errors.INSUFFICIENT_FUNDING.New(
					"vesting %s has no funded amount left to claim", vesting.Id,
				).WithMetadata(errors.ClaimMetadata{
					VestingID: vesting.Id,
					Vested:    vested,
					Claimed:   vesting.ClaimedAmount,
					Funded:    vesting.FundedAmount,
				})
			}
			claimable = ceiling
		}
	}

	vesting.Claim(claimable, fee, now)
	return claimable, nil
}

func (s *service) RevokeVesting(ctx context.Context, caller, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requirePrivileged(caller); err != nil {
		return err
	}

	vesting, withheld, err := s.stageRevoke(id, s.clock())
	if err != nil {
		return err
	}

	if err := s.saveEvents(ctx, domain.VestingTopic, id, vesting.Events()); err != nil {
		return err
	}
	s.commitVesting(vesting)
	s.reservedForVesting -= withheld
	log.Debugf("revoked vesting %s, withheld %d", id, withheld)
	return nil
}

func (s *service) BatchRevokeVestings(ctx context.Context, caller string, ids []string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requirePrivileged(caller); err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.EMPTY_ARRAY.New("no vestings to revoke")
	}

	now := s.clock()
	staged := make([]*domain.Vesting, 0, len(ids))
	var totalWithheld uint64
	seen := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return errors.VESTING_NOT_ACTIVE.New("vesting %s revoked twice in batch", id).
				WithMetadata(errors.VestingMetadata{VestingID: id})
		}
		seen[id] = struct{}{}

		vesting, withheld, err := s.stageRevoke(id, now)
		if err != nil {
			return err
		}
		staged = append(staged, vesting)
		totalWithheld += withheld
	}

	for _, vesting := range staged {
		if err := s.saveEvents(
			ctx, domain.VestingTopic, vesting.Id, vesting.Events(),
		); err != nil {
			return err
		}
		s.commitVesting(vesting)
	}
	s.reservedForVesting -= totalWithheld
	log.Debugf("revoked %d vestings, withheld %d", len(staged), totalWithheld)
	return nil
}

// stageRevoke computes the withheld amount and applies the terminal
// deactivation on a staged copy. The withheld amount is whatever was funded
// beyond what has vested so far; in full mode that equals the not-yet-vested
// remainder of the schedule.
func (s *service) stageRevoke(id string, now int64) (*domain.Vesting, uint64, error) {
	vesting, err := s.getVesting(id)
	if err != nil {
		return nil, 0, err
	}
	if !vesting.IsActive() {
		return nil, 0, errors.VESTING_NOT_ACTIVE.New(
			"vesting %s is already revoked", id,
		).WithMetadata(errors.VestingMetadata{VestingID: id})
	}
	if now >= vesting.Schedule.EndTime {
		return nil, 0, errors.FULLY_VESTED.New(
			"vesting %s is fully vested, nothing to revoke", id,
		).WithMetadata(errors.VestingMetadata{VestingID: id})
	}

	vestedNow := vesting.VestedAt(now)
	vestedAtEnd := vesting.Schedule.VestedAt(vesting.Schedule.EndTime)
	withheld := vestedAtEnd - vestedNow
	if s.fundingMode == domain.FundingModePartial {
		withheld = 0
		if vesting.FundedAmount > vestedNow {
			withheld = vesting.FundedAmount - vestedNow
		}
	}

	clone := vesting.Clone()
	if err := clone.Revoke(withheld, now); err != nil {
		return nil, 0, err
	}
	return clone, withheld, nil
}

func (s *service) WithdrawAdmin(ctx context.Context, caller string, amount uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.requirePrivileged(caller); err != nil {
		return err
	}

	balance, err := s.treasury.Balance(ctx)
	if err != nil {
		return errors.INTERNAL_ERROR.Wrap(err)
	}
	var available uint64
	if balance > s.reservedForVesting+s.reservedForFees {
		available = balance - s.reservedForVesting - s.reservedForFees
	}
	if amount > available {
		return errors.INSUFFICIENT_BALANCE.New(
			"requested %d but only %d is not reserved", amount, available,
		).WithMetadata(errors.BalanceMetadata{Requested: amount, Available: available})
	}

	if err := s.treasury.Transfer(ctx, caller, amount); err != nil {
		return errors.TRANSFER_FAILED.Wrap(err)
	}
	event := domain.AdminWithdrawn{
		Id:        domain.TreasuryID,
		Type:      domain.EventTypeAdminWithdrawn,
		To:        caller,
		Amount:    amount,
		Timestamp: s.clock(),
	}
	if err := s.saveEvents(
		ctx, domain.TreasuryTopic, domain.TreasuryID, []domain.Event{event},
	); err != nil {
		return err
	}
	log.Debugf("admin withdrew %d", amount)
	return nil
}

func (s *service) WithdrawGasFee(
	ctx context.Context, caller, recipient string, amount uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if caller != s.feeCollector {
		return errors.NOT_FEE_COLLECTOR.New("caller %s is not the fee collector", caller)
	}
	if recipient == "" {
		return errors.INVALID_ADDRESS.New("empty fee recipient")
	}
	if amount == 0 {
		amount = s.reservedForFees
	}
	if amount > s.reservedForFees {
		return errors.INSUFFICIENT_BALANCE.New(
			"requested %d but only %d in collected fees", amount, s.reservedForFees,
		).WithMetadata(errors.BalanceMetadata{
			Requested: amount,
			Available: s.reservedForFees,
		})
	}

	if err := s.treasury.Transfer(ctx, recipient, amount); err != nil {
		return errors.TRANSFER_FAILED.Wrap(err)
	}
	event := domain.GasFeeWithdrawn{
		Id:        domain.TreasuryID,
		Type:      domain.EventTypeGasFeeWithdrawn,
		To:        recipient,
		Amount:    amount,
		Timestamp: s.clock(),
	}
	if err := s.saveEvents(
		ctx, domain.TreasuryTopic, domain.TreasuryID, []domain.Event{event},
	); err != nil {
		return err
	}

	s.reservedForFees -= amount
	if err := s.persistSettings(ctx); err != nil {
		return err
	}
	log.Debugf("fee collector withdrew %d to %s", amount, recipient)
	return nil
}

func (s *service) TransferFeeCollectorRole(
	ctx context.Context, caller, newCollector string,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if caller != s.feeCollector {
		return errors.NOT_FEE_COLLECTOR.New("caller %s is not the fee collector", caller)
	}
	if newCollector == "" {
		return errors.INVALID_ADDRESS.New("empty fee collector")
	}

	event := domain.FeeCollectorUpdated{
		Id:           domain.TreasuryID,
		Type:         domain.EventTypeFeeCollectorUpdated,
		OldCollector: s.feeCollector,
		NewCollector: newCollector,
		Timestamp:    s.clock(),
	}
	if err := s.saveEvents(
		ctx, domain.TreasuryTopic, domain.TreasuryID, []domain.Event{event},
	); err != nil {
		return err
	}

	s.feeCollector = newCollector
	if err := s.persistSettings(ctx); err != nil {
		return err
	}
	log.Debugf("fee collector role handed over to %s", newCollector)
	return nil
}

func (s *service) GetVesting(ctx context.Context, id string) (*domain.Vesting, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	vesting, err := s.getVesting(id)
	if err != nil {
		return nil, err
	}
	return vesting.Clone(), nil
}

func (s *service) ListVestings(
	ctx context.Context, recipient string,
) ([]domain.Vesting, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	ids := s.index.VestingsFor(recipient)
	vestings := make([]domain.Vesting, 0, len(ids))
	for _, id := range ids {
		if vesting, ok := s.vestings[id]; ok {
			vestings = append(vestings, *vesting.Clone())
		}
	}
	return vestings, nil
}

func (s *service) Recipients(ctx context.Context, from, to int) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.index.Slice(from, to)
}

func (s *service) Totals(ctx context.Context) (*LedgerTotals, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	balance, err := s.treasury.Balance(ctx)
	if err != nil {
		return nil, errors.INTERNAL_ERROR.Wrap(err)
	}
	var withdrawable uint64
	if balance > s.reservedForVesting+s.reservedForFees {
		withdrawable = balance - s.reservedForVesting - s.reservedForFees
	}
	return &LedgerTotals{
		Balance:            balance,
		ReservedForVesting: s.reservedForVesting,
		ReservedForFees:    s.reservedForFees,
		Withdrawable:       withdrawable,
	}, nil
}

func (s *service) requirePrivileged(caller string) error {
	if caller == "" {
		return errors.INVALID_ADDRESS.New("empty caller")
	}
	if !s.auth.IsPrivileged(caller) {
		return errors.UNAUTHORIZED.New("caller %s is not privileged", caller)
	}
	return nil
}

func (s *service) getVesting(id string) (*domain.Vesting, error) {
	vesting, ok := s.vestings[id]
	if !ok {
		return nil, errors.VESTING_NOT_FOUND.New("vesting %s does not exist", id).
			WithMetadata(errors.VestingMetadata{VestingID: id})
	}
	return vesting, nil
}

func (s *service) commitVesting(vesting *domain.Vesting) {
	if _, ok := s.vestings[vesting.Id]; !ok {
		s.index.AddVesting(vesting.Recipient, vesting.Id)
	}
	s.vestings[vesting.Id] = vesting
}

func (s *service) saveEvents(
	ctx context.Context, topic, id string, events []domain.Event,
) error {
	if len(events) == 0 {
		return nil
	}
	if err := s.repoManager.Events().Save(ctx, topic, id, events); err != nil {
		return errors.INTERNAL_ERROR.Wrap(fmt.Errorf("failed to save events: %w", err))
	}
	return nil
}

func (s *service) persistSettings(ctx context.Context) error {
	settings := domain.Settings{
		FeeCollector:    s.feeCollector,
		ReservedForFees: s.reservedForFees,
		UpdatedAt:       time.Now(),
	}
	if err := s.repoManager.Settings().Upsert(ctx, settings); err != nil {
		return errors.INTERNAL_ERROR.Wrap(fmt.Errorf("failed to store settings: %w", err))
	}
	return nil
}
