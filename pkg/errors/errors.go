package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	grpccodes "google.golang.org/grpc/codes"
)

// Code is the type representing a namespace error code.
type Code[MT any] struct {
	Code     uint16
	Name     string
	GrpcCode grpccodes.Code
}

// New creates a new error with the given code and the message
func (c Code[MT]) New(msg string, args ...any) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: fmt.Errorf(msg, args...),
	}
}

// Wrap creates a new Error with the given code and the cause error
func (c Code[MT]) Wrap(cause error) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: cause,
	}
}

// Is reports whether err carries this code.
func (c Code[MT]) Is(err error) bool {
	var structured Error
	if !stderrors.As(err, &structured) {
		return false
	}
	return structured.Code() == c.Code
}

func (c Code[MT]) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

type Error interface {
	error
	Log() *log.Entry
	Code() uint16
	CodeName() string
	GrpcCode() grpccodes.Code
	Metadata() map[string]string
}

type TypedError[MT any] interface {
	Error
	WithMetadata(MT) TypedError[MT]
}

// ErrorImpl is the default concrete implementation of TypedError.
type ErrorImpl[MT any] struct {
	code     Code[MT]
	cause    error
	metadata MT
}

func (e *ErrorImpl[MT]) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("metadata", e.metadata)
}

func (e *ErrorImpl[MT]) Metadata() map[string]string {
	// convert any metadata to map[string]string
	metadata := make(map[string]string)
	buf, err := json.Marshal(e.metadata)
	if err == nil {
		var genericMap map[string]any
		if err := json.Unmarshal(buf, &genericMap); err == nil {
			for k, v := range genericMap {
				vStr := ""
				if v != nil {
					vStr = fmt.Sprintf("%v", v)
				}
				metadata[k] = vStr
			}
		}
	}
	return metadata
}

func (e *ErrorImpl[MT]) GrpcCode() grpccodes.Code {
	return e.code.GrpcCode
}

func (e *ErrorImpl[MT]) Code() uint16 {
	return e.code.Code
}

func (e *ErrorImpl[MT]) CodeName() string {
	return e.code.Name
}

// Error() implements the error interface.
func (e *ErrorImpl[MT]) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

func (e *ErrorImpl[MT]) WithMetadata(metadata MT) TypedError[MT] {
	e.metadata = metadata
	return e
}

type VestingMetadata struct {
	VestingID string `json:"vesting_id"`
}

type FundingMetadata struct {
	VestingID     string `json:"vesting_id"`
	Funded        uint64 `json:"funded"`
	TotalRequired uint64 `json:"total_required"`
	Amount        uint64 `json:"amount"`
}

type ClaimMetadata struct {
	VestingID string `json:"vesting_id"`
	Vested    uint64 `json:"vested"`
	Claimed   uint64 `json:"claimed"`
	Funded    uint64 `json:"funded"`
}

type TimelockMetadata struct {
	VestingID string `json:"vesting_id"`
	Timelock  int64  `json:"timelock"`
	Now       int64  `json:"now"`
}

type FeeMetadata struct {
	ExpectedFee uint64 `json:"expected_fee"`
	ActualFee   uint64 `json:"actual_fee"`
}

type BalanceMetadata struct {
	Requested uint64 `json:"requested"`
	Available uint64 `json:"available"`
}

type TransferMetadata struct {
	VestingID    string `json:"vesting_id"`
	PendingOwner string `json:"pending_owner"`
}

type ArrayLengthMetadata struct {
	Expected int `json:"expected"`
	Got      int `json:"got"`
}

type RangeMetadata struct {
	From   int `json:"from"`
	To     int `json:"to"`
	Length int `json:"length"`
}

type ScheduleMetadata struct {
	StartTime           int64 `json:"start_time"`
	EndTime             int64 `json:"end_time"`
	CliffReleaseTime    int64 `json:"cliff_release_time"`
	ReleaseIntervalSecs int64 `json:"release_interval_secs"`
}

var INTERNAL_ERROR = Code[map[string]any]{0, "INTERNAL_ERROR", grpccodes.Internal}
var UNAUTHORIZED = Code[map[string]any]{1, "UNAUTHORIZED", grpccodes.PermissionDenied}
var INVALID_ADDRESS = Code[map[string]any]{2, "INVALID_ADDRESS", grpccodes.InvalidArgument}

var INVALID_VESTED_AMOUNT = Code[ScheduleMetadata]{
	3,
	"INVALID_VESTED_AMOUNT",
	grpccodes.InvalidArgument,
}

var INVALID_START_TIMESTAMP = Code[ScheduleMetadata]{
	4,
	"INVALID_START_TIMESTAMP",
	grpccodes.InvalidArgument,
}

var INVALID_END_TIMESTAMP = Code[ScheduleMetadata]{
	5,
	"INVALID_END_TIMESTAMP",
	grpccodes.InvalidArgument,
}

var INVALID_RELEASE_INTERVAL = Code[ScheduleMetadata]{
	6,
	"INVALID_RELEASE_INTERVAL",
	grpccodes.InvalidArgument,
}

var INVALID_CLIFF_AMOUNT = Code[ScheduleMetadata]{
	7,
	"INVALID_CLIFF_AMOUNT",
	grpccodes.InvalidArgument,
}

var INVALID_CLIFF_RELEASE = Code[ScheduleMetadata]{
	8,
	"INVALID_CLIFF_RELEASE",
	grpccodes.InvalidArgument,
}

var INVALID_INTERVAL_LENGTH = Code[ScheduleMetadata]{
	9,
	"INVALID_INTERVAL_LENGTH",
	grpccodes.InvalidArgument,
}

var INSUFFICIENT_BALANCE = Code[BalanceMetadata]{
	10,
	"INSUFFICIENT_BALANCE",
	grpccodes.FailedPrecondition,
}

var INSUFFICIENT_FUNDING = Code[ClaimMetadata]{
	11,
	"INSUFFICIENT_FUNDING",
	grpccodes.FailedPrecondition,
}

var FUNDING_LIMIT_EXCEEDED = Code[FundingMetadata]{
	12,
	"FUNDING_LIMIT_EXCEEDED",
	grpccodes.InvalidArgument,
}

var VESTING_FULLY_FUNDED = Code[FundingMetadata]{
	13,
	"VESTING_FULLY_FUNDED",
	grpccodes.FailedPrecondition,
}

var VESTING_NOT_FOUND = Code[VestingMetadata]{14, "VESTING_NOT_FOUND", grpccodes.NotFound}

var VESTING_NOT_ACTIVE = Code[VestingMetadata]{
	15,
	"VESTING_NOT_ACTIVE",
	grpccodes.FailedPrecondition,
}

var FULLY_VESTED = Code[VestingMetadata]{16, "FULLY_VESTED", grpccodes.FailedPrecondition}

var VESTING_NOT_REVOCABLE = Code[VestingMetadata]{
	17,
	"VESTING_NOT_REVOCABLE",
	grpccodes.FailedPrecondition,
}

var NOT_VESTING_OWNER = Code[VestingMetadata]{18, "NOT_VESTING_OWNER", grpccodes.PermissionDenied}

var NOT_AUTHORIZED_FOR_TRANSFER = Code[TransferMetadata]{
	19,
	"NOT_AUTHORIZED_FOR_TRANSFER",
	grpccodes.PermissionDenied,
}

var PENDING_TRANSFER_EXISTS = Code[TransferMetadata]{
	20,
	"PENDING_TRANSFER_EXISTS",
	grpccodes.FailedPrecondition,
}

var NO_PENDING_TRANSFER = Code[VestingMetadata]{
	21,
	"NO_PENDING_TRANSFER",
	grpccodes.FailedPrecondition,
}

var TIMELOCK_ENABLED = Code[TimelockMetadata]{22, "TIMELOCK_ENABLED", grpccodes.FailedPrecondition}
var INSUFFICIENT_FEE = Code[FeeMetadata]{23, "INSUFFICIENT_FEE", grpccodes.InvalidArgument}
var NOT_FEE_COLLECTOR = Code[map[string]any]{24, "NOT_FEE_COLLECTOR", grpccodes.PermissionDenied}

var ARRAY_LENGTH_MISMATCH = Code[ArrayLengthMetadata]{
	25,
	"ARRAY_LENGTH_MISMATCH",
	grpccodes.InvalidArgument,
}

var EMPTY_ARRAY = Code[map[string]any]{26, "EMPTY_ARRAY", grpccodes.InvalidArgument}
var INVALID_RANGE = Code[RangeMetadata]{27, "INVALID_RANGE", grpccodes.InvalidArgument}
var TRANSFER_FAILED = Code[map[string]any]{28, "TRANSFER_FAILED", grpccodes.Internal}
var NOTHING_TO_CLAIM = Code[ClaimMetadata]{29, "NOTHING_TO_CLAIM", grpccodes.FailedPrecondition}
