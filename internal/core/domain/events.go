package domain

// Topics of the event log. Vesting lifecycle events are keyed by vesting id,
// treasury events by the TreasuryID singleton.
const (
	VestingTopic  = "vesting"
	TreasuryTopic = "treasury"

	TreasuryID = "treasury"
)

type EventType uint8

const (
	EventTypeUndefined EventType = iota
	EventTypeVestingCreated
	EventTypeVestingFunded
	EventTypeClaimed
	EventTypeVestingRevoked
	EventTypeVestingTransferInitiated
	EventTypeVestingTransferCancelled
	EventTypeVestingTransferred
	EventTypeAdminWithdrawn
	EventTypeGasFeeWithdrawn
	EventTypeFeeCollectorUpdated
)

func (t EventType) String() string {
	return []string{
		"Undefined",
		"VestingCreated",
		"VestingFunded",
		"Claimed",
		"VestingRevoked",
		"VestingTransferInitiated",
		"VestingTransferCancelled",
		"VestingTransferred",
		"AdminWithdrawn",
		"GasFeeWithdrawn",
		"FeeCollectorUpdated",
	}[t]
}

// Event is implemented by every state transition recorded in the event log.
type Event interface {
	GetType() EventType
	GetID() string
}

type VestingCreated struct {
	Id        string
	Type      EventType
	Recipient string
	Schedule  Schedule
	Revocable bool
	Funded    uint64
	Timestamp int64
}

func (e VestingCreated) GetType() EventType { return e.Type }
func (e VestingCreated) GetID() string      { return e.Id }

type VestingFunded struct {
	Id            string
	Type          EventType
	Amount        uint64
	TotalFunded   uint64
	TotalRequired uint64
	Timestamp     int64
}

func (e VestingFunded) GetType() EventType { return e.Type }
func (e VestingFunded) GetID() string      { return e.Id }

type Claimed struct {
	Id           string
	Type         EventType
	Recipient    string
	Amount       uint64
	TotalClaimed uint64
	Fee          uint64
	Timestamp    int64
}

func (e Claimed) GetType() EventType { return e.Type }
func (e Claimed) GetID() string      { return e.Id }

type VestingRevoked struct {
	Id             string
	Type           EventType
	AmountWithheld uint64
	Timestamp      int64
}

func (e VestingRevoked) GetType() EventType { return e.Type }
func (e VestingRevoked) GetID() string      { return e.Id }

type VestingTransferInitiated struct {
	Id           string
	Type         EventType
	Recipient    string
	PendingOwner string
	Timestamp    int64
}

func (e VestingTransferInitiated) GetType() EventType { return e.Type }
func (e VestingTransferInitiated) GetID() string      { return e.Id }

type VestingTransferCancelled struct {
	Id        string
	Type      EventType
	Recipient string
	Timestamp int64
}

func (e VestingTransferCancelled) GetType() EventType { return e.Type }
func (e VestingTransferCancelled) GetID() string      { return e.Id }

type VestingTransferred struct {
	Id           string
	Type         EventType
	OldRecipient string
	NewRecipient string
	Timestamp    int64
}

func (e VestingTransferred) GetType() EventType { return e.Type }
func (e VestingTransferred) GetID() string      { return e.Id }

type AdminWithdrawn struct {
	Id        string
	Type      EventType
	To        string
	Amount    uint64
	Timestamp int64
}

func (e AdminWithdrawn) GetType() EventType { return e.Type }
func (e AdminWithdrawn) GetID() string      { return e.Id }

type GasFeeWithdrawn struct {
	Id        string
	Type      EventType
	To        string
	Amount    uint64
	Timestamp int64
}

func (e GasFeeWithdrawn) GetType() EventType { return e.Type }
func (e GasFeeWithdrawn) GetID() string      { return e.Id }

type FeeCollectorUpdated struct {
	Id           string
	Type         EventType
	OldCollector string
	NewCollector string
	Timestamp    int64
}

func (e FeeCollectorUpdated) GetType() EventType { return e.Type }
func (e FeeCollectorUpdated) GetID() string      { return e.Id }
