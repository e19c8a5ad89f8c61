package domain

import (
	errors "github.com/vestlabs/vestd/pkg/errors"
)

// RecipientIndex keeps the bidirectional mapping between recipients and their
// vesting ids. Both insertion and removal are O(1): removal swaps the last
// element into the freed slot and pops, on the per-recipient id list as well
// as on the global recipient set. The reverse maps store position+1 so the
// zero value means absent.
//
// Invariant: a recipient is in the global set if and only if their vesting
// list is non-empty.
type RecipientIndex struct {
	recipients   []string
	recipientPos map[string]int

	vestingsByRecipient map[string][]string
	vestingPos          map[string]map[string]int
}

func NewRecipientIndex() *RecipientIndex {
	return &RecipientIndex{
		recipientPos:        make(map[string]int),
		vestingsByRecipient: make(map[string][]string),
		vestingPos:          make(map[string]map[string]int),
	}
}

// AddVesting appends id to the recipient's list, registering the recipient in
// the global set if this is their first vesting.
func (i *RecipientIndex) AddVesting(recipient, id string) {
	if i.vestingPos[recipient] == nil {
		i.vestingPos[recipient] = make(map[string]int)
	}
	if i.vestingPos[recipient][id] != 0 {
		return
	}

	i.vestingsByRecipient[recipient] = append(i.vestingsByRecipient[recipient], id)
	i.vestingPos[recipient][id] = len(i.vestingsByRecipient[recipient])

	if i.recipientPos[recipient] == 0 {
		i.recipients = append(i.recipients, recipient)
		i.recipientPos[recipient] = len(i.recipients)
	}
}

// RemoveVesting drops id from the recipient's list via swap-and-pop. When the
// list empties, the recipient leaves the global set the same way.
func (i *RecipientIndex) RemoveVesting(recipient, id string) {
	pos := i.vestingPos[recipient][id]
	if pos == 0 {
		return
	}

	list := i.vestingsByRecipient[recipient]
	last := len(list) - 1
	if pos-1 != last {
		moved := list[last]
		list[pos-1] = moved
		i.vestingPos[recipient][moved] = pos
	}
	list = list[:last]
	delete(i.vestingPos[recipient], id)

	if len(list) == 0 {
		delete(i.vestingsByRecipient, recipient)
		delete(i.vestingPos, recipient)
		i.removeRecipient(recipient)
		return
	}
	i.vestingsByRecipient[recipient] = list
}

func (i *RecipientIndex) removeRecipient(recipient string) {
	pos := i.recipientPos[recipient]
	if pos == 0 {
		return
	}
	last := len(i.recipients) - 1
	if pos-1 != last {
		moved := i.recipients[last]
		i.recipients[pos-1] = moved
		i.recipientPos[moved] = pos
	}
	i.recipients = i.recipients[:last]
	delete(i.recipientPos, recipient)
}

// VestingsFor returns a copy of the recipient's vesting ids.
func (i *RecipientIndex) VestingsFor(recipient string) []string {
	list := i.vestingsByRecipient[recipient]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Has reports whether the recipient holds at least one vesting.
func (i *RecipientIndex) Has(recipient string) bool {
	return i.recipientPos[recipient] != 0
}

// Len returns the number of recipients in the global set.
func (i *RecipientIndex) Len() int {
	return len(i.recipients)
}

// Slice returns the recipients in positions [from, to).
func (i *RecipientIndex) Slice(from, to int) ([]string, error) {
	if from < 0 || from >= to || to > len(i.recipients) {
		return nil, errors.INVALID_RANGE.New("invalid recipient range [%d, %d)", from, to).
			WithMetadata(errors.RangeMetadata{
				From:   from,
				To:     to,
				Length: len(i.recipients),
			})
	}
	out := make([]string, to-from)
	copy(out, i.recipients[from:to])
	return out, nil
}
