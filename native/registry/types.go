package registry

import (
	"math/big"
	"strings"
)

// YEAR is the registration unit in seconds.
const YEAR int64 = 365 * 24 * 60 * 60

const (
	// DefaultRecordsSizeLimit bounds the combined byte size of a name's records
	// when the registry metadata does not override it.
	DefaultRecordsSizeLimit uint64 = 8192
	// DefaultMaxRegistrationYears caps the duration accepted when no fee
	// calculator is configured.
	DefaultMaxRegistrationYears uint64 = 3
	// ReferralDiscountBps is the share of base+premium granted as discount and
	// paid out to the referrer.
	ReferralDiscountBps = 500
	bpsDenominator      = 10_000
)

// Relation identifies one of the reverse indices kept per account.
type Relation uint8

const (
	RelationOwned Relation = iota + 1
	RelationControlled
	RelationResolving
)

func (r Relation) String() string {
	switch r {
	case RelationOwned:
		return "owned"
	case RelationControlled:
		return "controlled"
	case RelationResolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// ParseRelation maps the textual relation names used by the RPC surface.
func ParseRelation(value string) (Relation, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "owned", "owner":
		return RelationOwned, true
	case "controlled", "controller":
		return RelationControlled, true
	case "resolving", "resolved":
		return RelationResolving, true
	default:
		return 0, false
	}
}

// AddressDict carries the three roles attached to an active name.
type AddressDict struct {
	Owner      [20]byte
	Controller [20]byte
	Resolved   [20]byte
}

func newAddressDict(addr [20]byte) AddressDict {
	return AddressDict{Owner: addr, Controller: addr, Resolved: addr}
}

// Period is the registration window of a name in unix seconds.
type Period struct {
	Registration int64
	Expiration   int64
}

// NameRecord is the public view of a stored name.
type NameRecord struct {
	Name      string
	Addresses AddressDict
	Period    Period
}

// Record is a single key/value metadata entry.
type Record struct {
	Key   string
	Value string
}

// RecordChange upserts Key when Value is set and deletes it otherwise.
type RecordChange struct {
	Key   string
	Value *string
}

// ReservedEntry pre-assigns a name to an optional claimant.
type ReservedEntry struct {
	Name     string
	Claimant *[20]byte
}

// StatusKind is the externally visible classification of a name.
type StatusKind uint8

const (
	StatusRegistered StatusKind = iota + 1
	StatusReserved
	StatusAvailable
	StatusUnavailable
)

func (k StatusKind) String() string {
	switch k {
	case StatusRegistered:
		return "registered"
	case StatusReserved:
		return "reserved"
	case StatusAvailable:
		return "available"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// NameStatus describes a name at query time. Addresses and Period are only set
// for registered names, ReservedFor only for reserved ones.
type NameStatus struct {
	Name        string
	Kind        StatusKind
	Addresses   *AddressDict
	Period      *Period
	ReservedFor *[20]byte
}

// Lifecycle is the internal state of a name derived from storage and time.
type Lifecycle uint8

const (
	LifecycleAvailable Lifecycle = iota
	LifecycleActive
	LifecycleExpired
	LifecycleReserved
)

// Price is the quote returned for a registration.
type Price struct {
	Base     *big.Int
	Premium  *big.Int
	Discount *big.Int
	Referrer *[20]byte
}

// Gross returns base plus premium.
func (p Price) Gross() *big.Int {
	total := new(big.Int)
	if p.Base != nil {
		total.Add(total, p.Base)
	}
	if p.Premium != nil {
		total.Add(total, p.Premium)
	}
	return total
}

// Total returns the amount the buyer must attach.
func (p Price) Total() *big.Int {
	total := p.Gross()
	if p.Discount != nil {
		total.Sub(total, p.Discount)
	}
	return total
}

// Registration describes a register call. Paid is the value already moved
// into the registry vault by the caller.
type Registration struct {
	Name      string
	Recipient [20]byte
	Years     uint64
	Referrer  *string
	Proof     [][32]byte
	Paid      *big.Int
}

// Receiver is notified when a name is transferred to its account. Returning an
// error rejects the transfer.
type Receiver interface {
	OnNameReceived(operator, from [20]byte, name string, data []byte) error
}

// ReceiverDirectory resolves the receiver hook registered for an account, if
// any.
type ReceiverDirectory interface {
	ReceiverFor(addr [20]byte) (Receiver, bool)
}
