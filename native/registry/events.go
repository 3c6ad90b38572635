package registry

import (
	"math/big"
	"strconv"

	"namechain/core/events"
	"namechain/core/types"
	"namechain/crypto"
)

const (
	EventTypeNameRegistered       = "registry.name.registered"
	EventTypeNameReleased         = "registry.name.released"
	EventTypeNameTransferred      = "registry.name.transferred"
	EventTypeAddressSet           = "registry.address.set"
	EventTypeControllerSet        = "registry.controller.set"
	EventTypeRecordsUpdated       = "registry.records.updated"
	EventTypeReservedClaimed      = "registry.reserved.claimed"
	EventTypePrimarySet           = "registry.primary.set"
	EventTypeApproval             = "registry.approval"
	EventTypeFeeReceived          = "registry.fee.received"
	EventTypeReferralPaid         = "registry.referral.paid"
	EventTypePublicPhaseActivated = "registry.public_phase.activated"
	EventTypeWithdraw             = "registry.withdraw"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func addrString(addr [20]byte) string {
	return crypto.FromRaw(addr).String()
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func (e *Engine) newEvent(kind, name string, attrs map[string]string) *types.Event {
	if attrs == nil {
		attrs = make(map[string]string)
	}
	attrs["tld"] = e.tld
	if name != "" {
		attrs["name"] = name
	}
	return &types.Event{Type: kind, Attributes: attrs}
}

func (e *Engine) nameRegisteredEvent(rec *storedName, payer [20]byte) *types.Event {
	return e.newEvent(EventTypeNameRegistered, rec.Name, map[string]string{
		"owner":        addrString(rec.Owner),
		"payer":        addrString(payer),
		"registeredAt": strconv.FormatUint(rec.Registration, 10),
		"expiresAt":    strconv.FormatUint(rec.Expiration, 10),
	})
}

func (e *Engine) nameReleasedEvent(rec *storedName, reason string) *types.Event {
	return e.newEvent(EventTypeNameReleased, rec.Name, map[string]string{
		"owner":  addrString(rec.Owner),
		"reason": reason,
	})
}

func (e *Engine) nameTransferredEvent(name string, from, to, operator [20]byte) *types.Event {
	return e.newEvent(EventTypeNameTransferred, name, map[string]string{
		"from":     addrString(from),
		"to":       addrString(to),
		"operator": addrString(operator),
	})
}

func (e *Engine) roleSetEvent(kind, name string, previous, next [20]byte) *types.Event {
	return e.newEvent(kind, name, map[string]string{
		"previous": addrString(previous),
		"address":  addrString(next),
	})
}

func (e *Engine) recordsUpdatedEvent(name string, count int, size uint64) *types.Event {
	return e.newEvent(EventTypeRecordsUpdated, name, map[string]string{
		"count": strconv.Itoa(count),
		"size":  strconv.FormatUint(size, 10),
	})
}

func (e *Engine) primarySetEvent(addr [20]byte, name string) *types.Event {
	evt := e.newEvent(EventTypePrimarySet, "", map[string]string{"address": addrString(addr)})
	evt.Attributes["primary"] = name
	return evt
}

func (e *Engine) approvalEvent(owner, operator [20]byte, name *string, approved bool) *types.Event {
	attrs := map[string]string{
		"owner":    addrString(owner),
		"operator": addrString(operator),
		"approved": strconv.FormatBool(approved),
	}
	scope := ""
	if name != nil {
		scope = *name
	} else {
		attrs["scope"] = "all"
	}
	return e.newEvent(EventTypeApproval, scope, attrs)
}

func (e *Engine) paymentEvent(kind, name string, addr [20]byte, amount *big.Int) *types.Event {
	return e.newEvent(kind, name, map[string]string{
		"address": addrString(addr),
		"amount":  amountString(amount),
	})
}
