package registry

import (
	"fmt"
	"math/big"
)

// GetNamePrice quotes the registration of name for recipient over years,
// applying the referral discount when referrer qualifies.
func (e *Engine) GetNamePrice(name string, recipient [20]byte, years uint64, referrer *string) (Price, error) {
	if err := e.ready(); err != nil {
		return Price{}, err
	}
	if err := e.checkDuration(years); err != nil {
		return Price{}, err
	}
	meta, err := e.loadMeta()
	if err != nil {
		return Price{}, err
	}
	return e.quote(meta, name, recipient, years, referrer)
}

func (e *Engine) quote(meta *storedMeta, name string, recipient [20]byte, years uint64, referrer *string) (Price, error) {
	price := Price{Base: new(big.Int), Premium: new(big.Int), Discount: new(big.Int)}
	if e.fees != nil {
		base, premium, err := e.fees.GetNamePrice(name, years)
		if err != nil {
			return Price{}, fmt.Errorf("registry: price %q: %w", name, err)
		}
		if base != nil {
			price.Base.Set(base)
		}
		if premium != nil {
			price.Premium.Set(premium)
		}
	} else if e.defaultPrice != nil {
		price.Base.Set(e.defaultPrice)
	}
	payout, err := e.referralPayout(meta, recipient, referrer)
	if err != nil {
		return Price{}, err
	}
	if payout != nil {
		price.Discount = referralShare(price.Gross())
		price.Referrer = payout
	}
	return price, nil
}

// referralPayout returns the account rewarded for referrer, or nil when the
// referral does not qualify. A disqualified referral is never an error.
func (e *Engine) referralPayout(meta *storedMeta, recipient [20]byte, referrer *string) (*[20]byte, error) {
	if meta.WhitelistPhase || referrer == nil || *referrer == "" {
		return nil, nil
	}
	rec, ok, err := e.loadActive(*referrer)
	if err != nil || !ok {
		return nil, err
	}
	if recipient == rec.Owner || recipient == rec.Controller || recipient == rec.Resolved {
		return nil, nil
	}
	payout := rec.Resolved
	return &payout, nil
}

func referralShare(gross *big.Int) *big.Int {
	share := new(big.Int).Mul(gross, big.NewInt(ReferralDiscountBps))
	return share.Quo(share, big.NewInt(bpsDenominator))
}

// settle routes the payment of a completed registration: the referrer is paid
// first and the excess over the price is refunded to the payer. Any failed
// transfer fails the call.
func (e *Engine) settle(payer [20]byte, name string, price Price, paid *big.Int) error {
	total := price.Total()
	retained := new(big.Int).Set(total)
	if price.Referrer != nil && price.Discount.Sign() > 0 {
		if err := e.payOut(*price.Referrer, price.Discount, ErrTransferFailed); err != nil {
			return err
		}
		retained.Sub(retained, price.Discount)
		e.emit(e.paymentEvent(EventTypeReferralPaid, name, *price.Referrer, price.Discount))
	}
	if excess := new(big.Int).Sub(paid, total); excess.Sign() > 0 {
		if err := e.payOut(payer, excess, ErrTransferFailed); err != nil {
			return err
		}
	}
	if retained.Sign() > 0 {
		e.emit(e.paymentEvent(EventTypeFeeReceived, name, payer, retained))
	}
	return nil
}

func (e *Engine) payOut(to [20]byte, amount *big.Int, failure error) error {
	if e.payments == nil {
		return errNilPayments
	}
	if err := e.payments.Transfer(e.vault, to, amount); err != nil {
		return fmt.Errorf("%w: %w", failure, err)
	}
	return nil
}
