package errors

import stderrors "errors"

var (
	ErrNilTransaction      = stderrors.New("tx: nil transaction")
	ErrChainIDMismatch     = stderrors.New("tx: chain id mismatch")
	ErrNonceMismatch       = stderrors.New("tx: nonce mismatch")
	ErrUnknownType         = stderrors.New("tx: unknown transaction type")
	ErrInvalidPayload      = stderrors.New("tx: invalid payload")
	ErrValueNotAccepted    = stderrors.New("tx: operation does not accept value")
	ErrInsufficientBalance = stderrors.New("tx: insufficient balance for attached value")
)
