package registry

import "errors"

var (
	ErrCallerIsNotOwner      = errors.New("registry: caller is not owner")
	ErrCallerIsNotController = errors.New("registry: caller is not controller")
	ErrCallerIsNotAdmin      = errors.New("registry: caller is not admin")
	ErrNotAuthorised         = errors.New("registry: not authorised")
	ErrSelfApprove           = errors.New("registry: cannot approve self")

	ErrNameEmpty             = errors.New("registry: name empty")
	ErrNameNotAllowed        = errors.New("registry: name not allowed")
	ErrNameAlreadyExists     = errors.New("registry: name already exists")
	ErrNameDoesntExist       = errors.New("registry: name doesn't exist")
	ErrCannotBuyReservedName = errors.New("registry: cannot buy reserved name")
	ErrNotReservedName       = errors.New("registry: not a reserved name")
	ErrInvalidRecipient      = errors.New("registry: invalid recipient")
	ErrInvalidDuration       = errors.New("registry: invalid duration")
	ErrRecordNotFound        = errors.New("registry: record not found")
	ErrNoRecordsForName      = errors.New("registry: no records for name")
	ErrNoResolvedAddress     = errors.New("registry: no resolved address")

	ErrFeeNotPaid          = errors.New("registry: fee not paid")
	ErrTransferFailed      = errors.New("registry: transfer failed")
	ErrWithdrawFailed      = errors.New("registry: withdraw failed")
	ErrInsufficientBalance = errors.New("registry: insufficient balance")

	ErrAlreadyClaimed                 = errors.New("registry: already claimed")
	ErrInvalidMerkleProof             = errors.New("registry: invalid merkle proof")
	ErrOnlyDuringWhitelistPhase       = errors.New("registry: only during whitelist phase")
	ErrRestrictedDuringWhitelistPhase = errors.New("registry: restricted during whitelist phase")

	ErrRecordsOverflow  = errors.New("registry: records size overflow")
	ErrTransferRejected = errors.New("registry: transfer rejected by receiver")
)

var (
	errNilState      = errors.New("registry: state not configured")
	errNilPayments   = errors.New("registry: payments not configured")
	errIndexMissing  = errors.New("registry: invariant: name missing from index")
	errIndexPosition = errors.New("registry: invariant: index position out of range")
	errRecordMissing = errors.New("registry: invariant: active name without record")
)
