package modules

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"namechain/core"
	coreerrors "namechain/core/errors"
	"namechain/core/types"
	"namechain/crypto"
	nativecommon "namechain/native/common"
	"namechain/native/registry"
	"namechain/native/router"
)

const (
	codeInvalidParams = -32602
	codeUnauthorized  = -32001
	codeServerError   = -32000
)

type ModuleError struct {
	HTTPStatus int
	Code       int
	Message    string
	Data       interface{}
}

func (e *ModuleError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

var errModuleOffline = &ModuleError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: "node not initialised"}

var permissionErrors = []error{
	registry.ErrCallerIsNotOwner,
	registry.ErrCallerIsNotController,
	registry.ErrCallerIsNotAdmin,
	registry.ErrNotAuthorised,
}

var rejectionErrors = []error{
	registry.ErrSelfApprove,
	registry.ErrNameEmpty,
	registry.ErrNameNotAllowed,
	registry.ErrNameAlreadyExists,
	registry.ErrNameDoesntExist,
	registry.ErrCannotBuyReservedName,
	registry.ErrNotReservedName,
	registry.ErrInvalidRecipient,
	registry.ErrInvalidDuration,
	registry.ErrRecordNotFound,
	registry.ErrNoRecordsForName,
	registry.ErrNoResolvedAddress,
	registry.ErrFeeNotPaid,
	registry.ErrTransferFailed,
	registry.ErrWithdrawFailed,
	registry.ErrInsufficientBalance,
	registry.ErrAlreadyClaimed,
	registry.ErrInvalidMerkleProof,
	registry.ErrOnlyDuringWhitelistPhase,
	registry.ErrRestrictedDuringWhitelistPhase,
	registry.ErrRecordsOverflow,
	registry.ErrTransferRejected,
	router.ErrUnknownTLD,
	router.ErrMalformedAddress,
	nativecommon.ErrModulePaused,
	coreerrors.ErrChainIDMismatch,
	coreerrors.ErrNonceMismatch,
	coreerrors.ErrUnknownType,
	coreerrors.ErrInvalidPayload,
	coreerrors.ErrValueNotAccepted,
	coreerrors.ErrInsufficientBalance,
	types.ErrMissingSignature,
}

// wrapError maps ledger errors onto JSON-RPC codes. Permission failures become
// codeUnauthorized, known rejections codeInvalidParams and anything else a
// server error.
func wrapError(err error) *ModuleError {
	if err == nil {
		return nil
	}
	for _, target := range permissionErrors {
		if errors.Is(err, target) {
			return &ModuleError{HTTPStatus: http.StatusForbidden, Code: codeUnauthorized, Message: err.Error()}
		}
	}
	for _, target := range rejectionErrors {
		if errors.Is(err, target) {
			return &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidParams, Message: err.Error()}
		}
	}
	return &ModuleError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: err.Error()}
}

func invalidParams(message string, err error) *ModuleError {
	modErr := &ModuleError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidParams, Message: message}
	if err != nil {
		modErr.Data = err.Error()
	}
	return modErr
}

func decodeParams(raw json.RawMessage, out interface{}) *ModuleError {
	if len(raw) == 0 {
		return invalidParams("parameter object required", nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return invalidParams("invalid parameter object", err)
	}
	return nil
}

func requireName(name string) (string, *ModuleError) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", invalidParams("name is required", nil)
	}
	return trimmed, nil
}

func parseAddress(field, value string) ([20]byte, *ModuleError) {
	addr, err := crypto.ParseAddress(value)
	if err != nil {
		return [20]byte{}, invalidParams("invalid "+field, err)
	}
	return addr.Raw(), nil
}

func formatAddress(addr [20]byte) string {
	return crypto.FromRaw(addr).String()
}

func formatOptionalAddress(addr *[20]byte) string {
	if addr == nil {
		return ""
	}
	return formatAddress(*addr)
}

func viewState(node *core.Node, fn func(*registry.Engine) error) *ModuleError {
	if node == nil {
		return errModuleOffline
	}
	return wrapError(node.View(fn))
}
