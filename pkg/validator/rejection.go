package validator

import "errors"

// Rejection flattens every reason ApplyTransaction can abort a transaction,
// so a caller can branch on a stable reason without parsing error text.
type Rejection int

const (
	RejectionNone Rejection = iota
	RejectionMalformed
	RejectionMetadataFailed
	RejectionSignatureMismatch
	RejectionSignatureInvalid
	RejectionProofMismatch
	RejectionProofInvalid
	RejectionExecFailed
	RejectionUpdateFailed
	RejectionInsufficientFee
	RejectionOutOfGas
	RejectionVerifyingKeyMissing
	RejectionLockedContract
	RejectionDeployVerificationFailed
)

var rejectionNames = map[Rejection]string{
	RejectionNone:                      "NONE",
	RejectionMalformed:                 "MALFORMED",
	RejectionMetadataFailed:            "METADATA_FAILED",
	RejectionSignatureMismatch:         "SIGNATURE_MISMATCH",
	RejectionSignatureInvalid:          "SIGNATURE_INVALID",
	RejectionProofMismatch:             "PROOF_MISMATCH",
	RejectionProofInvalid:              "PROOF_INVALID",
	RejectionExecFailed:                "EXEC_FAILED",
	RejectionUpdateFailed:              "UPDATE_FAILED",
	RejectionInsufficientFee:           "INSUFFICIENT_FEE",
	RejectionOutOfGas:                  "OUT_OF_GAS",
	RejectionVerifyingKeyMissing:       "VERIFYING_KEY_MISSING",
	RejectionLockedContract:            "LOCKED_CONTRACT",
	RejectionDeployVerificationFailed:  "DEPLOY_VERIFICATION_FAILED",
}

func (r Rejection) String() string {
	if name, ok := rejectionNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// TxError pairs a Rejection with the underlying cause for logging.
type TxError struct {
	Reason Rejection
	Err    error
}

func (e *TxError) Error() string { return e.Reason.String() + ": " + e.Err.Error() }
func (e *TxError) Unwrap() error { return e.Err }

func reject(reason Rejection, err error) error {
	return &TxError{Reason: reason, Err: err}
}

// ErrVerifyingKeyMissing is returned when a call declares a circuit
// namespace that was never registered via zkas_db_set at deploy time.
var ErrVerifyingKeyMissing = errors.New("validator: no verifying key for circuit namespace")

// ErrContractLocked is returned by Deploy when the target ContractId's
// lock bit has already been set by the Deployooor contract.
var ErrContractLocked = errors.New("validator: contract is locked against redeployment")
