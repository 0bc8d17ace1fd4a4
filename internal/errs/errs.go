// Package errs provides the typed, coded error taxonomy used across the
// ECIES codec, identity layer, and ballot engine. Every error carries a
// stable Code plus an i18n reason key and template parameters; the actual
// translation table is an external collaborator (see Registry) and is not
// part of this package beyond an English fallback.
package errs

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-checkable error identifier. Codes are never
// renamed once shipped; they are the contract callers match on.
type Code string

const (
	// Validation
	CodeInvalidName             Code = "InvalidName"
	CodeInvalidEmail            Code = "InvalidEmail"
	CodeInvalidMnemonic         Code = "InvalidMnemonic"
	CodeInvalidLength           Code = "InvalidLength"
	CodeInvalidType             Code = "InvalidType"
	CodeDuplicateRecipientId    Code = "DuplicateRecipientId"
	CodeInvalidRecipientCount   Code = "InvalidRecipientCount"
	CodeTooManyRecipients       Code = "TooManyRecipients"
	CodeInvalidChoice           Code = "InvalidChoice"
	CodeDuplicateRanking        Code = "DuplicateRanking"
	CodeWeightExceedsMaximum    Code = "WeightExceedsMaximum"
	CodeWeightMustBePositive    Code = "WeightMustBePositive"
	CodeCannotEncryptEmptyData  Code = "CannotEncryptEmptyData"
	CodeChunkSizeOverflow       Code = "ChunkSizeOverflow"
	CodeLengthIsTooShort        Code = "LengthIsTooShort"
	CodeLengthIsInvalidType     Code = "LengthIsInvalidType"
	CodeInvalidCharacters       Code = "InvalidCharacters"
	CodeInvalidStringLength     Code = "InvalidStringLength"
	CodeInputMustBeString       Code = "InputMustBeString"

	// Crypto
	CodeDecryptionFailed           Code = "DecryptionFailed"
	CodeInvalidSignature           Code = "InvalidSignature"
	CodeInvalidSharedSecret        Code = "InvalidSharedSecret"
	CodeInvalidPublicKeyNotOnCurve Code = "InvalidPublicKeyNotOnCurve"
	CodeInvalidIV                  Code = "InvalidIV"
	CodeInvalidAuthTag             Code = "InvalidAuthTag"

	// Framing
	CodeInvalidMagicBytes        Code = "InvalidMagicBytes"
	CodeUnsupportedVersion       Code = "UnsupportedVersion"
	CodeInvalidCipherSuite       Code = "InvalidCipherSuite"
	CodeChunkTooSmall            Code = "ChunkTooSmall"
	CodeChunkSequenceError       Code = "ChunkSequenceError"
	CodeRecipientNotFoundInChunk Code = "RecipientNotFoundInChunk"
	CodeDataTooShortForHeader    Code = "DataTooShortForHeader"

	// Lifecycle
	CodeObjectDisposed Code = "ObjectDisposed"
	CodePollClosed     Code = "PollClosed"
	CodeAlreadyVoted   Code = "AlreadyVoted"
	CodeAlreadyClosed  Code = "AlreadyClosed"
	CodeNotClosed      Code = "NotClosed"

	// Voting
	CodeInsecureMethodNotAllowed Code = "InsecureMethodNotAllowed"
	CodeInvalidVotingMethod      Code = "InvalidVotingMethod"
	CodeAuditLogImmutable        Code = "AuditLogImmutable"
	CodeTooFewChoices            Code = "TooFewChoices"

	// Resource
	CodeBufferOverflow          Code = "BufferOverflow"
	CodeEncryptionCancelled     Code = "EncryptionCancelled"
	CodeDecryptionCancelled     Code = "DecryptionCancelled"
	CodePrimeGenerationExhausted Code = "PrimeGenerationExhausted"

	// Configuration
	CodeIdProviderMissingMethod      Code = "IdProviderMissingMethod"
	CodeIdProviderByteLengthMismatch Code = "IdProviderByteLengthMismatch"
	CodeInvalidByteLengthParameter   Code = "InvalidByteLengthParameter"

	// Checksum / decrypted-value
	CodeDecryptedValueLengthMismatch   Code = "DecryptedValueLengthMismatch"
	CodeDecryptedValueChecksumMismatch Code = "DecryptedValueChecksumMismatch"

	// Generic data shape
	CodeDecryptedValueInvalidGuidBuffer Code = "InvalidGuidBuffer"
)

// Error is the concrete error type returned across package boundaries.
// It satisfies errors.Is/errors.As via Unwrap, but its Error() string never
// includes Cause's message when the code is security-sensitive (see
// Opaque) so that internal failure detail cannot leak to callers.
type Error struct {
	Code      Code
	ReasonKey string
	Params    map[string]string
	Cause     error

	// opaque suppresses Cause from the formatted message entirely. Used
	// for DecryptionFailed and similar codes where the specific failure
	// point must not be observable (spec §7).
	opaque bool
}

func (e *Error) Error() string {
	if e.opaque || e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.ReasonKey)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.ReasonKey, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, errs.New(code, ...)) to match purely on Code.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// New builds an Error with the given code, reason key and template params
// (non-sensitive validation errors). Params are carried on the Error for
// translation; Error() prints only the code and reason key.
func New(code Code, reasonKey string, params map[string]string) *Error {
	return &Error{Code: code, ReasonKey: reasonKey, Params: params}
}

// Wrap builds an Error that keeps cause reachable via errors.Unwrap while
// still surfacing it in the formatted message. Use for non-sensitive
// internal failures (configuration, framing validation).
func Wrap(code Code, reasonKey string, cause error) *Error {
	return &Error{Code: code, ReasonKey: reasonKey, Cause: cause}
}

// Opaque builds an Error whose message never includes cause, though the
// cause remains reachable via errors.Unwrap for internal logging. Use
// for cryptographic failures per spec §7's non-disclosure requirement.
func Opaque(code Code, reasonKey string, cause error) *Error {
	return &Error{Code: code, ReasonKey: reasonKey, Cause: cause, opaque: true}
}

// WithParam returns a copy of e with an additional template parameter set.
func (e *Error) WithParam(key, value string) *Error {
	cp := *e
	cp.Params = make(map[string]string, len(e.Params)+1)
	for k, v := range e.Params {
		cp.Params[k] = v
	}
	cp.Params[key] = value
	return &cp
}

// Registry is the external i18n collaborator: it translates a coded error
// into a human-readable, locale-specific string. Translate receives the
// code, params and locale; the reason key is not passed to it.
type Registry interface {
	Translate(code Code, params map[string]string, locale string) string
}

// DefaultRegistry is a Registry with no translation tables; it exists so
// this library is usable without wiring a real i18n engine, per spec
// §1's "external collaborator" boundary.
type DefaultRegistry struct{}

// Translate implements Registry by returning the empty string for every
// code; it does not fall back to the reason key.
func (DefaultRegistry) Translate(_ Code, _ map[string]string, _ string) string {
	return ""
}

// ErrDecryptionFailed is the single opaque sentinel every cryptographic
// failure in internal/ecies normalizes to; internal callers may still
// distinguish causes via errors.Unwrap for logging.
var ErrDecryptionFailed = Opaque(CodeDecryptionFailed, "errors.decryptionFailed", nil)
