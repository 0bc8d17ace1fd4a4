package vote

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

const receiptVersion = 1
const receiptNonceSize = 16

// Receipt is a signed acknowledgement that a specific voter's encrypted
// vote was accepted into a poll, binding poll, voter, time and vote
// hash so a voter can later prove their vote was counted (spec §4.9).
type Receipt struct {
	Version   uint8
	PollID    []byte
	VoterID   []byte
	Timestamp int64
	Nonce     [receiptNonceSize]byte
	VoteHash  [32]byte
	Signature []byte
}

// issuerSigner is satisfied by *member.Member without importing that
// package here, avoiding a member<->vote import cycle.
type issuerSigner interface {
	Sign(digest []byte) ([]byte, error)
}

// IssueReceipt signs a receipt transcript binding pollID, voterID, the
// issuance time, a fresh random nonce, and the vote's canonical hash.
func IssueReceipt(authority issuerSigner, pollID, voterID []byte, vote *EncryptedVote) (*Receipt, error) {
	var nonce [receiptNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	r := &Receipt{
		Version:   receiptVersion,
		PollID:    pollID,
		VoterID:   voterID,
		Timestamp: time.Now().UnixNano(),
		Nonce:     nonce,
		VoteHash:  sha256.Sum256(canonicalVoteBytes(vote)),
	}

	digest := sha256.Sum256(receiptTranscript(r))
	sig, err := authority.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	r.Signature = sig
	return r, nil
}

// verifierKey is satisfied by *member.Member's public-key verification.
type verifierKey interface {
	Verify(digest, sig []byte) (bool, error)
}

// VerifyReceipt recomputes the receipt's transcript and checks it
// against the authority's signature.
func VerifyReceipt(authority verifierKey, r *Receipt) (bool, error) {
	digest := sha256.Sum256(receiptTranscript(r))
	ok, err := authority.Verify(digest[:], r.Signature)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, errs.New(errs.CodeInvalidSignature, "errors.invalidSignature", nil)
	}
	return true, nil
}

// receiptTranscript renders version‖pollId‖voterId‖timestampBE‖nonce‖
// voteHash, the exact bytes signed and later re-verified.
func receiptTranscript(r *Receipt) []byte {
	out := make([]byte, 0, 1+len(r.PollID)+len(r.VoterID)+8+receiptNonceSize+32)
	out = append(out, r.Version)
	out = append(out, r.PollID...)
	out = append(out, r.VoterID...)

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(r.Timestamp))
	out = append(out, ts[:]...)
	out = append(out, r.Nonce[:]...)
	out = append(out, r.VoteHash[:]...)
	return out
}
