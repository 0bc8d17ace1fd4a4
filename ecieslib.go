// Package ecieslib is the public facade over this module's internal
// packages: secp256k1 hybrid encryption in four framing modes, BIP39/
// BIP32-backed member identities, and a Paillier-based verifiable-ballot
// voting system. Callers construct a Service from Constants and never
// import internal/... directly (spec.md §6's external-interfaces
// surface, expanded).
package ecieslib

import (
	"context"
	"log/slog"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/digital-defiance/ecies-lib/internal/config"
	"github.com/digital-defiance/ecies-lib/internal/cryptocore"
	"github.com/digital-defiance/ecies-lib/internal/ecies"
	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/member"
	"github.com/digital-defiance/ecies-lib/internal/metrics"
	"github.com/digital-defiance/ecies-lib/internal/paillier"
	"github.com/digital-defiance/ecies-lib/internal/vote"
)

// Re-exported types an application constructs or handles directly,
// following the teacher's pattern of a thin cmd/-facing surface over
// rich internal packages (here a library surface rather than a CLI).
type (
	Constants        = config.Constants
	ConstantsOptions = config.Options
	Member           = member.Member
	MemberType       = member.Type
	Recipient        = ecies.Recipient
	EncryptStream    = ecies.EncryptStream
	DecryptStream    = ecies.DecryptStream
	Progress         = ecies.Progress
	Poll             = vote.Poll
	EncryptedVote    = vote.EncryptedVote
	Ballot           = vote.Ballot
	Receipt          = vote.Receipt
	AuditEntry       = vote.AuditEntry
	VotingMethod     = vote.Method
	PollTallier      = vote.PollTallier
	TallyResult      = vote.Result
	Error            = errs.Error
)

const (
	MemberUser      = member.TypeUser
	MemberAdmin     = member.TypeAdmin
	MemberSystem    = member.TypeSystem
	MemberAnonymous = member.TypeAnonymous
)

// Service is the top-level entry point bound to one frozen Constants
// bundle: every Member, Poll, and encrypt/decrypt call made through it
// shares the same curve, chunking, and id-provider configuration.
type Service struct {
	constants *Constants
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewService constructs a Service from a Constants bundle built via
// config.Load/config.LoadFile/config.New. A nil logger falls back to
// slog.Default(); a nil metrics registry falls back to metrics.Default().
func NewService(constants *Constants, m *metrics.Metrics, logger *slog.Logger) *Service {
	if m == nil {
		m = metrics.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{constants: constants, metrics: m, logger: logger}
}

// Constants returns the frozen configuration this Service was built from.
func (s *Service) Constants() *Constants {
	return s.constants
}

// GenerateMnemonic returns a fresh BIP39 mnemonic at the Service's
// configured entropy strength.
func (s *Service) GenerateMnemonic() (string, error) {
	return cryptocore.NewMnemonic(s.constants.MnemonicStrength)
}

// NewMember constructs a Member bound to this Service's id provider and
// member-id length, generating a fresh secp256k1 keypair.
func (s *Service) NewMember(memberType MemberType, name, email string, creatorID []byte) (*Member, error) {
	id, err := s.constants.IdProvider().Generate()
	if err != nil {
		return nil, err
	}
	kp, err := cryptocore.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	m, err := member.New(id, memberType, name, email, kp.Public, creatorID, cryptocore.SerializePrivateKey(kp))
	s.metrics.RecordKeygen("ecies_keypair", time.Since(start).Seconds())
	return m, err
}

// AttachWalletFromMnemonic derives m's BIP32 wallet and Paillier voting
// keypair from mnemonic, using this Service's configured derivation path
// and Paillier profile.
func (s *Service) AttachWalletFromMnemonic(m *Member, mnemonic, passphrase string) error {
	seed, err := cryptocore.SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return err
	}
	start := time.Now()
	err = m.AttachWallet(seed, s.constants.PrimaryKeyDerivationPath,
		s.constants.Paillier.BitLength, s.constants.Paillier.PrimeTestIterations, s.constants.Paillier.MaxPrimeAttempts)
	s.metrics.RecordKeygen("paillier_keypair", time.Since(start).Seconds())
	s.metrics.RecordWalletDerived()
	return err
}

// EncryptSimple encrypts plaintext for a single recipient public key
// (single-recipient simple framing, spec §4.5).
func (s *Service) EncryptSimple(recipientPub *btcec.PublicKey, plaintext []byte) ([]byte, error) {
	start := time.Now()
	frame, err := ecies.EncryptSimple(recipientPub, plaintext)
	s.recordEncrypt("simple", start, len(plaintext), err)
	return frame, err
}

// DecryptSimple decrypts a single-recipient simple frame.
func (s *Service) DecryptSimple(recipientPriv *btcec.PrivateKey, frame []byte) ([]byte, error) {
	start := time.Now()
	plaintext, err := ecies.DecryptSimple(recipientPriv, frame)
	s.recordDecrypt("simple", start, len(plaintext), err)
	return plaintext, err
}

// EncryptFramed encrypts plaintext for a single recipient with an
// appended checksum (framed mode, spec §4.6).
func (s *Service) EncryptFramed(recipientPub *btcec.PublicKey, plaintext []byte) ([]byte, error) {
	start := time.Now()
	frame, err := ecies.EncryptFramed(recipientPub, plaintext)
	s.recordEncrypt("framed", start, len(plaintext), err)
	return frame, err
}

// DecryptFramed decrypts a checksummed single-recipient frame.
func (s *Service) DecryptFramed(recipientPriv *btcec.PrivateKey, frame []byte) ([]byte, error) {
	start := time.Now()
	plaintext, err := ecies.DecryptFramed(recipientPriv, frame)
	s.recordDecrypt("framed", start, len(plaintext), err)
	return plaintext, err
}

// EncryptMulti encrypts plaintext for every recipient in recipients
// (multi-recipient mode, spec §4.6), honoring the Service's configured
// maxRecipients.
func (s *Service) EncryptMulti(recipients []Recipient, plaintext []byte, withChecksum bool) ([]byte, error) {
	if len(recipients) > s.constants.MaxRecipients {
		return nil, errs.New(errs.CodeTooManyRecipients, "errors.tooManyRecipients", nil)
	}
	start := time.Now()
	frame, err := ecies.EncryptMulti(recipients, plaintext, withChecksum)
	s.recordEncrypt("multi", start, len(plaintext), err)
	return frame, err
}

// DecryptMulti decrypts a multi-recipient frame for recipientID.
func (s *Service) DecryptMulti(recipientID []byte, recipientPriv *btcec.PrivateKey, frame []byte) ([]byte, error) {
	start := time.Now()
	plaintext, err := ecies.DecryptMulti(recipientID, recipientPriv, frame, s.constants.MemberIDLength())
	s.recordDecrypt("multi", start, len(plaintext), err)
	return plaintext, err
}

// NewEncryptStream opens a chunked encryption stream for recipients,
// using the Service's default chunk size unless maxChunkSize overrides it.
func (s *Service) NewEncryptStream(recipients []Recipient, maxChunkSize int, withChecksum bool) (*EncryptStream, []byte, error) {
	if maxChunkSize <= 0 {
		maxChunkSize = s.constants.ChunkSizeDefault
	}
	stream, header, err := ecies.NewEncryptStream(recipients, maxChunkSize, withChecksum)
	if err == nil {
		s.metrics.RecordStreamOpen()
	}
	return stream, header, err
}

// EncryptChunk encrypts one chunk on stream, recording stream metrics.
func (s *Service) EncryptChunk(ctx context.Context, stream *EncryptStream, plaintext []byte) ([]byte, Progress, error) {
	chunk, progress, err := stream.EncryptChunk(ctx, plaintext)
	if err != nil {
		if ctx.Err() != nil {
			s.metrics.RecordStreamCancellation()
		} else {
			s.metrics.RecordStreamChunkError("encrypt")
		}
		return chunk, progress, err
	}
	s.metrics.RecordStreamChunkSent()
	return chunk, progress, nil
}

// OpenDecryptStream opens a chunked decryption stream bound to recipientID.
func (s *Service) OpenDecryptStream(recipientID []byte, recipientPriv *btcec.PrivateKey, header []byte, withChecksum bool) (*DecryptStream, int, error) {
	stream, n, err := ecies.OpenDecryptStream(recipientID, recipientPriv, header, s.constants.MemberIDLength(), withChecksum)
	if err == nil {
		s.metrics.RecordStreamOpen()
	}
	return stream, n, err
}

// DecryptChunk decrypts one chunk from stream, recording stream metrics.
func (s *Service) DecryptChunk(ctx context.Context, stream *DecryptStream, chunk []byte) ([]byte, Progress, error) {
	plaintext, progress, err := stream.DecryptChunk(ctx, chunk)
	if err != nil {
		if ctx.Err() != nil {
			s.metrics.RecordStreamCancellation()
		} else {
			s.metrics.RecordStreamChunkError("decrypt")
		}
		return plaintext, progress, err
	}
	s.metrics.RecordStreamChunkReceived()
	return plaintext, progress, nil
}

// NewPoll constructs a ballot poll bound to authority's Paillier public
// key under this Service's configuration.
func (s *Service) NewPoll(id []byte, choices []string, vmethod VotingMethod, authorityID []byte, authorityPub *paillier.PublicKey, maxWeight int64, allowInsecure bool, supermajorityNumerator, supermajorityDenominator int64) (*Poll, error) {
	poll, err := vote.NewPoll(id, choices, vmethod, authorityID, authorityPub, maxWeight, allowInsecure, supermajorityNumerator, supermajorityDenominator)
	if err == nil {
		s.metrics.RecordPollCreated()
	}
	return poll, err
}

// NewPollTallier binds a tallier to the authority's Paillier private key.
func (s *Service) NewPollTallier(priv *paillier.PrivateKey) *PollTallier {
	return vote.NewPollTallier(priv)
}

// Tally computes poll's result and records tally metrics.
func (s *Service) Tally(tallier *PollTallier, poll *Poll) (*TallyResult, error) {
	start := time.Now()
	result, err := tallier.Tally(poll)
	elapsed := time.Since(start).Seconds()
	if err == nil {
		s.metrics.RecordTally(poll.Method.String(), elapsed, len(result.Rounds))
	}
	return result, err
}

func (s *Service) recordEncrypt(mode string, start time.Time, n int, err error) {
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.logger.Warn("encrypt failed", "mode", mode)
		return
	}
	s.metrics.RecordEncrypt(mode, elapsed, n)
}

func (s *Service) recordDecrypt(mode string, start time.Time, n int, err error) {
	elapsed := time.Since(start).Seconds()
	if err != nil {
		s.metrics.RecordDecryptFailure(mode)
		return
	}
	s.metrics.RecordDecrypt(mode, elapsed, n)
}
