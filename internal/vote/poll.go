package vote

import (
	"crypto/sha256"
	"sync"
	"time"

	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/paillier"
)

// AuditEventType names an append-only audit log entry kind (spec §4.9).
type AuditEventType string

const (
	EventPollCreated   AuditEventType = "poll_created"
	EventVoteCast      AuditEventType = "vote_cast"
	EventPollClosed    AuditEventType = "poll_closed"
	EventTallyComputed AuditEventType = "tally_computed"
)

// AuditEntry is one immutable, sequence-numbered line of a poll's audit
// log. PayloadHash is SHA-256 over whatever payload produced the event
// (an encrypted vote's canonical bytes, the tally result, etc.) so the
// log records provenance without duplicating ciphertext.
type AuditEntry struct {
	Seq         uint64
	Timestamp   time.Time
	EventType   AuditEventType
	ActorID     []byte
	PayloadHash [32]byte
}

// Poll is a single verifiable-ballot election: an open set of candidate
// choices under one voting method, tallied homomorphically under the
// authority's Paillier key once closed (spec §3, §4.9).
type Poll struct {
	mu sync.Mutex

	ID                        []byte
	Choices                   []string
	Method                    Method
	AuthorityID               []byte
	AuthorityPaillierPublicKey *paillier.PublicKey
	MaxWeight                 int64
	AllowInsecure             bool

	// SupermajorityNumerator/Denominator define the fractional threshold
	// `winnerTally · denominator >= (Σ tallies) · numerator` a
	// Supermajority poll's winner must clear (spec §4.9). Unused by
	// every other method.
	SupermajorityNumerator   int64
	SupermajorityDenominator int64

	IsClosed  bool
	CreatedAt time.Time
	ClosedAt  time.Time

	voterOrder []string
	votes      map[string]*EncryptedVote
	receipts   map[string]*Receipt
	auditLog   []AuditEntry
}

// NewPoll constructs an open poll. maxWeight <= 0 is accepted here; every
// Weighted vote later encoded against it is rejected with
// WeightMustBePositive, per the Open Question decision recorded in
// DESIGN.md.
func NewPoll(id []byte, choices []string, method Method, authorityID []byte, authorityPub *paillier.PublicKey, maxWeight int64, allowInsecure bool, supermajorityNumerator, supermajorityDenominator int64) (*Poll, error) {
	if len(choices) < 2 {
		return nil, errs.New(errs.CodeTooFewChoices, "errors.tooFewChoices", nil)
	}
	if method.IsInsecure() && !allowInsecure {
		return nil, errs.New(errs.CodeInsecureMethodNotAllowed, "errors.insecureMethodNotAllowed", nil)
	}
	if method == Supermajority && supermajorityDenominator <= 0 {
		supermajorityNumerator, supermajorityDenominator = 1, 2
	}

	p := &Poll{
		ID:                         id,
		Choices:                    choices,
		Method:                     method,
		AuthorityID:                authorityID,
		AuthorityPaillierPublicKey: authorityPub,
		MaxWeight:                  maxWeight,
		AllowInsecure:              allowInsecure,
		SupermajorityNumerator:     supermajorityNumerator,
		SupermajorityDenominator:   supermajorityDenominator,
		CreatedAt:                  time.Now(),
		votes:                      make(map[string]*EncryptedVote),
		receipts:                   make(map[string]*Receipt),
	}
	p.appendAudit(EventPollCreated, authorityID, id)
	return p, nil
}

// voterKey renders a voter id to a comparable map key.
func voterKey(voterID []byte) string {
	return string(voterID)
}

// CastVote records voterID's encrypted vote, rejecting a second vote
// from the same voter and any vote after the poll closes (spec §4.9's
// "one vote per voter" and "frozen after closure" invariants).
func (p *Poll) CastVote(voterID []byte, vote *EncryptedVote) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.IsClosed {
		return errs.New(errs.CodePollClosed, "errors.pollClosed", nil)
	}
	key := voterKey(voterID)
	if _, exists := p.votes[key]; exists {
		return errs.New(errs.CodeAlreadyVoted, "errors.alreadyVoted", nil)
	}

	p.voterOrder = append(p.voterOrder, key)
	p.votes[key] = vote
	p.appendAudit(EventVoteCast, voterID, canonicalVoteBytes(vote))
	return nil
}

// AttachReceipt records the signed receipt issued for voterID's vote.
func (p *Poll) AttachReceipt(voterID []byte, r *Receipt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.receipts[voterKey(voterID)] = r
}

// Receipt returns the receipt issued to voterID, if any.
func (p *Poll) Receipt(voterID []byte) (*Receipt, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.receipts[voterKey(voterID)]
	return r, ok
}

// Close freezes the poll: no further votes may be cast, and the vote
// snapshot used by a PollTallier becomes immutable (spec §4.9).
func (p *Poll) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.IsClosed {
		return errs.New(errs.CodeAlreadyClosed, "errors.alreadyClosed", nil)
	}
	p.IsClosed = true
	p.ClosedAt = time.Now()
	p.appendAudit(EventPollClosed, p.AuthorityID, p.ID)
	return nil
}

// Votes returns a frozen, insertion-ordered snapshot of cast votes. It
// may only be called once the poll is closed.
func (p *Poll) Votes() ([]*EncryptedVote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.IsClosed {
		return nil, errs.New(errs.CodeNotClosed, "errors.notClosed", nil)
	}
	out := make([]*EncryptedVote, 0, len(p.voterOrder))
	for _, key := range p.voterOrder {
		out = append(out, p.votes[key])
	}
	return out, nil
}

// AuditLog returns a copy of the poll's append-only audit log.
func (p *Poll) AuditLog() []AuditEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]AuditEntry, len(p.auditLog))
	copy(out, p.auditLog)
	return out
}

// RecordTallyComputed appends a tally_computed audit entry; called by a
// PollTallier once it has produced a result for this poll.
func (p *Poll) RecordTallyComputed(payload []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appendAudit(EventTallyComputed, p.AuthorityID, payload)
}

// appendAudit must be called with mu held. The audit log is append-only:
// nothing in this package ever mutates or removes an existing entry.
func (p *Poll) appendAudit(eventType AuditEventType, actorID []byte, payload []byte) {
	p.auditLog = append(p.auditLog, AuditEntry{
		Seq:         uint64(len(p.auditLog)),
		Timestamp:   time.Now(),
		EventType:   eventType,
		ActorID:     actorID,
		PayloadHash: sha256.Sum256(payload),
	})
}

// canonicalVoteBytes renders an EncryptedVote's ciphertexts into a
// deterministic byte form for audit hashing and receipt transcripts.
func canonicalVoteBytes(v *EncryptedVote) []byte {
	var out []byte
	for _, c := range v.Ciphertexts {
		out = append(out, c.Bytes()...)
		out = append(out, 0) // separator, since ciphertext byte lengths vary
	}
	return out
}
