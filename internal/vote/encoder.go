package vote

import (
	"math/big"

	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/paillier"
)

// Ballot is the plaintext voter intent before encoding, discriminated by
// the poll's method (spec §3's EncryptedVote "carries one of" fields).
type Ballot struct {
	ChoiceIndex int
	Choices     []int
	Rankings    []int
	Weight      int64
	Score       int64

	// Scores holds one score per candidate, used only by STAR, where the
	// tallier needs every candidate's score rather than a single choice.
	Scores []int64
}

// EncryptedVote is the encoded, encrypted form of a ballot: one Paillier
// ciphertext per candidate slot, plus — only for methods explicitly
// marked insecure — a plaintext shadow (spec §3).
type EncryptedVote struct {
	Method      Method
	Ciphertexts []*big.Int

	// PlaintextShadow holds the ballot's un-encrypted intent for
	// Insecure methods that cannot be realised additively; nil for
	// every other method.
	PlaintextShadow *Ballot
}

// VoteEncoder turns a validated ballot into Paillier ciphertexts, one per
// candidate slot, per the per-method encoding rules of spec §4.8.
type VoteEncoder struct {
	pub           *paillier.PublicKey
	numChoices    int
	maxWeight     int64
	allowInsecure bool
}

// NewVoteEncoder constructs an encoder bound to a fixed candidate count
// and the authority's public key. maxWeight <= 0 is accepted here (the
// Open Question in spec §9); every Weighted ballot later encoded against
// it is rejected with WeightMustBePositive.
func NewVoteEncoder(pub *paillier.PublicKey, numChoices int, maxWeight int64, allowInsecure bool) (*VoteEncoder, error) {
	if numChoices < 2 {
		return nil, errs.New(errs.CodeTooFewChoices, "errors.tooFewChoices", nil)
	}
	return &VoteEncoder{pub: pub, numChoices: numChoices, maxWeight: maxWeight, allowInsecure: allowInsecure}, nil
}

// Encode validates ballot against method's rules and produces the
// corresponding EncryptedVote.
func (e *VoteEncoder) Encode(method Method, ballot Ballot) (*EncryptedVote, error) {
	if method.IsInsecure() && !e.allowInsecure {
		return nil, errs.New(errs.CodeInsecureMethodNotAllowed, "errors.insecureMethodNotAllowed", nil)
	}

	switch method {
	case Plurality:
		return e.encodePlurality(ballot)
	case Approval:
		return e.encodeApproval(ballot)
	case Weighted:
		return e.encodeWeighted(ballot)
	case Borda:
		return e.encodeBorda(ballot)
	case Score:
		return e.encodeScore(ballot)
	case YesNo, YesNoAbstain, Supermajority:
		return e.encodeYesNo(method, ballot)
	case TwoRound:
		// TwoRound's first round is a plain plurality choice; the
		// runoff round is computed by the tallier from the closed
		// ballot set, not re-encoded by the voter.
		return e.encodePlurality(ballot)
	case RankedChoice, STV:
		return e.encodeRanking(method, ballot)
	case STAR:
		return e.encodeStarScores(ballot)
	case Quadratic, Consensus, ConsentBased:
		return e.encodeInsecure(method, ballot)
	default:
		return nil, errs.New(errs.CodeInvalidVotingMethod, "errors.invalidVotingMethod", nil)
	}
}

func (e *VoteEncoder) validateChoiceIndex(i int) error {
	if i < 0 || i >= e.numChoices {
		return errs.New(errs.CodeInvalidChoice, "errors.invalidChoice", nil)
	}
	return nil
}

func (e *VoteEncoder) encodePlurality(ballot Ballot) (*EncryptedVote, error) {
	if err := e.validateChoiceIndex(ballot.ChoiceIndex); err != nil {
		return nil, err
	}
	cts, err := e.oneHot(ballot.ChoiceIndex, 1)
	if err != nil {
		return nil, err
	}
	return &EncryptedVote{Method: Plurality, Ciphertexts: cts}, nil
}

func (e *VoteEncoder) encodeApproval(ballot Ballot) (*EncryptedVote, error) {
	if len(ballot.Choices) == 0 {
		return nil, errs.New(errs.CodeInvalidChoice, "errors.invalidChoice", nil)
	}
	approved := make(map[int]bool, len(ballot.Choices))
	for _, c := range ballot.Choices {
		if err := e.validateChoiceIndex(c); err != nil {
			return nil, err
		}
		approved[c] = true
	}
	cts := make([]*big.Int, e.numChoices)
	for i := 0; i < e.numChoices; i++ {
		v := int64(0)
		if approved[i] {
			v = 1
		}
		c, err := paillier.EncryptInt64(e.pub, v)
		if err != nil {
			return nil, err
		}
		cts[i] = c
	}
	return &EncryptedVote{Method: Approval, Ciphertexts: cts}, nil
}

func (e *VoteEncoder) encodeWeighted(ballot Ballot) (*EncryptedVote, error) {
	if err := e.validateChoiceIndex(ballot.ChoiceIndex); err != nil {
		return nil, err
	}
	if ballot.Weight <= 0 || e.maxWeight <= 0 {
		return nil, errs.New(errs.CodeWeightMustBePositive, "errors.weightMustBePositive", nil)
	}
	if e.maxWeight > 0 && ballot.Weight > e.maxWeight {
		return nil, errs.New(errs.CodeWeightExceedsMaximum, "errors.weightExceedsMaximum", nil)
	}
	cts, err := e.oneHot(ballot.ChoiceIndex, ballot.Weight)
	if err != nil {
		return nil, err
	}
	return &EncryptedVote{Method: Weighted, Ciphertexts: cts}, nil
}

func (e *VoteEncoder) encodeBorda(ballot Ballot) (*EncryptedVote, error) {
	if len(ballot.Rankings) != e.numChoices {
		return nil, errs.New(errs.CodeInvalidChoice, "errors.invalidChoice", nil)
	}
	seen := make(map[int]bool, len(ballot.Rankings))
	for _, r := range ballot.Rankings {
		if err := e.validateChoiceIndex(r); err != nil {
			return nil, err
		}
		if seen[r] {
			return nil, errs.New(errs.CodeDuplicateRanking, "errors.duplicateRanking", nil)
		}
		seen[r] = true
	}

	k := e.numChoices
	cts := make([]*big.Int, k)
	for j, candidate := range ballot.Rankings {
		points := int64(k - 1 - j)
		c, err := paillier.EncryptInt64(e.pub, points)
		if err != nil {
			return nil, err
		}
		cts[candidate] = c
	}
	return &EncryptedVote{Method: Borda, Ciphertexts: cts}, nil
}

func (e *VoteEncoder) encodeScore(ballot Ballot) (*EncryptedVote, error) {
	if err := e.validateChoiceIndex(ballot.ChoiceIndex); err != nil {
		return nil, err
	}
	if ballot.Score < 0 || ballot.Score > 10 {
		return nil, errs.New(errs.CodeInvalidChoice, "errors.invalidChoice", nil)
	}
	cts, err := e.oneHot(ballot.ChoiceIndex, ballot.Score)
	if err != nil {
		return nil, err
	}
	return &EncryptedVote{Method: Score, Ciphertexts: cts}, nil
}

// encodeRanking stores, at ciphertext slot c, the preference position of
// candidate c within the ballot's ranking (0 = favourite), so the
// tallier can decrypt a voter's current first preference each round
// without learning unranked candidates' relative order (spec §4.9's
// IRV/STV per-round first-preference decryption).
func (e *VoteEncoder) encodeRanking(method Method, ballot Ballot) (*EncryptedVote, error) {
	if len(ballot.Rankings) != e.numChoices {
		return nil, errs.New(errs.CodeInvalidChoice, "errors.invalidChoice", nil)
	}
	seen := make(map[int]bool, len(ballot.Rankings))
	for _, r := range ballot.Rankings {
		if err := e.validateChoiceIndex(r); err != nil {
			return nil, err
		}
		if seen[r] {
			return nil, errs.New(errs.CodeDuplicateRanking, "errors.duplicateRanking", nil)
		}
		seen[r] = true
	}

	cts := make([]*big.Int, e.numChoices)
	for position, candidate := range ballot.Rankings {
		c, err := paillier.EncryptInt64(e.pub, int64(position))
		if err != nil {
			return nil, err
		}
		cts[candidate] = c
	}
	return &EncryptedVote{Method: method, Ciphertexts: cts}, nil
}

// encodeStarScores stores one encrypted score per candidate, the shape
// STAR's score round and preference-based runoff both read from.
func (e *VoteEncoder) encodeStarScores(ballot Ballot) (*EncryptedVote, error) {
	if len(ballot.Scores) != e.numChoices {
		return nil, errs.New(errs.CodeInvalidChoice, "errors.invalidChoice", nil)
	}
	cts := make([]*big.Int, e.numChoices)
	for i, score := range ballot.Scores {
		if score < 0 || score > 10 {
			return nil, errs.New(errs.CodeInvalidChoice, "errors.invalidChoice", nil)
		}
		c, err := paillier.EncryptInt64(e.pub, score)
		if err != nil {
			return nil, err
		}
		cts[i] = c
	}
	return &EncryptedVote{Method: STAR, Ciphertexts: cts}, nil
}

func (e *VoteEncoder) encodeYesNo(method Method, ballot Ballot) (*EncryptedVote, error) {
	if err := e.validateChoiceIndex(ballot.ChoiceIndex); err != nil {
		return nil, err
	}
	cts, err := e.oneHot(ballot.ChoiceIndex, 1)
	if err != nil {
		return nil, err
	}
	return &EncryptedVote{Method: method, Ciphertexts: cts}, nil
}

func (e *VoteEncoder) encodeInsecure(method Method, ballot Ballot) (*EncryptedVote, error) {
	if err := e.validateChoiceIndex(ballot.ChoiceIndex); err != nil {
		return nil, err
	}
	cts, err := e.oneHot(ballot.ChoiceIndex, 1)
	if err != nil {
		return nil, err
	}
	shadow := ballot
	return &EncryptedVote{Method: method, Ciphertexts: cts, PlaintextShadow: &shadow}, nil
}

// oneHot encrypts a length-k vector with value at index i and zero
// elsewhere (Plurality/Weighted/Score/YesNo's shared shape).
func (e *VoteEncoder) oneHot(i int, value int64) ([]*big.Int, error) {
	cts := make([]*big.Int, e.numChoices)
	for j := 0; j < e.numChoices; j++ {
		v := int64(0)
		if j == i {
			v = value
		}
		c, err := paillier.EncryptInt64(e.pub, v)
		if err != nil {
			return nil, err
		}
		cts[j] = c
	}
	return cts, nil
}
