package vote

import (
	"errors"
	"testing"

	"github.com/digital-defiance/ecies-lib/internal/errs"
)

func TestEncodePlurality_OneHot(t *testing.T) {
	kp := testKeyPair(t)
	enc, err := NewVoteEncoder(kp.Public, 3, 0, false)
	if err != nil {
		t.Fatalf("NewVoteEncoder() error = %v", err)
	}

	vote, err := enc.Encode(Plurality, Ballot{ChoiceIndex: 1})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(vote.Ciphertexts) != 3 {
		t.Fatalf("len(Ciphertexts) = %d, want 3", len(vote.Ciphertexts))
	}
}

func TestEncodePlurality_RejectsOutOfRangeChoice(t *testing.T) {
	kp := testKeyPair(t)
	enc, _ := NewVoteEncoder(kp.Public, 3, 0, false)

	_, err := enc.Encode(Plurality, Ballot{ChoiceIndex: 5})
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeInvalidChoice {
		t.Fatalf("Encode() error = %v, want CodeInvalidChoice", err)
	}
}

func TestEncodeApproval_RejectsEmptyChoices(t *testing.T) {
	kp := testKeyPair(t)
	enc, _ := NewVoteEncoder(kp.Public, 3, 0, false)

	_, err := enc.Encode(Approval, Ballot{})
	if err == nil {
		t.Error("Encode() with no approved choices did not error")
	}
}

func TestEncodeApproval_AcceptsMultipleChoices(t *testing.T) {
	kp := testKeyPair(t)
	enc, _ := NewVoteEncoder(kp.Public, 3, 0, false)

	vote, err := enc.Encode(Approval, Ballot{Choices: []int{0, 2}})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(vote.Ciphertexts) != 3 {
		t.Fatalf("len(Ciphertexts) = %d, want 3", len(vote.Ciphertexts))
	}
}

func TestEncodeWeighted_RejectsNonPositiveWeight(t *testing.T) {
	kp := testKeyPair(t)
	enc, _ := NewVoteEncoder(kp.Public, 3, 10, false)

	_, err := enc.Encode(Weighted, Ballot{ChoiceIndex: 0, Weight: 0})
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeWeightMustBePositive {
		t.Fatalf("Encode() error = %v, want CodeWeightMustBePositive", err)
	}
}

func TestEncodeWeighted_RejectsWeightAboveMaximum(t *testing.T) {
	kp := testKeyPair(t)
	enc, _ := NewVoteEncoder(kp.Public, 3, 10, false)

	_, err := enc.Encode(Weighted, Ballot{ChoiceIndex: 0, Weight: 11})
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeWeightExceedsMaximum {
		t.Fatalf("Encode() error = %v, want CodeWeightExceedsMaximum", err)
	}
}

func TestEncodeBorda_RejectsDuplicateRanking(t *testing.T) {
	kp := testKeyPair(t)
	enc, _ := NewVoteEncoder(kp.Public, 3, 0, false)

	_, err := enc.Encode(Borda, Ballot{Rankings: []int{0, 0, 1}})
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeDuplicateRanking {
		t.Fatalf("Encode() error = %v, want CodeDuplicateRanking", err)
	}
}

func TestEncodeScore_RejectsOutOfRangeScore(t *testing.T) {
	kp := testKeyPair(t)
	enc, _ := NewVoteEncoder(kp.Public, 3, 0, false)

	_, err := enc.Encode(Score, Ballot{ChoiceIndex: 0, Score: 11})
	if err == nil {
		t.Error("Encode() with score > 10 did not error")
	}
}

func TestEncode_RejectsInsecureMethodWithoutOptIn(t *testing.T) {
	kp := testKeyPair(t)
	enc, _ := NewVoteEncoder(kp.Public, 3, 0, false)

	_, err := enc.Encode(Quadratic, Ballot{ChoiceIndex: 0})
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeInsecureMethodNotAllowed {
		t.Fatalf("Encode() error = %v, want CodeInsecureMethodNotAllowed", err)
	}
}

func TestEncode_AllowsInsecureMethodWithOptInAndAttachesShadow(t *testing.T) {
	kp := testKeyPair(t)
	enc, _ := NewVoteEncoder(kp.Public, 3, 0, true)

	vote, err := enc.Encode(Quadratic, Ballot{ChoiceIndex: 1})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if vote.PlaintextShadow == nil {
		t.Error("Encode() for an insecure method did not attach a plaintext shadow")
	}
}

func TestNewVoteEncoder_RejectsTooFewChoices(t *testing.T) {
	kp := testKeyPair(t)
	_, err := NewVoteEncoder(kp.Public, 1, 0, false)
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeTooFewChoices {
		t.Fatalf("NewVoteEncoder() error = %v, want CodeTooFewChoices", err)
	}
}
