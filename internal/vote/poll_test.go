package vote

import (
	"errors"
	"testing"

	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/paillier"
)

func TestNewPoll_RejectsTooFewChoices(t *testing.T) {
	kp := testKeyPair(t)
	_, err := NewPoll([]byte("poll"), []string{"only-one"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeTooFewChoices {
		t.Fatalf("NewPoll() error = %v, want CodeTooFewChoices", err)
	}
}

func TestNewPoll_RejectsInsecureMethodWithoutOptIn(t *testing.T) {
	kp := testKeyPair(t)
	_, err := NewPoll([]byte("poll"), []string{"a", "b"}, Quadratic, []byte("authority"), kp.Public, 0, false, 0, 0)
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeInsecureMethodNotAllowed {
		t.Fatalf("NewPoll() error = %v, want CodeInsecureMethodNotAllowed", err)
	}
}

func TestNewPoll_RecordsCreationAuditEvent(t *testing.T) {
	kp := testKeyPair(t)
	poll, err := NewPoll([]byte("poll"), []string{"a", "b"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)
	if err != nil {
		t.Fatalf("NewPoll() error = %v", err)
	}
	log := poll.AuditLog()
	if len(log) != 1 || log[0].EventType != EventPollCreated {
		t.Fatalf("AuditLog() = %+v, want one poll_created entry", log)
	}
}

func castPlurality(t *testing.T, poll *Poll, kp *paillier.KeyPair, voterID []byte, choice int) *EncryptedVote {
	t.Helper()
	enc, err := NewVoteEncoder(kp.Public, len(poll.Choices), 0, poll.AllowInsecure)
	if err != nil {
		t.Fatalf("NewVoteEncoder() error = %v", err)
	}
	vote, err := enc.Encode(poll.Method, Ballot{ChoiceIndex: choice})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := poll.CastVote(voterID, vote); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
	return vote
}

func TestCastVote_RejectsSecondVoteFromSameVoter(t *testing.T) {
	kp := testKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)

	castPlurality(t, poll, kp, []byte("voter-1"), 0)

	enc, _ := NewVoteEncoder(kp.Public, 2, 0, false)
	vote, _ := enc.Encode(Plurality, Ballot{ChoiceIndex: 1})
	err := poll.CastVote([]byte("voter-1"), vote)
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeAlreadyVoted {
		t.Fatalf("CastVote() second time error = %v, want CodeAlreadyVoted", err)
	}
}

func TestCastVote_RejectsAfterClose(t *testing.T) {
	kp := testKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	enc, _ := NewVoteEncoder(kp.Public, 2, 0, false)
	vote, _ := enc.Encode(Plurality, Ballot{ChoiceIndex: 0})
	err := poll.CastVote([]byte("voter-1"), vote)
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodePollClosed {
		t.Fatalf("CastVote() after close error = %v, want CodePollClosed", err)
	}
}

func TestClose_RejectsDoubleClose(t *testing.T) {
	kp := testKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	err := poll.Close()
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeAlreadyClosed {
		t.Fatalf("second Close() error = %v, want CodeAlreadyClosed", err)
	}
}

func TestVotes_RejectsBeforeClose(t *testing.T) {
	kp := testKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)
	_, err := poll.Votes()
	var e *errs.Error
	if !errors.As(err, &e) || e.Code != errs.CodeNotClosed {
		t.Fatalf("Votes() before close error = %v, want CodeNotClosed", err)
	}
}

func TestVotes_PreservesInsertionOrder(t *testing.T) {
	kp := testKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b", "c"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)

	castPlurality(t, poll, kp, []byte("voter-1"), 0)
	castPlurality(t, poll, kp, []byte("voter-2"), 1)
	castPlurality(t, poll, kp, []byte("voter-3"), 2)

	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	votes, err := poll.Votes()
	if err != nil {
		t.Fatalf("Votes() error = %v", err)
	}
	if len(votes) != 3 {
		t.Fatalf("len(Votes()) = %d, want 3", len(votes))
	}
}

func TestAuditLog_IsStrictlyMonotonicBySeq(t *testing.T) {
	kp := testKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)
	castPlurality(t, poll, kp, []byte("voter-1"), 0)
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	log := poll.AuditLog()
	for i, entry := range log {
		if entry.Seq != uint64(i) {
			t.Fatalf("AuditLog()[%d].Seq = %d, want %d", i, entry.Seq, i)
		}
	}
}
