package vote

import (
	"testing"

	"github.com/digital-defiance/ecies-lib/internal/paillier"
)

func authorityKeyPair(t *testing.T) *paillier.KeyPair {
	t.Helper()
	return testKeyPair(t)
}

func castChoice(t *testing.T, poll *Poll, pub *paillier.PublicKey, voterID []byte, choice int) {
	t.Helper()
	enc, err := NewVoteEncoder(pub, len(poll.Choices), poll.MaxWeight, poll.AllowInsecure)
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
}

func TestTally_Plurality_SingleWinner(t *testing.T) {
	kp := authorityKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b", "c"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)
	castChoice(t, poll, kp.Public, []byte("v1"), 0)
	castChoice(t, poll, kp.Public, []byte("v2"), 0)
	castChoice(t, poll, kp.Public, []byte("v3"), 1)
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tallier := NewPollTallier(kp.Private)
	result, err := tallier.Tally(poll)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if result.Winner != 0 || len(result.Winners) != 0 {
		t.Fatalf("Tally() = %+v, want single winner 0", result)
	}
}

func TestTally_Plurality_TieYieldsNoSingleWinner(t *testing.T) {
	kp := authorityKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)
	castChoice(t, poll, kp.Public, []byte("v1"), 0)
	castChoice(t, poll, kp.Public, []byte("v2"), 1)
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tallier := NewPollTallier(kp.Private)
	result, err := tallier.Tally(poll)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if len(result.Winners) != 2 {
		t.Fatalf("Tally() Winners = %v, want a two-way tie", result.Winners)
	}
}

func TestTally_EmptyPoll_YieldsAllZeroTallies(t *testing.T) {
	kp := authorityKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tallier := NewPollTallier(kp.Private)
	result, err := tallier.Tally(poll)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	for i, v := range result.Tallies {
		if v != 0 {
			t.Fatalf("Tallies[%d] = %d, want 0 for an empty poll", i, v)
		}
	}
}

func TestTally_RejectsBeforeClose(t *testing.T) {
	kp := authorityKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b"}, Plurality, []byte("authority"), kp.Public, 0, false, 0, 0)
	tallier := NewPollTallier(kp.Private)
	if _, err := tallier.Tally(poll); err == nil {
		t.Error("Tally() on an open poll did not error")
	}
}

func TestTally_Supermajority_RequiresThreshold(t *testing.T) {
	kp := authorityKeyPair(t)
	// two-thirds threshold: numerator=2, denominator=3
	poll, _ := NewPoll([]byte("poll"), []string{"yes", "no"}, Supermajority, []byte("authority"), kp.Public, 0, false, 2, 3)
	castChoice(t, poll, kp.Public, []byte("v1"), 0)
	castChoice(t, poll, kp.Public, []byte("v2"), 0)
	castChoice(t, poll, kp.Public, []byte("v3"), 1)
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tallier := NewPollTallier(kp.Private)
	result, err := tallier.Tally(poll)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	// 2/3 tallies for "yes" exactly meets a 2/3 threshold
	if len(result.Winners) != 0 || result.Winner != 0 {
		t.Fatalf("Tally() = %+v, want yes to clear the 2/3 supermajority", result)
	}
}

func TestTally_Supermajority_FailingThresholdYieldsNoWinner(t *testing.T) {
	kp := authorityKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"yes", "no"}, Supermajority, []byte("authority"), kp.Public, 0, false, 9, 10)
	castChoice(t, poll, kp.Public, []byte("v1"), 0)
	castChoice(t, poll, kp.Public, []byte("v2"), 0)
	castChoice(t, poll, kp.Public, []byte("v3"), 1)
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tallier := NewPollTallier(kp.Private)
	result, err := tallier.Tally(poll)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if len(result.Winners) != 0 {
		t.Fatalf("Tally() Winners = %v, want none under a 9/10 supermajority", result.Winners)
	}
}

func castRanking(t *testing.T, poll *Poll, pub *paillier.PublicKey, voterID []byte, rankings []int) {
	t.Helper()
	enc, err := NewVoteEncoder(pub, len(poll.Choices), 0, false)
	if err != nil {
		t.Fatalf("NewVoteEncoder() error = %v", err)
	}
	vote, err := enc.Encode(poll.Method, Ballot{Rankings: rankings})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := poll.CastVote(voterID, vote); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
}

func TestTally_IRV_EliminatesLowestAndRedistributes(t *testing.T) {
	kp := authorityKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b", "c"}, RankedChoice, []byte("authority"), kp.Public, 0, false, 0, 0)

	// spec §8 scenario 6: 5 voters, 3 candidates.
	castRanking(t, poll, kp.Public, []byte("v1"), []int{0, 1, 2})
	castRanking(t, poll, kp.Public, []byte("v2"), []int{1, 0, 2})
	castRanking(t, poll, kp.Public, []byte("v3"), []int{2, 1, 0})
	castRanking(t, poll, kp.Public, []byte("v4"), []int{0, 2, 1})
	castRanking(t, poll, kp.Public, []byte("v5"), []int{1, 2, 0})
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tallier := NewPollTallier(kp.Private)
	result, err := tallier.Tally(poll)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if len(result.Rounds) == 0 {
		t.Fatal("Tally() produced no rounds")
	}
	if result.Rounds[0].Tallies[0] != 2 || result.Rounds[0].Tallies[1] != 2 || result.Rounds[0].Tallies[2] != 1 {
		t.Fatalf("Round 1 tallies = %v, want [2,2,1]", result.Rounds[0].Tallies)
	}
	if len(result.Rounds[0].Eliminated) != 1 || result.Rounds[0].Eliminated[0] != 2 {
		t.Fatalf("Round 1 eliminated = %v, want [2]", result.Rounds[0].Eliminated)
	}
	if result.Winner != 1 {
		t.Fatalf("Tally() winner = %d, want 1", result.Winner)
	}
}

func TestTally_TwoRound_RunoffAmongTopTwo(t *testing.T) {
	kp := authorityKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b", "c"}, TwoRound, []byte("authority"), kp.Public, 0, false, 0, 0)
	castChoice(t, poll, kp.Public, []byte("v1"), 0)
	castChoice(t, poll, kp.Public, []byte("v2"), 0)
	castChoice(t, poll, kp.Public, []byte("v3"), 1)
	castChoice(t, poll, kp.Public, []byte("v4"), 1)
	castChoice(t, poll, kp.Public, []byte("v5"), 2)
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tallier := NewPollTallier(kp.Private)
	result, err := tallier.Tally(poll)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if len(result.Rounds) != 2 {
		t.Fatalf("Tally() Rounds = %d, want 2 (no first-round majority)", len(result.Rounds))
	}
}

func castScores(t *testing.T, poll *Poll, pub *paillier.PublicKey, voterID []byte, scores []int64) {
	t.Helper()
	enc, err := NewVoteEncoder(pub, len(poll.Choices), 0, false)
	if err != nil {
		t.Fatalf("NewVoteEncoder() error = %v", err)
	}
	vote, err := enc.Encode(poll.Method, Ballot{Scores: scores})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if err := poll.CastVote(voterID, vote); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
}

func TestTally_STAR_RunoffByPreference(t *testing.T) {
	kp := authorityKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b", "c"}, STAR, []byte("authority"), kp.Public, 0, false, 0, 0)
	castScores(t, poll, kp.Public, []byte("v1"), []int64{5, 3, 0})
	castScores(t, poll, kp.Public, []byte("v2"), []int64{4, 5, 1})
	castScores(t, poll, kp.Public, []byte("v3"), []int64{5, 2, 0})
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tallier := NewPollTallier(kp.Private)
	result, err := tallier.Tally(poll)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if len(result.Rounds) != 2 {
		t.Fatalf("Tally() Rounds = %d, want 2 (score round + runoff)", len(result.Rounds))
	}
	if len(result.Winners) != 1 || result.Winner != 0 {
		t.Fatalf("Tally() = %+v, want candidate 0 to win the runoff", result)
	}
}

func TestTally_STV_ElectsToQuota(t *testing.T) {
	kp := authorityKeyPair(t)
	poll, _ := NewPoll([]byte("poll"), []string{"a", "b", "c"}, STV, []byte("authority"), kp.Public, 0, false, 0, 0)
	castRanking(t, poll, kp.Public, []byte("v1"), []int{0, 1, 2})
	castRanking(t, poll, kp.Public, []byte("v2"), []int{0, 2, 1})
	castRanking(t, poll, kp.Public, []byte("v3"), []int{1, 0, 2})
	if err := poll.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	tallier := NewPollTallier(kp.Private)
	result, err := tallier.Tally(poll)
	if err != nil {
		t.Fatalf("Tally() error = %v", err)
	}
	if len(result.Winners) == 0 {
		t.Fatal("Tally() elected no one")
	}
}
