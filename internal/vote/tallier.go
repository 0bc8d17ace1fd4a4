package vote

import (
	"math/big"

	"github.com/digital-defiance/ecies-lib/internal/errs"
	"github.com/digital-defiance/ecies-lib/internal/paillier"
)

// RoundResult records one round of a MultiRound tally (spec §4.9's
// "Emit rounds[] with tallies and eliminations").
type RoundResult struct {
	Tallies     []int64
	Eliminated  []int
	Elected     []int
	SurplusNote string
}

// Result is a completed tally. For fully homomorphic methods a single
// winner sets Winner and leaves Winners empty; a tie instead populates
// Winners with every tied index and leaves Winner unset (spec §4.9: a
// unique winner leaves "winners" undefined, only a tie produces one).
// Multi-round methods (RankedChoice, TwoRound, STAR, STV) always list
// their winners in Winners, and also set Winner when there is exactly one.
type Result struct {
	Tallies []int64
	Winners []int
	Winner  int
	Rounds  []RoundResult
}

// PollTallier computes the outcome of a closed poll under the authority's
// Paillier private key (spec §4.9). The private key is held only here;
// the poll itself only ever sees the public key.
type PollTallier struct {
	priv *paillier.PrivateKey
}

// NewPollTallier binds a tallier to the authority's Paillier private key.
func NewPollTallier(priv *paillier.PrivateKey) *PollTallier {
	return &PollTallier{priv: priv}
}

// Tally computes poll's result, dispatching to the homomorphic or
// multi-round path by method class. Requires poll.IsClosed.
func (t *PollTallier) Tally(poll *Poll) (*Result, error) {
	if !poll.IsClosed {
		return nil, errs.New(errs.CodeNotClosed, "errors.notClosed", nil)
	}
	votes, err := poll.Votes()
	if err != nil {
		return nil, err
	}

	var result *Result
	switch {
	case poll.Method.IsFullyHomomorphic():
		result, err = t.tallyHomomorphic(poll, votes)
	case poll.Method == RankedChoice:
		result, err = t.tallyIRV(poll, votes)
	case poll.Method == TwoRound:
		result, err = t.tallyTwoRound(poll, votes)
	case poll.Method == STAR:
		result, err = t.tallySTAR(poll, votes)
	case poll.Method == STV:
		result, err = t.tallySTV(poll, votes)
	default:
		return nil, errs.New(errs.CodeInvalidVotingMethod, "errors.invalidVotingMethod", nil)
	}
	if err != nil {
		return nil, err
	}

	poll.RecordTallyComputed(encodeTalliesForAudit(result.Tallies))
	return result, nil
}

func encodeTalliesForAudit(tallies []int64) []byte {
	out := make([]byte, 0, len(tallies)*8)
	for _, v := range tallies {
		b := big.NewInt(v).Bytes()
		out = append(out, byte(len(b)))
		out = append(out, b...)
	}
	return out
}

// sumCiphertexts homomorphically adds ciphertexts[i] across votes at
// slot index, seeded with Enc(0) so an empty vote set yields zero
// rather than an error (spec §4.9's empty-poll rule).
func sumCiphertexts(pub *paillier.PublicKey, votes []*EncryptedVote, index int) (*big.Int, error) {
	sum, err := paillier.IdentityCiphertext(pub)
	if err != nil {
		return nil, err
	}
	for _, v := range votes {
		if index >= len(v.Ciphertexts) || v.Ciphertexts[index] == nil {
			continue
		}
		sum = paillier.Add(pub, sum, v.Ciphertexts[index])
	}
	return sum, nil
}

func (t *PollTallier) tallyHomomorphic(poll *Poll, votes []*EncryptedVote) (*Result, error) {
	k := len(poll.Choices)
	tallies := make([]int64, k)
	for j := 0; j < k; j++ {
		sum, err := sumCiphertexts(t.priv.Public, votes, j)
		if err != nil {
			return nil, err
		}
		m, err := paillier.Decrypt(t.priv, sum)
		if err != nil {
			return nil, err
		}
		tallies[j] = m.Int64()
	}

	winners := argmaxAll(tallies)
	res := &Result{Tallies: tallies}
	if len(winners) == 1 {
		res.Winner = winners[0]
	} else {
		res.Winners = winners
	}

	if poll.Method == Supermajority && len(winners) == 1 {
		total := int64(0)
		for _, v := range tallies {
			total += v
		}
		lhs := new(big.Int).Mul(big.NewInt(tallies[winners[0]]), big.NewInt(poll.SupermajorityDenominator))
		rhs := new(big.Int).Mul(big.NewInt(total), big.NewInt(poll.SupermajorityNumerator))
		if lhs.Cmp(rhs) < 0 {
			res.Winners = nil
			res.Winner = 0
		}
	}
	return res, nil
}

// argmaxAll returns every index achieving the maximum value; a single
// winner when unique, all tied indices otherwise.
func argmaxAll(tallies []int64) []int {
	if len(tallies) == 0 {
		return nil
	}
	max := tallies[0]
	for _, v := range tallies[1:] {
		if v > max {
			max = v
		}
	}
	var out []int
	for i, v := range tallies {
		if v == max {
			out = append(out, i)
		}
	}
	if len(out) == 1 {
		return out
	}
	// genuine tie: spec requires winners:[] with no single winner, but
	// callers still need the tied set for reporting.
	return out
}

// argminIndex returns the lowest-valued index, breaking ties by lowest
// index (spec §4.9's uniform multi-round tie-break rule), restricted to
// the given still-live candidate set.
func argminIndex(tallies []int64, live []bool) int {
	best := -1
	for i, alive := range live {
		if !alive {
			continue
		}
		if best == -1 || tallies[i] < tallies[best] {
			best = i
		}
	}
	return best
}

// decryptRankPositions decrypts, per ballot, every candidate's
// preference position (0 = favourite) from a RankedChoice/STV vote.
func (t *PollTallier) decryptRankPositions(votes []*EncryptedVote, k int) ([][]int64, error) {
	positions := make([][]int64, len(votes))
	for i, v := range votes {
		row := make([]int64, k)
		for c := 0; c < k; c++ {
			if c >= len(v.Ciphertexts) || v.Ciphertexts[c] == nil {
				row[c] = int64(k)
				continue
			}
			m, err := paillier.Decrypt(t.priv, v.Ciphertexts[c])
			if err != nil {
				return nil, err
			}
			row[c] = m.Int64()
		}
		positions[i] = row
	}
	return positions, nil
}

// currentPreference returns the highest-ranked (lowest position) still-
// live candidate for a ballot, or -1 if the ballot has exhausted every
// live candidate.
func currentPreference(row []int64, live []bool) int {
	best := -1
	for c, alive := range live {
		if !alive {
			continue
		}
		if best == -1 || row[c] < row[best] {
			best = c
		}
	}
	return best
}

func (t *PollTallier) tallyIRV(poll *Poll, votes []*EncryptedVote) (*Result, error) {
	k := len(poll.Choices)
	positions, err := t.decryptRankPositions(votes, k)
	if err != nil {
		return nil, err
	}

	live := make([]bool, k)
	for i := range live {
		live[i] = true
	}

	var rounds []RoundResult
	for {
		tallies := make([]int64, k)
		total := int64(0)
		for _, row := range positions {
			pref := currentPreference(row, live)
			if pref >= 0 {
				tallies[pref]++
				total++
			}
		}

		liveCount := 0
		for _, alive := range live {
			if alive {
				liveCount++
			}
		}

		round := RoundResult{Tallies: append([]int64(nil), tallies...)}
		if liveCount <= 1 || hasMajority(tallies, total) {
			winners := []int{}
			for i, alive := range live {
				if alive && tallies[i]*2 > total || (liveCount == 1 && alive) {
					winners = append(winners, i)
				}
			}
			rounds = append(rounds, round)
			return &Result{Tallies: tallies, Winners: winners, Winner: firstOrZero(winners), Rounds: rounds}, nil
		}

		eliminated := argminIndex(tallies, live)
		live[eliminated] = false
		round.Eliminated = []int{eliminated}
		rounds = append(rounds, round)
	}
}

func hasMajority(tallies []int64, total int64) bool {
	if total == 0 {
		return false
	}
	for _, v := range tallies {
		if v*2 > total {
			return true
		}
	}
	return false
}

func firstOrZero(winners []int) int {
	if len(winners) == 1 {
		return winners[0]
	}
	return 0
}

func (t *PollTallier) tallyTwoRound(poll *Poll, votes []*EncryptedVote) (*Result, error) {
	k := len(poll.Choices)
	tallies := make([]int64, k)
	total := int64(0)
	for j := 0; j < k; j++ {
		sum, err := sumCiphertexts(t.priv.Public, votes, j)
		if err != nil {
			return nil, err
		}
		m, err := paillier.Decrypt(t.priv, sum)
		if err != nil {
			return nil, err
		}
		tallies[j] = m.Int64()
		total += tallies[j]
	}

	round1 := RoundResult{Tallies: append([]int64(nil), tallies...)}
	if hasMajority(tallies, total) {
		winners := argmaxAll(tallies)
		return &Result{Tallies: tallies, Winners: winners, Winner: firstOrZero(winners), Rounds: []RoundResult{round1}}, nil
	}

	live := make([]bool, k)
	first := topTwoLowestIndexTiebreak(tallies)
	for _, c := range first {
		live[c] = true
	}
	round2Tallies := make([]int64, k)
	for _, v := range votes {
		pref, err := t.decryptOneHotChoice(v, live, k)
		if err != nil {
			return nil, err
		}
		if pref >= 0 {
			round2Tallies[pref]++
		}
	}
	round2 := RoundResult{Tallies: append([]int64(nil), round2Tallies...), Elected: first}

	winners := argmaxIndices(round2Tallies, live)
	return &Result{Tallies: round2Tallies, Winners: winners, Winner: firstOrZero(winners), Rounds: []RoundResult{round1, round2}}, nil
}

// decryptOneHotChoice recovers a plurality-encoded vote's chosen index,
// restricted to the runoff's live candidate set (a vote for an
// eliminated candidate is simply not counted in the runoff round).
func (t *PollTallier) decryptOneHotChoice(v *EncryptedVote, live []bool, k int) (int, error) {
	for c, alive := range live {
		if !alive || c >= len(v.Ciphertexts) || v.Ciphertexts[c] == nil {
			continue
		}
		m, err := paillier.Decrypt(t.priv, v.Ciphertexts[c])
		if err != nil {
			return -1, err
		}
		if m.Sign() != 0 {
			return c, nil
		}
	}
	return -1, nil
}

func topTwoLowestIndexTiebreak(tallies []int64) []int {
	type pair struct {
		idx int
		val int64
	}
	all := make([]pair, len(tallies))
	for i, v := range tallies {
		all[i] = pair{i, v}
	}
	// stable selection of the top two by value, lowest index breaking ties
	best := []pair{}
	for _, p := range all {
		best = append(best, p)
	}
	// simple O(k^2) selection, k is small (candidate count)
	top := make([]int, 0, 2)
	used := make([]bool, len(tallies))
	for sel := 0; sel < 2 && sel < len(tallies); sel++ {
		bestIdx := -1
		for i, p := range best {
			if used[i] {
				continue
			}
			if bestIdx == -1 || p.val > best[bestIdx].val {
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			break
		}
		used[bestIdx] = true
		top = append(top, best[bestIdx].idx)
	}
	return top
}

func argmaxIndices(tallies []int64, live []bool) []int {
	max := int64(-1)
	for i, alive := range live {
		if alive && tallies[i] > max {
			max = tallies[i]
		}
	}
	var out []int
	for i, alive := range live {
		if alive && tallies[i] == max {
			out = append(out, i)
		}
	}
	return out
}

func (t *PollTallier) tallySTAR(poll *Poll, votes []*EncryptedVote) (*Result, error) {
	k := len(poll.Choices)
	scores := make([]int64, k)
	for j := 0; j < k; j++ {
		sum, err := sumCiphertexts(t.priv.Public, votes, j)
		if err != nil {
			return nil, err
		}
		m, err := paillier.Decrypt(t.priv, sum)
		if err != nil {
			return nil, err
		}
		scores[j] = m.Int64()
	}
	round1 := RoundResult{Tallies: append([]int64(nil), scores...)}

	live := make([]bool, k)
	top := topTwoLowestIndexTiebreak(scores)
	for _, c := range top {
		live[c] = true
	}
	if len(top) < 2 {
		return &Result{Tallies: scores, Winners: top, Winner: firstOrZero(top), Rounds: []RoundResult{round1}}, nil
	}

	a, b := top[0], top[1]
	aPrefs, bPrefs := int64(0), int64(0)
	for _, v := range votes {
		scoreA, errA := t.decryptSlot(v, a)
		scoreB, errB := t.decryptSlot(v, b)
		if errA != nil {
			return nil, errA
		}
		if errB != nil {
			return nil, errB
		}
		switch {
		case scoreA > scoreB:
			aPrefs++
		case scoreB > scoreA:
			bPrefs++
		}
	}

	round2 := RoundResult{Tallies: []int64{aPrefs, bPrefs}, Elected: []int{a, b}}
	var winners []int
	switch {
	case aPrefs > bPrefs:
		winners = []int{a}
	case bPrefs > aPrefs:
		winners = []int{b}
	default:
		winners = []int{a, b}
	}
	return &Result{Tallies: scores, Winners: winners, Winner: firstOrZero(winners), Rounds: []RoundResult{round1, round2}}, nil
}

func (t *PollTallier) decryptSlot(v *EncryptedVote, index int) (int64, error) {
	if index >= len(v.Ciphertexts) || v.Ciphertexts[index] == nil {
		return 0, nil
	}
	m, err := paillier.Decrypt(t.priv, v.Ciphertexts[index])
	if err != nil {
		return 0, err
	}
	return m.Int64(), nil
}

func (t *PollTallier) tallySTV(poll *Poll, votes []*EncryptedVote) (*Result, error) {
	k := len(poll.Choices)
	positions, err := t.decryptRankPositions(votes, k)
	if err != nil {
		return nil, err
	}

	totalVotes := int64(len(votes))
	seats := int64(1)
	quota := totalVotes/(seats+1) + 1

	live := make([]bool, k)
	for i := range live {
		live[i] = true
	}
	var elected []int
	var rounds []RoundResult

	for int64(len(elected)) < seats {
		tallies := make([]int64, k)
		for _, row := range positions {
			pref := currentPreference(row, live)
			if pref >= 0 {
				tallies[pref]++
			}
		}

		round := RoundResult{Tallies: append([]int64(nil), tallies...)}

		wonThisRound := false
		for i, alive := range live {
			if alive && tallies[i] >= quota {
				elected = append(elected, i)
				live[i] = false
				round.Elected = append(round.Elected, i)
				wonThisRound = true
			}
		}
		rounds = append(rounds, round)
		if wonThisRound {
			continue
		}

		liveCount := 0
		for _, alive := range live {
			if alive {
				liveCount++
			}
		}
		if liveCount == 0 {
			break
		}
		eliminated := argminIndex(tallies, live)
		live[eliminated] = false
		rounds[len(rounds)-1].Eliminated = []int{eliminated}
	}

	return &Result{Winners: elected, Winner: firstOrZero(elected), Rounds: rounds}, nil
}
