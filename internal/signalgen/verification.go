package signalgen

import (
	"fmt"
	"log"
	"sort"
)

// verifyResults cross-checks the per-account scores against the ranked
// top-accounts view.
func verifyResults(config *Config, scores, top []AccountScore) error {
	log.Println("verifying results...")

	if len(scores) == 0 {
		return fmt.Errorf("no scores to verify")
	}

	sortedScores := make([]AccountScore, len(scores))
	copy(sortedScores, scores)
	sort.Slice(sortedScores, func(i, j int) bool {
		return sortedScores[i].Score > sortedScores[j].Score
	})

	if len(top) > 0 {
		if err := verifyTopConsistency(sortedScores, top); err != nil {
			log.Printf("top-accounts consistency warning: %v", err)
		} else {
			log.Println("top-accounts consistency verified")
		}
	}

	displayTopAccounts(sortedScores, top, config.Verbose)

	log.Println("result verification completed")
	return nil
}

// verifyTopConsistency checks that the ranked view is sorted and that its
// head matches the best per-account score. Scores can legitimately drift
// between the two reads if a recompute lands in between, so mismatches are
// reported as warnings by the caller rather than failures.
func verifyTopConsistency(sortedScores, top []AccountScore) error {
	if len(top) == 0 {
		return fmt.Errorf("empty top-accounts list")
	}

	best := sortedScores[0]
	head := top[0]

	if best.Score != head.Score {
		return fmt.Errorf("top-accounts head score (%d) does not match best per-account score (%d, account %s)",
			head.Score, best.Score, best.AccountID)
	}

	for i := 1; i < len(top); i++ {
		if top[i].Score > top[i-1].Score {
			return fmt.Errorf("top accounts not sorted: entry %d outranks entry %d", i, i-1)
		}
	}

	return nil
}

// displayTopAccounts shows the strongest accounts from both views.
func displayTopAccounts(sortedScores, top []AccountScore, verbose bool) {
	topN := 10
	if len(sortedScores) < topN {
		topN = len(sortedScores)
	}

	log.Printf("top %d accounts by retrieved score:", topN)
	for i := 0; i < topN; i++ {
		entry := sortedScores[i]
		log.Printf("   %d. %s - score: %d tier: %s trend: %s", i+1, entry.AccountID, entry.Score, entry.Tier, entry.Trend)
	}

	if len(top) > 0 {
		rankedTopN := topN
		if len(top) < rankedTopN {
			rankedTopN = len(top)
		}

		log.Printf("top %d accounts from ranked view:", rankedTopN)
		for i := 0; i < rankedTopN; i++ {
			entry := top[i]
			log.Printf("   %d. %s - score: %d tier: %s", i+1, entry.AccountID, entry.Score, entry.Tier)
		}
	}

	if verbose && len(sortedScores) > 0 {
		tiers := make(map[string]int)
		sum := 0
		for _, entry := range sortedScores {
			tiers[entry.Tier]++
			sum += entry.Score
		}

		log.Printf("score statistics: average=%.1f max=%d min=%d tiers=%v",
			float64(sum)/float64(len(sortedScores)),
			sortedScores[0].Score,
			sortedScores[len(sortedScores)-1].Score,
			tiers)
	}
}
