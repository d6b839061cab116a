package domain

// RankAggregator combines weighted individual rankings over n candidates
// into a group ranking. Implementations must validate the votes before
// computing anything and must never return a partial Result together with
// an error.
//
// Example:
//
//	votes := []Vote{NewVote(0, 1, 2), NewVote(2, 0, 1).WithWeight(3)}
//	res, err := aggregator.Aggregate(votes, 3)
//	if err != nil {
//	    return err
//	}
//	winners := res.Winners()
type RankAggregator interface {
	Aggregate(votes []Vote, n int) (*Result, error)
}
