package testutils

const (
	// DefaultCandidates is the candidate count of the default config.
	DefaultCandidates = 8

	// DefaultBallots is the ballot count of the default config.
	DefaultBallots = 500
)

// candidateNames are display names handed out in order, repeating when an
// election has more candidates than names.
var candidateNames = []string{
	"Alice", "Bob", "Carol", "Dave", "Eve", "Frank", "Grace", "Heidi",
	"Ivan", "Judy", "Mallory", "Niaj", "Olivia", "Peggy", "Rupert", "Sybil",
	"Trent", "Uma", "Victor", "Walter",
}
