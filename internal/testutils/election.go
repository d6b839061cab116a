package testutils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-schulze/internal/domain"
)

// GeneratedElection is a synthetic election over labelled candidates.
type GeneratedElection struct {
	// Name identifies the election in metadata.
	Name string

	// Seed is the value the election was generated from.
	Seed int64

	Candidates []domain.Candidate
	Ballots    []domain.Ballot
}

// ElectionFile is the on-disk shape of a generated election. It matches
// the election configuration schema, with rankings written as strings.
type ElectionFile struct {
	Version    string          `yaml:"version" toml:"version"`
	Metadata   FileMetadata    `yaml:"metadata" toml:"metadata"`
	Candidates []FileCandidate `yaml:"candidates" toml:"candidates"`
	Ballots    []FileBallot    `yaml:"ballots" toml:"ballots"`
}

// FileMetadata holds the descriptive fields of an ElectionFile.
type FileMetadata struct {
	Name        string   `yaml:"name" toml:"name"`
	Description string   `yaml:"description,omitempty" toml:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty" toml:"tags,omitempty"`
}

// FileCandidate is a candidate entry of an ElectionFile.
type FileCandidate struct {
	ID   string `yaml:"id" toml:"id"`
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`
}

// FileBallot is a ballot entry of an ElectionFile.
type FileBallot struct {
	Ranking string `yaml:"ranking" toml:"ranking"`
	Weight  int    `yaml:"weight,omitempty" toml:"weight,omitempty"`
}

// Votes converts the ballots into index-based votes. Candidates a ballot
// omits share the position after its last group.
func (e *GeneratedElection) Votes() []domain.Vote {
	index := make(map[string]int, len(e.Candidates))
	for i, c := range e.Candidates {
		index[c.ID] = i
	}

	votes := make([]domain.Vote, len(e.Ballots))
	for bi, b := range e.Ballots {
		ranking := make([]int, len(e.Candidates))
		for i := range ranking {
			ranking[i] = len(b.Groups)
		}
		for pos, group := range b.Groups {
			for _, id := range group {
				ranking[index[id]] = pos
			}
		}
		votes[bi] = domain.Vote{Ranking: ranking, Weight: b.Weight}
	}
	return votes
}

// Config returns the election in its file shape.
func (e *GeneratedElection) Config() *ElectionFile {
	file := &ElectionFile{
		Version: "1.0.0",
		Metadata: FileMetadata{
			Name:        e.Name,
			Description: fmt.Sprintf("Synthetic election generated from seed %d", e.Seed),
			Tags:        []string{"synthetic"},
		},
		Candidates: make([]FileCandidate, len(e.Candidates)),
		Ballots:    make([]FileBallot, len(e.Ballots)),
	}
	for i, c := range e.Candidates {
		file.Candidates[i] = FileCandidate{ID: c.ID, Name: c.Name}
	}
	for i, b := range e.Ballots {
		fb := FileBallot{Ranking: formatGroups(b.Groups)}
		if b.Weight != 1 {
			fb.Weight = b.Weight
		}
		file.Ballots[i] = fb
	}
	return file
}

// formatGroups writes groups as "a = b > c".
func formatGroups(groups [][]string) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = strings.Join(g, " = ")
	}
	return strings.Join(parts, " > ")
}

// SaveElection writes e to path as YAML, or as TOML when path ends in
// ".toml". Missing directories are created.
func SaveElection(e *GeneratedElection, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(e.Config())
		data = buf.Bytes()
	} else {
		data, err = yaml.Marshal(e.Config())
	}
	if err != nil {
		return fmt.Errorf("failed to marshal election: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write election file: %w", err)
	}
	return nil
}

// LoadElection reads a YAML election file written by SaveElection.
func LoadElection(path string) (*ElectionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read election file: %w", err)
	}

	var file ElectionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse election YAML: %w", err)
	}
	return &file, nil
}

// ElectionStatistics summarizes a generated election.
type ElectionStatistics struct {
	Candidates int
	Ballots    int

	// TotalWeight is the sum of ballot weights.
	TotalWeight int

	// TiedBallots counts ballots with at least one group of two or more.
	TiedBallots int

	// TruncatedBallots counts ballots that omit at least one candidate.
	TruncatedBallots int

	// AvgGroups is the mean number of groups per ballot.
	AvgGroups float64
}

// ComputeElectionStatistics analyzes e.
func ComputeElectionStatistics(e *GeneratedElection) *ElectionStatistics {
	stats := &ElectionStatistics{
		Candidates: len(e.Candidates),
		Ballots:    len(e.Ballots),
	}

	groups := 0
	for _, b := range e.Ballots {
		stats.TotalWeight += b.Weight
		groups += len(b.Groups)

		ranked := 0
		tied := false
		for _, g := range b.Groups {
			ranked += len(g)
			if len(g) > 1 {
				tied = true
			}
		}
		if tied {
			stats.TiedBallots++
		}
		if ranked < len(e.Candidates) {
			stats.TruncatedBallots++
		}
	}

	if stats.Ballots > 0 {
		stats.AvgGroups = float64(groups) / float64(stats.Ballots)
	}
	return stats
}
