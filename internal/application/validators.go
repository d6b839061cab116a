package application

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-schulze/infrastructure/units"
)

var (
	semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

	// candidateIDPattern admits IDs that can be written unquoted in a
	// ranking string: no whitespace and none of the ">" or "=" separators.
	candidateIDPattern = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N}_.\-]*$`)
)

// ValidateUnitParameters checks params against the parameter schema of a
// built-in unit type by decoding them exactly as the unit will. Types the
// package does not know are accepted; their factories validate at build
// time.
func ValidateUnitParameters(unitType string, params yaml.Node) error {
	switch unitType {
	case units.TypeBallotParser:
		base, err := units.NewBallotUnit("validate", units.DefaultBallotConfig())
		if err != nil {
			return err
		}
		_, err = base.UnmarshalParameters(params)
		return err
	case units.TypeSchulze:
		base, err := units.NewSchulzeUnit("validate", units.DefaultSchulzeConfig())
		if err != nil {
			return err
		}
		_, err = base.UnmarshalParameters(params)
		return err
	default:
		return nil
	}
}

// RegisterElectionValidators registers the custom tags used by
// ElectionConfig on v.
func RegisterElectionValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}
	if err := v.RegisterValidation("candidateid", validateCandidateID); err != nil {
		return fmt.Errorf("failed to register candidateid validator: %w", err)
	}
	return nil
}

// validateSemver accepts X.Y.Z where X, Y and Z are non-negative integers.
func validateSemver(fl validator.FieldLevel) bool {
	return semverPattern.MatchString(fl.Field().String())
}

func validateCandidateID(fl validator.FieldLevel) bool {
	return candidateIDPattern.MatchString(fl.Field().String())
}
