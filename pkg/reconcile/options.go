package reconcile

import (
	"strings"

	"github.com/daezeri/ffgimport/pkg/errors"
)

// MatchPolicy selects how drafts are matched to existing records.
type MatchPolicy string

const (
	// MatchByName matches on exact name equality. Renamed source entries are
	// created again.
	MatchByName MatchPolicy = "name"

	// MatchByImportIDThenName prefers the importid flag and falls back to the
	// name.
	MatchByImportIDThenName MatchPolicy = "importid"
)

// ParseMatchPolicy parses a policy name.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch MatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchByName:
		return MatchByName, nil
	case MatchByImportIDThenName:
		return MatchByImportIDThenName, nil
	}
	return "", &errors.ValidationError{Field: "match_policy", Value: s, Message: "must be name or importid"}
}

type options struct {
	policy MatchPolicy
}

func defaultOptions() *options {
	return &options{policy: MatchByName}
}

// Option configures an Engine.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithMatchPolicy sets the match policy.
func WithMatchPolicy(policy MatchPolicy) Option {
	return func(o *options) error {
		p, err := ParseMatchPolicy(string(policy))
		if err != nil {
			return err
		}
		o.policy = p
		return nil
	}
}
