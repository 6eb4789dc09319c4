// Package identity provides resolved contact and account attributes to the
// feature aggregator. Resolution itself happens in an external identity
// service; this package only exposes the answers, and absence of an answer
// is always valid.
package identity

import (
	"context"
	"strings"
	"sync"
)

// Seniority score bands for title heuristics.
const (
	seniorityExecutive  = 90
	seniorityDirector   = 75
	seniorityLead       = 60
	senioritySenior     = 50
	seniorityIndividual = 30
)

// Firmographic score bands by company size.
const (
	firmoEnterprise = 90 // >= 1000 employees
	firmoMidMarket  = 75 // >= 200
	firmoGrowth     = 60 // >= 50
	firmoStartup    = 40 // >= 10
	firmoMicro      = 25
)

// Resolver supplies identity-derived factor inputs.
type Resolver interface {
	// ActorSeniority returns [0,100] seniority scores for the actor ids it
	// can resolve. Unresolvable actors are simply absent from the result.
	ActorSeniority(ctx context.Context, actorIDs []string) (map[string]float64, error)

	// AccountFirmographic returns the account's [0,100] firmographic fit and
	// whether any firmographic data exists for the account.
	AccountFirmographic(ctx context.Context, accountID string) (float64, bool, error)
}

// Profile holds the firmographic attributes known for an account.
type Profile struct {
	Employees int
	Industry  string
}

// Option applies a configuration option to the StaticResolver.
type Option func(*StaticResolver)

// WithIndustryBoosts sets additive [0,100]-space adjustments per industry.
func WithIndustryBoosts(boosts map[string]float64) Option {
	return func(r *StaticResolver) {
		r.industryBoosts = make(map[string]float64, len(boosts))
		for industry, boost := range boosts {
			r.industryBoosts[strings.ToLower(industry)] = boost
		}
	}
}

// StaticResolver implements Resolver from attributes pushed in by the
// surrounding product (CRM sync, enrichment jobs). It stands in for the
// external identity service in this deployment.
type StaticResolver struct {
	mu             sync.RWMutex
	titles         map[string]string
	profiles       map[string]Profile
	industryBoosts map[string]float64
}

// NewStaticResolver creates a resolver with configuration options.
func NewStaticResolver(opts ...Option) *StaticResolver {
	r := &StaticResolver{
		titles:         make(map[string]string),
		profiles:       make(map[string]Profile),
		industryBoosts: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetActorTitle records a contact's job title for seniority heuristics.
func (r *StaticResolver) SetActorTitle(actorID, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles[actorID] = title
}

// SetAccountProfile records an account's firmographic attributes.
func (r *StaticResolver) SetAccountProfile(accountID string, p Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[accountID] = p
}

// ActorSeniority resolves seniority scores for the given actors.
func (r *StaticResolver) ActorSeniority(_ context.Context, actorIDs []string) (map[string]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]float64)
	for _, id := range actorIDs {
		title, ok := r.titles[id]
		if !ok {
			continue
		}
		out[id] = TitleSeniority(title)
	}
	return out, nil
}

// AccountFirmographic resolves the firmographic fit for an account.
func (r *StaticResolver) AccountFirmographic(_ context.Context, accountID string) (float64, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[accountID]
	if !ok {
		return 0, false, nil
	}

	score := sizeScore(p.Employees)
	if boost, ok := r.industryBoosts[strings.ToLower(p.Industry)]; ok {
		score += boost
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, true, nil
}

// TitleSeniority maps a free-form job title to a [0,100] seniority score.
func TitleSeniority(title string) float64 {
	t := strings.ToLower(title)
	switch {
	case containsAny(t, "ceo", "cto", "coo", "chief", "founder", "vp", "vice president"):
		return seniorityExecutive
	case containsAny(t, "head of", "director"):
		return seniorityDirector
	case containsAny(t, "lead", "principal", "staff"):
		return seniorityLead
	case strings.Contains(t, "senior"):
		return senioritySenior
	default:
		return seniorityIndividual
	}
}

func sizeScore(employees int) float64 {
	switch {
	case employees >= 1000:
		return firmoEnterprise
	case employees >= 200:
		return firmoMidMarket
	case employees >= 50:
		return firmoGrowth
	case employees >= 10:
		return firmoStartup
	default:
		return firmoMicro
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
