// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package feed selects bounded, ordered-or-random sets of active images
// for a scope (global, one category, or one account) and computes
// next/previous navigation around an anchor image.
package feed

import (
	"imagehub/internal/models"
	"imagehub/internal/store"
)

// ScopeKind tags the outcome of scope resolution.
type ScopeKind int

const (
	// ScopeGlobal bounds a query to all active images.
	ScopeGlobal ScopeKind = iota
	// ScopeCategory bounds a query to one category.
	ScopeCategory
	// ScopeAccount bounds a query to one account.
	ScopeAccount
	// ScopeNone marks an unresolved scope string. Queries against it
	// return empty results, never errors.
	ScopeNone
)

// Scope is the category-or-account context that bounds a feed or
// navigation query.
type Scope struct {
	Kind     ScopeKind
	Category *models.Category
	Account  *models.Account
}

// Global returns the unbounded scope.
func Global() Scope { return Scope{Kind: ScopeGlobal} }

// CategoryScope returns a scope bounded to one category.
func CategoryScope(c *models.Category) Scope {
	return Scope{Kind: ScopeCategory, Category: c}
}

// AccountScope returns a scope bounded to one account.
func AccountScope(a *models.Account) Scope {
	return Scope{Kind: ScopeAccount, Account: a}
}

// Filter renders the scope as a store filter. ok is false for
// ScopeNone, in which case callers must produce an empty result.
func (s Scope) Filter() (f store.Filter, ok bool) {
	switch s.Kind {
	case ScopeGlobal:
		return store.Filter{}, true
	case ScopeCategory:
		return store.ByCategory(s.Category.ID), true
	case ScopeAccount:
		return store.ByAccount(s.Account.ID), true
	default:
		return store.Filter{}, false
	}
}

// Resolver maps a single path segment to a category or account scope.
type Resolver struct {
	categories *store.CategoryStore
	accounts   *store.AccountStore
}

// NewResolver returns a Resolver over the given stores.
func NewResolver(categories *store.CategoryStore, accounts *store.AccountStore) *Resolver {
	return &Resolver{categories: categories, accounts: accounts}
}

// Resolve tests the segment against the category slug space first
// (case-insensitive), then against usernames. A segment matching
// neither resolves to ScopeNone, which is an empty result, not an
// error. Categories win when a username collides with a slug.
func (r *Resolver) Resolve(segment string) (Scope, error) {
	category, err := r.categories.FindBySlug(segment)
	if err != nil {
		return Scope{Kind: ScopeNone}, err
	}
	if category != nil {
		return CategoryScope(category), nil
	}

	account, err := r.accounts.FindByUsername(segment)
	if err != nil {
		return Scope{Kind: ScopeNone}, err
	}
	if account != nil {
		return AccountScope(account), nil
	}

	return Scope{Kind: ScopeNone}, nil
}
