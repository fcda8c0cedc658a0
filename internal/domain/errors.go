package domain

import "errors"

// Errors shared across the trading core.
var (
	// ErrInsufficientFunds is returned when a wallet cannot cover an amount plus fees.
	// It is also the classification for on-chain rejections caused by overspending.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoRoute is returned when every configured venue reported the token as not tradable.
	ErrNoRoute = errors.New("no route on any venue")

	// ErrInvalidSettings is returned when a settings record fails validation.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrMissingMainWallet is returned when a live operation needs the main wallet and none is loaded.
	ErrMissingMainWallet = errors.New("main wallet not configured")

	// ErrPriceUnavailable is returned when no price source produced a usable price.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrSessionNotFound is returned when no loop session exists for a token.
	ErrSessionNotFound = errors.New("session not found")
)
