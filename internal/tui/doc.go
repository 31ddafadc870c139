// Package tui implements the interactive watch dashboard of lektrico-cli.
//
// The dashboard is a Bubble Tea program that polls one charger or energy
// meter at a fixed interval and renders the latest reading. Chargers can be
// started and stopped from the keyboard.
//
// # Message Flow
//
//	Init ──► fetch ──► infoMsg ──► schedule ──► pollMsg ──► fetch ...
//
// Each scheduled poll carries a sequence number. A manual refresh bumps the
// sequence when its reading arrives, so the poll it pre-empted is dropped.
//
// # Keys
//
//	r   refresh now
//	s   start charging (chargers only)
//	x   stop charging (chargers only)
//	?   toggle full help
//	q   quit
package tui
