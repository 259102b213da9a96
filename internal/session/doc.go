// Package session holds the client's authenticated identity.
//
// [Store] is initialised from persisted storage, mutated by login, registration and logout, and publishes an
// [Event] to every subscriber on each change. The state machine has two states:
//
//	Unauthenticated --Login--> Authenticated --Logout--> Unauthenticated
//
// Registration never changes state, and Login from Authenticated is rejected with [shared.ErrAlreadyAuthenticated].
//
// Login and registration share one in-flight latch that is taken before the request is sent, so a concurrent
// attempt fails with [shared.ErrInFlight]. A token bucket additionally throttles attempts
// ([shared.ErrTooManyAttempts]).
//
// Logout runs a single storage transaction that deletes the token, the user and the state of every attached
// [Invalidator], such as the result cache. Login clears the same state in the transaction that stores the new token.
package session
