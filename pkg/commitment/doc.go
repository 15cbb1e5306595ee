// Package commitment implements a commit/reveal scheme on top of store.Store.
//
// A party first commits to the digest of some secret data (usually salted).
// Later it reveals the data; Reveal hashes it, checks the digest was
// committed and consumes the commitment. Commitments live in one of the store
// tiers and carry no payload.
//
//	digest, _ := commitment.Hash(commitment.SHA256, append(vote, salt...))
//	if err := commitment.Commit(ctx, st, digest); err != nil {
//	    return err
//	}
//	// later
//	if _, err := commitment.Reveal(ctx, st, append(vote, salt...)); err != nil {
//	    return err
//	}
//
// Both calls compose with statemachine transitions: run them inside the
// transition body against m.Store() and a failed reveal rolls back the state
// change along with it.
package commitment
