package plot

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/cuemby/plotengine/pkg/types"
)

// TagFunc computes the keyed tag of a piece under a salt. The real
// cryptographic tag function is an external collaborator out of scope for
// this module (spec §1) — callers of Open should supply their own. Plot
// falls back to DefaultTagFunc when none is given so the rest of the
// commitment machinery has something concrete to exercise.
type TagFunc func(piece types.Piece, salt types.Salt) types.Tag

// DefaultTagFunc is an HMAC-SHA256-based placeholder: the first 8 bytes of
// HMAC(salt, piece). It satisfies the opaque "keyed hash of a piece under a
// salt" contract but is not the production tag function.
func DefaultTagFunc(piece types.Piece, salt types.Salt) types.Tag {
	mac := hmac.New(sha256.New, salt[:])
	mac.Write(piece)
	sum := mac.Sum(nil)

	var tag types.Tag
	copy(tag[:], sum[:len(tag)])
	return tag
}
