package validator

import (
	"github.com/hourcoin/hourcoin/pkg/hashutil"
	"github.com/hourcoin/hourcoin/pkg/tonce"
)

// Round bundles the tonce challenge open for the current mining round with
// the previous block hash and the index the next admitted block must
// carry.
type Round struct {
	Challenge     tonce.Challenge
	PrevBlockHash hashutil.Hash
	ExpectedIndex uint32
}
