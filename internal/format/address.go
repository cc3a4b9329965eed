// Package format holds terminal presentation helpers: colors and the
// address book used to label miners.
package format

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Pending is the placeholder shown for values that are not known yet.
const Pending = "..."

// ExplorerBase is the Blast explorer address page prefix.
const ExplorerBase = "https://blastscan.io/address/"

var knownMiners = map[common.Address]string{
	common.HexToAddress("0xb82619C0336985e3EDe16B97b950E674018925Bb"): "KONKPool",
	common.HexToAddress("0x2099A5d5DA9db8a91a21b7a1Cf7f969a5D078C15"): "Machi",
	common.HexToAddress("0x6B8c262CA939adbe3793D3eca519a9D64f74D184"): "Machi",
}

// Label returns the display name of addr: a known pool or operator name,
// otherwise the last four hex characters of the checksummed address.
func Label(addr common.Address) string {
	if name, ok := knownMiners[addr]; ok {
		return name
	}
	hex := addr.Hex()
	return hex[len(hex)-4:]
}

// ExplorerURL links addr on the Blast explorer.
func ExplorerURL(addr common.Address) string {
	return ExplorerBase + addr.Hex()
}

// Short abbreviates an address as 0x1234…abcd.
func Short(addr common.Address) string {
	hex := addr.Hex()
	return strings.Join([]string{hex[:6], hex[len(hex)-4:]}, "…")
}
