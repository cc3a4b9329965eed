// Package metrics derives the display economics of the HYPERS token from a
// chain snapshot, the contract's native balance and an ETH/USD price.
package metrics

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/dmagro/hypers-monitor/internal/snapshot"
)

const (
	// InitialMaxSupply is the supply cap before any burn, in whole tokens.
	InitialMaxSupply = 21_000_000
	// InitialReward is the per-block reward before the first halving.
	InitialReward = 250
	// HalvingInterval is the number of blocks between reward halvings.
	HalvingInterval = 42_000
	// BlockTimeSeconds is the expected mining block spacing.
	BlockTimeSeconds = 60
)

// Supply is a token amount with its share of InitialMaxSupply.
type Supply struct {
	Amount     float64
	Percentage string // two fraction digits
}

// Derived holds every computed dashboard value of one cycle.
type Derived struct {
	Price float64

	IntrinsicValueEth string // ten fraction digits
	IntrinsicValueUsd string // six fraction digits

	TheoreticalValueEth string
	TheoreticalValueUsd string

	TVLEth float64
	TVLUsd float64

	Burned Supply
	Mined  Supply

	BlocksUntilHalving float64
	HoursUntilHalving  float64
	NextHalving        string
}

// Derive recomputes all metrics from scratch. balance is the native balance
// of the token contract in wei and price the ETH/USD rate.
//
// Division by a zero supply follows float semantics and yields Inf or NaN;
// no guarding is applied.
func Derive(s *snapshot.Snapshot, balance *big.Int, price float64) Derived {
	var d Derived
	d.Price = price

	tvlWei := new(big.Int).Add(orZero(balance), orZero(s.GasParams.EtherBalance))
	d.TVLEth = ToEther(tvlWei)
	d.TVLUsd = d.TVLEth * price

	d.IntrinsicValueEth = FormatFixed(ToEther(s.TokenValue), 10)
	d.IntrinsicValueUsd = FormatFixed(parseFixed(d.IntrinsicValueEth)*price, 6)

	supply := ToEther(s.TotalSupply)
	d.TheoreticalValueEth = FormatFixed(d.TVLEth/supply, 10)
	d.TheoreticalValueUsd = FormatFixed(parseFixed(d.TheoreticalValueEth)*price, 6)

	d.Burned = Burned(s.MaxSupply)
	d.Mined = Mined(d.Burned, s.TotalSupply)

	d.BlocksUntilHalving = BlocksUntilHalving(s.LastHalvingBlock, s.HalvingInterval, s.BlockNumber)
	d.HoursUntilHalving = d.BlocksUntilHalving * BlockTimeSeconds / 3600
	d.NextHalving = FormatTimeUntil(d.HoursUntilHalving)
	return d
}

// Burned is the part of the initial supply cap removed from maxSupply.
func Burned(maxSupply *big.Int) Supply {
	amount := InitialMaxSupply - ToEther(maxSupply)
	return Supply{Amount: amount, Percentage: percentOfCap(amount)}
}

// Mined counts the circulating supply plus what was burned.
func Mined(burned Supply, totalSupply *big.Int) Supply {
	amount := burned.Amount + ToEther(totalSupply)
	return Supply{Amount: amount, Percentage: percentOfCap(amount)}
}

// BlocksUntilHalving returns (lastHalving + interval) - current. It is
// negative when the contract is overdue for a halving.
func BlocksUntilHalving(lastHalving, interval, current *big.Int) float64 {
	next := new(big.Int).Add(orZero(lastHalving), orZero(interval))
	next.Sub(next, orZero(current))
	f, _ := new(big.Float).SetInt(next).Float64()
	return f
}

// RewardAtBlock is the block reward in whole tokens at block n: the initial
// reward halved once per elapsed interval.
func RewardAtBlock(n uint64) float64 {
	reward := float64(InitialReward)
	for i := uint64(0); i < n/HalvingInterval; i++ {
		reward /= 2
	}
	return reward
}

// ToEther converts an 18-decimal base unit amount to the nearest float.
func ToEther(wei *big.Int) float64 {
	f, _ := decimal.NewFromBigInt(orZero(wei), -18).Float64()
	return f
}

func percentOfCap(amount float64) string {
	return FormatFixed(amount/InitialMaxSupply*100, 2)
}

func orZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x
}
