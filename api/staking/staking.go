// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stasisprotocol/stasis/api/utils"
	"github.com/stasisprotocol/stasis/cache"
	"github.com/stasisprotocol/stasis/staking"
	"github.com/stasisprotocol/stasis/staking/reverts"
	"github.com/stasisprotocol/stasis/stasis"
)

// BestFunc reports the latest committed block number.
type BestFunc func() uint32

// Staking exposes the read side of the stake ledger over HTTP.
type Staking struct {
	ledger *staking.Staking
	best   BestFunc
	votes  *cache.LRU
}

func New(ledger *staking.Staking, best BestFunc) *Staking {
	// vote queries at past blocks are immutable, so they cache well
	votes, _ := cache.NewLRU(1024)
	return &Staking{
		ledger: ledger,
		best:   best,
		votes:  votes,
	}
}

// parseAddress reads a path variable as an address.
func parseAddress(req *http.Request, name string) (stasis.Address, error) {
	addr, err := stasis.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return stasis.Address{}, utils.BadRequest(errors.WithMessage(err, name))
	}
	return *addr, nil
}

// parseUint64 reads a path variable as a decimal uint64.
func parseUint64(req *http.Request, name string) (uint64, error) {
	v, err := strconv.ParseUint(mux.Vars(req)[name], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

// parseBlock reads the optional block query parameter. It defaults to the
// best block, and rejects anything beyond it.
func (s *Staking) parseBlock(req *http.Request) (block, current uint32, err error) {
	bestNum := s.best()
	current = bestNum + 1

	val := req.URL.Query().Get("block")
	if val == "" {
		return bestNum, current, nil
	}
	n, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, 0, utils.BadRequest(errors.WithMessage(err, "block"))
	}
	if uint32(n) > bestNum {
		return 0, 0, utils.BadRequest(fmt.Errorf("block %d is beyond the best block %d", n, bestNum))
	}
	return uint32(n), current, nil
}

// convertErr maps ledger errors to http errors. Revert errors are caller
// mistakes, everything else is an infrastructure failure.
func convertErr(err error) error {
	if reverts.IsRevertErr(err) {
		return utils.BadRequest(err)
	}
	return err
}

// StakeResult is a stake amount evaluated at a block.
type StakeResult struct {
	Block uint32   `json:"block"`
	Stake *big.Int `json:"stake"`
}

// BalanceResult is an account's total staked balance.
type BalanceResult struct {
	Balance *big.Int `json:"balance"`
}

// DelegateResult names the delegate of an (account, lock date) pair.
type DelegateResult struct {
	Delegate stasis.Address `json:"delegate"`
}

// NonceResult is an account's delegation signature nonce.
type NonceResult struct {
	Nonce uint64 `json:"nonce"`
}

// LockDateResult is the lock date a timestamp buckets to.
type LockDateResult struct {
	LockDate uint64 `json:"lockDate"`
}

func (s *Staking) handleGetStakes(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	stakes, err := s.ledger.GetStakes(addr)
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, stakes)
}

func (s *Staking) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	balance, err := s.ledger.BalanceOf(addr)
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, &BalanceResult{Balance: balance})
}

func (s *Staking) handleGetUserStake(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	date, err := parseUint64(req, "date")
	if err != nil {
		return err
	}
	block, current, err := s.parseBlock(req)
	if err != nil {
		return err
	}
	stake, err := s.ledger.GetPriorUserStakeByDate(addr, date, block, current)
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, &StakeResult{Block: block, Stake: stake})
}

func (s *Staking) handleGetDelegateeStake(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	date, err := parseUint64(req, "date")
	if err != nil {
		return err
	}
	block, current, err := s.parseBlock(req)
	if err != nil {
		return err
	}
	stake, err := s.ledger.GetPriorStakeByDateForDelegatee(addr, date, block, current)
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, &StakeResult{Block: block, Stake: stake})
}

func (s *Staking) handleGetDelegate(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	date, err := parseUint64(req, "date")
	if err != nil {
		return err
	}
	delegatee, err := s.ledger.DelegateOf(addr, date)
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, &DelegateResult{Delegate: delegatee})
}

func (s *Staking) handleGetVotes(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	date, err := parseUint64(req, "date")
	if err != nil {
		return err
	}
	block, current, err := s.parseBlock(req)
	if err != nil {
		return err
	}

	load := func(any) (any, error) {
		votes, err := s.ledger.GetPriorVotes(addr, date, block, current)
		if err != nil {
			return nil, err
		}
		return &StakeResult{Block: block, Stake: votes}, nil
	}

	// only fully settled blocks are safe to cache
	var resp any
	if block < current-1 {
		resp, err = s.votes.GetOrLoad(fmt.Sprintf("%v/%d/%d", addr, date, block), load)
	} else {
		resp, err = load(nil)
	}
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, resp)
}

func (s *Staking) handleGetNonce(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	nonce, err := s.ledger.SigNonce(addr)
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, &NonceResult{Nonce: nonce})
}

func (s *Staking) handleGetTotalStake(w http.ResponseWriter, req *http.Request) error {
	date, err := parseUint64(req, "date")
	if err != nil {
		return err
	}
	block, current, err := s.parseBlock(req)
	if err != nil {
		return err
	}
	stake, err := s.ledger.GetPriorTotalStakesForDate(date, block, current)
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, &StakeResult{Block: block, Stake: stake})
}

func (s *Staking) handleGetVestingStake(w http.ResponseWriter, req *http.Request) error {
	date, err := parseUint64(req, "date")
	if err != nil {
		return err
	}
	block, current, err := s.parseBlock(req)
	if err != nil {
		return err
	}
	stake, err := s.ledger.GetPriorVestingStakeByDate(date, block, current)
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, &StakeResult{Block: block, Stake: stake})
}

func (s *Staking) handleGetLockDate(w http.ResponseWriter, req *http.Request) error {
	ts, err := parseUint64(req, "timestamp")
	if err != nil {
		return err
	}
	date, err := s.ledger.TimestampToLockDate(ts)
	if err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, &LockDateResult{LockDate: date})
}

// Config is the ledger configuration and pause state.
type Config struct {
	Owner                        stasis.Address `json:"owner"`
	FeeCollector                 stasis.Address `json:"feeCollector"`
	Kickoff                      uint64         `json:"kickoff"`
	WeightScaling                uint64         `json:"weightScaling"`
	MaxVestingWithdrawIterations uint32         `json:"maxVestingWithdrawIterations"`
	Paused                       bool           `json:"paused"`
	Frozen                       bool           `json:"frozen"`
}

func (s *Staking) handleGetConfig(w http.ResponseWriter, _ *http.Request) error {
	var (
		resp Config
		err  error
	)
	if resp.Owner, err = s.ledger.Owner(); err != nil {
		return convertErr(err)
	}
	if resp.FeeCollector, err = s.ledger.FeeCollector(); err != nil {
		return convertErr(err)
	}
	if resp.Kickoff, err = s.ledger.Kickoff(); err != nil {
		return convertErr(err)
	}
	if resp.WeightScaling, err = s.ledger.WeightScaling(); err != nil {
		return convertErr(err)
	}
	if resp.MaxVestingWithdrawIterations, err = s.ledger.MaxVestingWithdrawIterations(); err != nil {
		return convertErr(err)
	}
	if resp.Paused, err = s.ledger.IsPaused(); err != nil {
		return convertErr(err)
	}
	if resp.Frozen, err = s.ledger.IsFrozen(); err != nil {
		return convertErr(err)
	}
	return utils.WriteJSON(w, &resp)
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/accounts/{address}/stakes").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}/stakes").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStakes))
	sub.Path("/accounts/{address}/balance").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}/balance").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetBalance))
	sub.Path("/accounts/{address}/stakes/{date}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}/stakes/{date}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetUserStake))
	sub.Path("/accounts/{address}/delegated/{date}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}/delegated/{date}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDelegateeStake))
	sub.Path("/accounts/{address}/delegate/{date}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}/delegate/{date}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDelegate))
	sub.Path("/accounts/{address}/votes/{date}").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}/votes/{date}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetVotes))
	sub.Path("/accounts/{address}/nonce").
		Methods(http.MethodGet).
		Name("GET /staking/accounts/{address}/nonce").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetNonce))
	sub.Path("/total/{date}").
		Methods(http.MethodGet).
		Name("GET /staking/total/{date}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTotalStake))
	sub.Path("/vesting/{date}").
		Methods(http.MethodGet).
		Name("GET /staking/vesting/{date}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetVestingStake))
	sub.Path("/lockdate/{timestamp}").
		Methods(http.MethodGet).
		Name("GET /staking/lockdate/{timestamp}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetLockDate))
	sub.Path("/config").
		Methods(http.MethodGet).
		Name("GET /staking/config").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetConfig))
}
