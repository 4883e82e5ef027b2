// Copyright (c) 2026 The Stasis developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package client provides an HTTP client for the stake ledger API. It offers
// typed methods for stake, delegation and vote queries and event filtering.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	apistaking "github.com/stasisprotocol/stasis/api/staking"
	"github.com/stasisprotocol/stasis/eventdb"
	"github.com/stasisprotocol/stasis/health"
	"github.com/stasisprotocol/stasis/staking"
	"github.com/stasisprotocol/stasis/stasis"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNot200Status = errors.New("not 200 status code")
)

// Client talks to one ledger node.
type Client struct {
	url string
	c   *http.Client
}

// New creates a new Client with the provided URL.
func New(url string) *Client {
	return NewWithHTTP(url, http.DefaultClient)
}

func NewWithHTTP(url string, c *http.Client) *Client {
	return &Client{
		url: url,
		c:   c,
	}
}

// blockQuery renders the optional block selector, empty string for best.
func blockQuery(block uint32) string {
	if block == 0 {
		return ""
	}
	return "?block=" + strconv.FormatUint(uint64(block), 10)
}

// GetStakes retrieves every (lock date, balance) entry of the account.
func (c *Client) GetStakes(addr stasis.Address) ([]staking.AccountStake, error) {
	body, err := c.httpGET(c.url + "/staking/accounts/" + addr.String() + "/stakes")
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve stakes - %w", err)
	}
	var stakes []staking.AccountStake
	if err = json.Unmarshal(body, &stakes); err != nil {
		return nil, fmt.Errorf("unable to unmarshal stakes - %w", err)
	}
	return stakes, nil
}

// GetBalance retrieves the account's total staked balance over all lock dates.
func (c *Client) GetBalance(addr stasis.Address) (*apistaking.BalanceResult, error) {
	body, err := c.httpGET(c.url + "/staking/accounts/" + addr.String() + "/balance")
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve balance - %w", err)
	}
	var balance apistaking.BalanceResult
	if err = json.Unmarshal(body, &balance); err != nil {
		return nil, fmt.Errorf("unable to unmarshal balance - %w", err)
	}
	return &balance, nil
}

// GetUserStake retrieves the account's stake at a lock date as of the given
// block, zero block for best.
func (c *Client) GetUserStake(addr stasis.Address, date uint64, block uint32) (*apistaking.StakeResult, error) {
	url := fmt.Sprintf("%s/staking/accounts/%v/stakes/%d%s", c.url, addr, date, blockQuery(block))
	return c.getStakeResult(url, "user stake")
}

// GetDelegatedStake retrieves the stake delegated to the account at a lock
// date as of the given block, zero block for best.
func (c *Client) GetDelegatedStake(addr stasis.Address, date uint64, block uint32) (*apistaking.StakeResult, error) {
	url := fmt.Sprintf("%s/staking/accounts/%v/delegated/%d%s", c.url, addr, date, blockQuery(block))
	return c.getStakeResult(url, "delegated stake")
}

// GetVotes retrieves the account's voting power as of the given block, zero
// block for best.
func (c *Client) GetVotes(addr stasis.Address, date uint64, block uint32) (*apistaking.StakeResult, error) {
	url := fmt.Sprintf("%s/staking/accounts/%v/votes/%d%s", c.url, addr, date, blockQuery(block))
	return c.getStakeResult(url, "votes")
}

// GetTotalStake retrieves the ledger-wide stake at a lock date as of the
// given block, zero block for best.
func (c *Client) GetTotalStake(date uint64, block uint32) (*apistaking.StakeResult, error) {
	url := fmt.Sprintf("%s/staking/total/%d%s", c.url, date, blockQuery(block))
	return c.getStakeResult(url, "total stake")
}

// GetVestingStake retrieves the aggregate vesting stake at a lock date as of
// the given block, zero block for best.
func (c *Client) GetVestingStake(date uint64, block uint32) (*apistaking.StakeResult, error) {
	url := fmt.Sprintf("%s/staking/vesting/%d%s", c.url, date, blockQuery(block))
	return c.getStakeResult(url, "vesting stake")
}

func (c *Client) getStakeResult(url, what string) (*apistaking.StakeResult, error) {
	body, err := c.httpGET(url)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve %s - %w", what, err)
	}
	var result apistaking.StakeResult
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unable to unmarshal %s - %w", what, err)
	}
	return &result, nil
}

// GetDelegate retrieves the delegate of the (account, lock date) pair.
func (c *Client) GetDelegate(addr stasis.Address, date uint64) (*apistaking.DelegateResult, error) {
	body, err := c.httpGET(fmt.Sprintf("%s/staking/accounts/%v/delegate/%d", c.url, addr, date))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve delegate - %w", err)
	}
	var result apistaking.DelegateResult
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unable to unmarshal delegate - %w", err)
	}
	return &result, nil
}

// GetNonce retrieves the account's delegation signature nonce.
func (c *Client) GetNonce(addr stasis.Address) (*apistaking.NonceResult, error) {
	body, err := c.httpGET(c.url + "/staking/accounts/" + addr.String() + "/nonce")
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve nonce - %w", err)
	}
	var result apistaking.NonceResult
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unable to unmarshal nonce - %w", err)
	}
	return &result, nil
}

// GetLockDate retrieves the lock date the timestamp buckets to.
func (c *Client) GetLockDate(ts uint64) (*apistaking.LockDateResult, error) {
	body, err := c.httpGET(fmt.Sprintf("%s/staking/lockdate/%d", c.url, ts))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve lock date - %w", err)
	}
	var result apistaking.LockDateResult
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unable to unmarshal lock date - %w", err)
	}
	return &result, nil
}

// GetConfig retrieves the ledger configuration and pause state.
func (c *Client) GetConfig() (*apistaking.Config, error) {
	body, err := c.httpGET(c.url + "/staking/config")
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve config - %w", err)
	}
	var config apistaking.Config
	if err = json.Unmarshal(body, &config); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config - %w", err)
	}
	return &config, nil
}

// FilterEvents queries ledger events with the given filter.
func (c *Client) FilterEvents(filter *eventdb.Filter) ([]*eventdb.Event, error) {
	body, err := c.httpPOST(c.url+"/events", filter)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events - %w", err)
	}
	var events []*eventdb.Event
	if err = json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("unable to unmarshal events - %w", err)
	}
	return events, nil
}

// GetHealth retrieves the node's health status.
func (c *Client) GetHealth() (*health.Status, error) {
	body, err := c.httpGET(c.url + "/health")
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve health - %w", err)
	}
	var status health.Status
	if err = json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("unable to unmarshal health - %w", err)
	}
	return &status, nil
}
