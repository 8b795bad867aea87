package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ricks/explorer"
	"ricks/native/auction"
)

func decodeBody(r *http.Request, out interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

func decodeAmount(r *http.Request) (*big.Int, error) {
	var req AmountRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, badRequest(err)
	}
	return amount, nil
}

func mustCaller(r *http.Request) [20]byte {
	caller, _ := callerFrom(r.Context())
	return caller
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := writeError(w, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) handleAuction(w http.ResponseWriter, r *http.Request) {
	current, err := s.vault.Auction()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result := auctionResult(current)
	if result.Settleable, err = s.vault.IsSettleable(); err != nil {
		s.fail(w, r, err)
		return
	}
	switch current.State {
	case auction.StateActive:
		if next, err := s.vault.MinNextBid(); err == nil {
			result.MinNextBid = next.String()
		}
	case auction.StateInactive:
		if mint, err := s.vault.NextMintAmount(); err == nil {
			result.NextMint = mint.String()
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAveragePrice(w http.ResponseWriter, r *http.Request) {
	avg, err := s.vault.AveragePrice()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"averagePrice": avg.String()})
}

func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	prices, settled, err := s.vault.PriceHistory()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result := PriceHistoryResult{Prices: make([]string, 0, len(prices)), Settled: settled}
	for _, price := range prices {
		result.Prices = append(result.Prices, formatAmount(price))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBuyout(w http.ResponseWriter, r *http.Request) {
	record, err := s.vault.BuyoutRecord()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buyoutResult(record))
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		s.fail(w, r, badRequest(err))
		return
	}
	balances, err := s.vault.Balances(addr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balancesResult(addr, balances))
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeStatus(w, http.StatusServiceUnavailable, "archive disabled")
		return
	}
	query := r.URL.Query()
	filter := explorer.Filter{
		Type:    query.Get("type"),
		Account: query.Get("account"),
	}
	if raw := query.Get("after"); raw != "" {
		after, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			s.fail(w, r, badRequest(errors.New("invalid after cursor")))
			return
		}
		filter.After = after
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			s.fail(w, r, badRequest(errors.New("invalid limit")))
			return
		}
		filter.Limit = limit
	}
	records, err := s.archive.Query(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views := make([]explorer.EventView, 0, len(records))
	for _, record := range records {
		views = append(views, explorer.View(record))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	if err := s.vault.Activate(r.Context(), mustCaller(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.handleAuction(w, r)
}

func (s *Server) handleStartAuction(w http.ResponseWriter, r *http.Request) {
	amount, err := decodeAmount(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	started, err := s.vault.StartAuction(r.Context(), mustCaller(r), amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, auctionResult(started))
}

func (s *Server) handleBid(w http.ResponseWriter, r *http.Request) {
	amount, err := decodeAmount(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.vault.Bid(r.Context(), mustCaller(r), amount); err != nil {
		s.fail(w, r, err)
		return
	}
	s.handleAuction(w, r)
}

func (s *Server) handleEndAuction(w http.ResponseWriter, r *http.Request) {
	settlement, err := s.vault.EndAuction(r.Context(), mustCaller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settlementResult(settlement))
}

func (s *Server) handleExecuteBuyout(w http.ResponseWriter, r *http.Request) {
	amount, err := decodeAmount(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	record, err := s.vault.Buyout(r.Context(), mustCaller(r), amount)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buyoutResult(record))
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	paid, err := s.vault.Redeem(r.Context(), mustCaller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"paid": paid.String()})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	amount, err := s.vault.Withdraw(r.Context(), mustCaller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"amount": amount.String()})
}

func (s *Server) handleWrap(w http.ResponseWriter, r *http.Request) {
	s.amountCall(w, r, s.vault.Wrap)
}

func (s *Server) handleUnwrap(w http.ResponseWriter, r *http.Request) {
	s.amountCall(w, r, s.vault.UnwrapWeth)
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request) {
	s.amountCall(w, r, s.vault.Stake)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.amountCall(w, r, s.vault.DepositReward)
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request) {
	amount, reward, err := s.vault.Unstake(r.Context(), mustCaller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UnstakeResult{Amount: amount.String(), Reward: reward.String()})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	reward, err := s.vault.ClaimRewards(r.Context(), mustCaller(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reward": reward.String()})
}

func (s *Server) handleTransferShares(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		s.fail(w, r, badRequest(err))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.fail(w, r, badRequest(err))
		return
	}
	caller := mustCaller(r)
	if err := s.vault.TransferShares(r.Context(), caller, to, amount); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeBalances(w, r, caller)
}

type amountOp func(ctx context.Context, caller [20]byte, amount *big.Int) error

// amountCall runs op with the decoded amount and replies with the caller's
// balances.
func (s *Server) amountCall(w http.ResponseWriter, r *http.Request, op amountOp) {
	amount, err := decodeAmount(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	caller := mustCaller(r)
	if err := op(r.Context(), caller, amount); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeBalances(w, r, caller)
}

func (s *Server) writeBalances(w http.ResponseWriter, r *http.Request, addr [20]byte) {
	balances, err := s.vault.Balances(addr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balancesResult(addr, balances))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.vault.SetPaused(r.Context(), req.Module, req.Paused); err != nil {
		s.fail(w, r, err)
		return
	}
	subject, _ := r.Context().Value(adminContextKey).(string)
	s.logger.Warn("module pause changed", "module", strings.ToLower(req.Module), "paused", req.Paused, "admin", subject)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"module": strings.ToLower(strings.TrimSpace(req.Module)),
		"paused": s.vault.Paused(req.Module),
	})
}

func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.EnableFaucet {
		writeStatus(w, http.StatusForbidden, "faucet disabled")
		return
	}
	var req FaucetRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	addr, err := parseAddress(req.Address)
	if err != nil {
		s.fail(w, r, badRequest(err))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.fail(w, r, badRequest(err))
		return
	}
	if err := s.vault.Faucet(r.Context(), addr, amount); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeBalances(w, r, addr)
}
