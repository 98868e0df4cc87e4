package rpc

import (
	"net/http"
	"strings"

	"stakeshare/native/staker"
	"stakeshare/observability"
)

type stakeParams struct {
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

type stakeResult struct {
	Balance string `json:"balance"`
	Shares  string `json:"shares"`
}

func (s *Server) handleStake(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params stakeParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	holder, err := decodeAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid holder address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	diff, err := s.engine.Stake(holder, amount)
	observability.Engine().RecordOperation("lst_stake", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "stake failed", err.Error())
		return
	}
	shares, err := s.engine.SharesOf(holder)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load shares", err.Error())
		return
	}
	writeResult(w, req.ID, stakeResult{Balance: formatAmount(diff), Shares: formatAmount(shares)})
}

type unstakeParams struct {
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

type unstakeResult struct {
	Gated        bool   `json:"gated"`
	WithdrawalID uint64 `json:"withdrawalId,omitempty"`
}

func (s *Server) handleUnstake(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params unstakeParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	holder, err := decodeAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid holder address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	receipt, err := s.engine.Unstake(holder, amount)
	observability.Engine().RecordOperation("lst_unstake", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "unstake failed", err.Error())
		return
	}
	if receipt.Gated {
		observability.Engine().RecordGatedWithdrawal()
	}
	writeResult(w, req.ID, unstakeResult{Gated: receipt.Gated, WithdrawalID: receipt.WithdrawalID})
}

type transferParams struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Value    string `json:"value"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params transferParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	sender, err := decodeAddress(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid sender address", err.Error())
		return
	}
	receiver, err := decodeAddress(params.Receiver)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid receiver address", err.Error())
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.Transfer(sender, receiver, value)
	observability.Engine().RecordOperation("lst_transfer", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "transfer failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type transferExactResult struct {
	SenderDecrease   string `json:"senderDecrease"`
	ReceiverIncrease string `json:"receiverIncrease"`
}

func (s *Server) handleTransferExact(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params transferParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	sender, err := decodeAddress(params.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid sender address", err.Error())
		return
	}
	receiver, err := decodeAddress(params.Receiver)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid receiver address", err.Error())
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	senderDec, receiverInc, err := s.engine.TransferExact(sender, receiver, value)
	observability.Engine().RecordOperation("lst_transferExact", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "transfer failed", err.Error())
		return
	}
	writeResult(w, req.ID, transferExactResult{
		SenderDecrease:   formatAmount(senderDec),
		ReceiverIncrease: formatAmount(receiverInc),
	})
}

type transferFromParams struct {
	Spender string `json:"spender"`
	From    string `json:"from"`
	To      string `json:"to"`
	Value   string `json:"value"`
}

func (s *Server) handleTransferFrom(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params transferFromParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	spender, err := decodeAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender address", err.Error())
		return
	}
	from, err := decodeAddress(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
		return
	}
	to, err := decodeAddress(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid to address", err.Error())
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.TransferFrom(spender, from, to, value)
	observability.Engine().RecordOperation("lst_transferFrom", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "transferFrom failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type approveParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Value   string `json:"value"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params approveParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	owner, err := decodeAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	spender, err := decodeAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender address", err.Error())
		return
	}
	value, err := parseOptionalAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.Approve(owner, spender, value)
	observability.Engine().RecordOperation("lst_approve", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "approve failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type permitParams struct {
	Owner     string `json:"owner"`
	Spender   string `json:"spender"`
	Value     string `json:"value"`
	Nonce     uint64 `json:"nonce"`
	Deadline  uint64 `json:"deadline"`
	Signature string `json:"signature"`
}

func (s *Server) handlePermit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params permitParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	owner, err := decodeAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	spender, err := decodeAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender address", err.Error())
		return
	}
	value, err := parseOptionalAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	sig, err := decodeSignature(params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.Permit(owner, spender, value, params.Nonce, params.Deadline, sig)
	observability.Engine().RecordOperation("lst_permit", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "permit failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type addressParams struct {
	Address string `json:"address"`
}

func (s *Server) handlePermitNonce(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addressParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	owner, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	nonce, err := s.engine.PermitNonce(owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load nonce", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]uint64{"nonce": nonce})
}

type updateDelegationParams struct {
	Holder    string `json:"holder"`
	Delegatee string `json:"delegatee,omitempty"`
}

func (s *Server) handleUpdateDelegation(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params updateDelegationParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	holder, err := decodeAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid holder address", err.Error())
		return
	}
	delegatee, err := decodeOptionalAddress(params.Delegatee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid delegatee address", err.Error())
		return
	}
	err = s.engine.UpdateDelegation(holder, delegatee)
	observability.Engine().RecordOperation("lst_updateDelegation", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "updateDelegation failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type updateDepositParams struct {
	Holder  string `json:"holder"`
	Deposit uint64 `json:"deposit"`
}

func (s *Server) handleUpdateDeposit(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params updateDepositParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	holder, err := decodeAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid holder address", err.Error())
		return
	}
	err = s.engine.UpdateDeposit(holder, staker.DepositID(params.Deposit))
	observability.Engine().RecordOperation("lst_updateDeposit", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "updateDeposit failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type claimRewardsParams struct {
	Caller      string   `json:"caller"`
	Recipient   string   `json:"recipient"`
	MinExpected string   `json:"minExpected"`
	Deposits    []uint64 `json:"deposits"`
}

func (s *Server) handleClaimRewards(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params claimRewardsParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	recipient := caller
	if strings.TrimSpace(params.Recipient) != "" {
		recipient, err = decodeAddress(params.Recipient)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
			return
		}
	}
	minExpected, err := parseOptionalAmount(params.MinExpected)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	ids := make([]staker.DepositID, 0, len(params.Deposits))
	for _, id := range params.Deposits {
		ids = append(ids, staker.DepositID(id))
	}
	claimed, err := s.engine.ClaimAndDistributeReward(caller, recipient, minExpected, ids)
	observability.Engine().RecordOperation("lst_claimRewards", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "claimRewards failed", err.Error())
		return
	}
	observability.Engine().RecordRewardDistribution()
	writeResult(w, req.ID, map[string]string{"claimed": formatAmount(claimed)})
}

func (s *Server) handleBalanceOf(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addressParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	addr, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	balance, err := s.engine.BalanceOf(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load balance", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": formatAmount(balance)})
}

func (s *Server) handleSharesOf(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addressParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	addr, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	shares, err := s.engine.SharesOf(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load shares", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"shares": formatAmount(shares)})
}

type holderResult struct {
	Address    string `json:"address"`
	Deposit    uint64 `json:"deposit"`
	Checkpoint string `json:"checkpoint"`
	Shares     string `json:"shares"`
	Balance    string `json:"balance"`
}

func (s *Server) handleHolder(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addressParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	addr, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	rec, err := s.engine.HolderView(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load holder", err.Error())
		return
	}
	balance, err := s.engine.BalanceOf(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load balance", err.Error())
		return
	}
	result := holderResult{Address: params.Address, Balance: formatAmount(balance)}
	if rec != nil {
		result.Deposit = uint64(rec.Deposit)
		result.Checkpoint = formatAmount(rec.Checkpoint)
		result.Shares = formatAmount(rec.Shares)
	} else {
		result.Checkpoint = "0"
		result.Shares = "0"
	}
	writeResult(w, req.ID, result)
}

type totalsResult struct {
	Supply string `json:"supply"`
	Shares string `json:"shares"`
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	supply, err := s.engine.TotalSupply()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load totals", err.Error())
		return
	}
	shares, err := s.engine.TotalShares()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load totals", err.Error())
		return
	}
	writeResult(w, req.ID, totalsResult{Supply: formatAmount(supply), Shares: formatAmount(shares)})
}

type tokenInfoResult struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	writeResult(w, req.ID, tokenInfoResult{
		Name:     s.engine.Name(),
		Symbol:   s.engine.Symbol(),
		Decimals: s.engine.Decimals(),
	})
}

type allowanceParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params allowanceParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	owner, err := decodeAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	spender, err := decodeAddress(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender address", err.Error())
		return
	}
	value, err := s.engine.Allowance(owner, spender)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load allowance", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"allowance": formatAmount(value)})
}

type rewardParamsResult struct {
	PayoutAmount string `json:"payoutAmount"`
	FeeBips      uint64 `json:"feeBips"`
	FeeCollector string `json:"feeCollector,omitempty"`
}

func (s *Server) handleRewardParams(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	params, err := s.engine.RewardParametersView()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load reward parameters", err.Error())
		return
	}
	result := rewardParamsResult{
		PayoutAmount: formatAmount(params.PayoutAmount),
		FeeBips:      params.FeeBips,
	}
	if !params.FeeCollector.IsZero() {
		result.FeeCollector = params.FeeCollector.String()
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleDepositFor(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params addressParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	delegatee, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid delegatee address", err.Error())
		return
	}
	id, ok, err := s.engine.DepositForDelegatee(delegatee)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to resolve deposit", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]interface{}{"deposit": uint64(id), "exists": ok})
}
