package rpc

import (
	"net/http"

	"stakeshare/native/lst"
	"stakeshare/native/staker"
	"stakeshare/observability"
)

func (s *Server) authorized(w http.ResponseWriter, r *http.Request, req *RPCRequest) bool {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return false
	}
	return true
}

type setRewardParams struct {
	Caller       string `json:"caller"`
	PayoutAmount string `json:"payoutAmount"`
	FeeBips      uint64 `json:"feeBips"`
	FeeCollector string `json:"feeCollector,omitempty"`
}

func (s *Server) handleSetRewardParameters(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.authorized(w, r, req) {
		return
	}
	var params setRewardParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	payout, err := parseAmount(params.PayoutAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	collector, err := decodeOptionalAddress(params.FeeCollector)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid fee collector", err.Error())
		return
	}
	err = s.engine.SetRewardParameters(caller, lst.RewardParameters{
		PayoutAmount: payout,
		FeeBips:      params.FeeBips,
		FeeCollector: collector,
	})
	observability.Engine().RecordOperation("admin_setRewardParameters", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "setRewardParameters failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type callerAmountParams struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *Server) handleSetMaxOverrideTip(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.authorized(w, r, req) {
		return
	}
	var params callerAmountParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	tip, err := parseOptionalAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.SetMaxOverrideTip(caller, tip)
	observability.Engine().RecordOperation("admin_setMaxOverrideTip", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "setMaxOverrideTip failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type setBipsParams struct {
	Caller string `json:"caller"`
	Bips   uint64 `json:"bips"`
}

func (s *Server) handleSetMinQualifying(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.authorized(w, r, req) {
		return
	}
	var params setBipsParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	err = s.engine.SetMinQualifyingBips(caller, params.Bips)
	observability.Engine().RecordOperation("admin_setMinQualifying", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "setMinQualifyingBips failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type callerAddressParams struct {
	Caller  string `json:"caller"`
	Address string `json:"address"`
}

func (s *Server) handleSetFixedCaller(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.authorized(w, r, req) {
		return
	}
	var params callerAddressParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	wrapper, err := decodeOptionalAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid wrapper address", err.Error())
		return
	}
	err = s.engine.SetFixedCaller(caller, wrapper)
	observability.Engine().RecordOperation("admin_setFixedCaller", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "setFixedCaller failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleSetDefaultDelegatee(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.authorized(w, r, req) {
		return
	}
	var params callerAddressParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	delegatee, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid delegatee address", err.Error())
		return
	}
	err = s.engine.SetDefaultDelegatee(caller, delegatee)
	observability.Engine().RecordOperation("admin_setDefaultDelegatee", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "setDefaultDelegatee failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleSetGuardian(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.authorized(w, r, req) {
		return
	}
	var params callerAddressParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	guardian, err := decodeAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid guardian address", err.Error())
		return
	}
	err = s.engine.SetGuardian(caller, guardian)
	observability.Engine().RecordOperation("admin_setGuardian", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "setGuardian failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type setDelayParams struct {
	Caller       string `json:"caller"`
	DelaySeconds uint64 `json:"delaySeconds"`
}

func (s *Server) handleSetGateDelay(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.authorized(w, r, req) {
		return
	}
	var params setDelayParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	err = s.gate.SetDelay(caller, params.DelaySeconds)
	observability.Engine().RecordOperation("admin_setGateDelay", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "setDelay failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type setScoreParams struct {
	Delegatee string `json:"delegatee"`
	Bips      uint64 `json:"bips"`
}

func (s *Server) handleStakerSetScore(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.authorized(w, r, req) {
		return
	}
	var params setScoreParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	delegatee, err := decodeAddress(params.Delegatee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid delegatee address", err.Error())
		return
	}
	err = s.staking.SetDelegateeScore(delegatee, params.Bips)
	observability.Engine().RecordOperation("staker_setScore", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "setScore failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type accrueParams struct {
	Deposit uint64 `json:"deposit"`
	Amount  string `json:"amount"`
}

func (s *Server) handleStakerAccrue(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if !s.authorized(w, r, req) {
		return
	}
	var params accrueParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.staking.AccrueReward(staker.DepositID(params.Deposit), amount)
	observability.Engine().RecordOperation("staker_accrueReward", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "accrueReward failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}
