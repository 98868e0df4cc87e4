package rpc

import (
	"net/http"

	"stakeshare/observability"
)

type gateCompleteParams struct {
	Caller     string `json:"caller"`
	Withdrawal uint64 `json:"withdrawal"`
}

func (s *Server) handleGateComplete(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params gateCompleteParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	err = s.gate.CompleteWithdrawal(caller, params.Withdrawal)
	observability.Engine().RecordOperation("gate_completeWithdrawal", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "completeWithdrawal failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type gateCompleteSigParams struct {
	Withdrawal uint64 `json:"withdrawal"`
	Deadline   uint64 `json:"deadline"`
	Signature  string `json:"signature"`
}

func (s *Server) handleGateCompleteWithSig(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params gateCompleteSigParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	sig, err := decodeSignature(params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.gate.CompleteWithdrawalWithSig(params.Withdrawal, params.Deadline, sig)
	observability.Engine().RecordOperation("gate_completeWithSig", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "completeWithSig failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type gatePendingResult struct {
	ID          uint64 `json:"id"`
	Receiver    string `json:"receiver"`
	Amount      string `json:"amount"`
	AvailableAt uint64 `json:"availableAt"`
}

func (s *Server) handleGatePending(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params struct {
		Withdrawal uint64 `json:"withdrawal"`
	}
	if !decodeSingleParam(w, req, &params) {
		return
	}
	pending, err := s.gate.PendingWithdrawal(params.Withdrawal)
	if err != nil {
		writeError(w, http.StatusNotFound, req.ID, codeServerError, "withdrawal not found", err.Error())
		return
	}
	writeResult(w, req.ID, gatePendingResult{
		ID:          pending.ID,
		Receiver:    pending.Receiver.String(),
		Amount:      formatAmount(pending.Amount),
		AvailableAt: pending.AvailableAt,
	})
}

func (s *Server) handleGateDelay(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	delay, err := s.gate.DelaySeconds()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load delay", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]uint64{"delaySeconds": delay})
}
