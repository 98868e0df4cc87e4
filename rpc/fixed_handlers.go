package rpc

import (
	"net/http"

	"stakeshare/observability"
)

type fixedConvertParams struct {
	Caller string `json:"caller"`
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

func (s *Server) handleFixedStakeAndConvert(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params fixedConvertParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
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
	shares, err := s.engine.StakeAndConvertToFixed(caller, holder, amount)
	observability.Engine().RecordOperation("fixed_stakeAndConvert", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "stakeAndConvert failed", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"shares": formatAmount(shares)})
}

func (s *Server) handleConvertToFixed(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params fixedConvertParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
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
	shares, err := s.engine.ConvertToFixed(caller, holder, amount)
	observability.Engine().RecordOperation("fixed_convertToFixed", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "convertToFixed failed", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"shares": formatAmount(shares)})
}

type fixedSharesParams struct {
	Caller string `json:"caller"`
	Holder string `json:"holder"`
	Shares string `json:"shares"`
}

func (s *Server) handleConvertToRebasing(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params fixedSharesParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	holder, err := decodeAddress(params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid holder address", err.Error())
		return
	}
	shares, err := parseAmount(params.Shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	value, err := s.engine.ConvertToRebasing(caller, holder, shares)
	observability.Engine().RecordOperation("fixed_convertToRebasing", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "convertToRebasing failed", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"value": formatAmount(value)})
}

type fixedTransferParams struct {
	Caller string `json:"caller"`
	From   string `json:"from"`
	To     string `json:"to"`
	Shares string `json:"shares"`
}

func (s *Server) handleFixedTransfer(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params fixedTransferParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	caller, err := decodeAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
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
	shares, err := parseAmount(params.Shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	value, err := s.engine.TransferFixed(caller, from, to, shares)
	observability.Engine().RecordOperation("fixed_transfer", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "fixed transfer failed", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"value": formatAmount(value)})
}
