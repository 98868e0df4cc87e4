package rpc

import (
	"net/http"

	"stakeshare/native/staker"
	"stakeshare/observability"
)

type overrideParams struct {
	Deposit     uint64 `json:"deposit"`
	TipReceiver string `json:"tipReceiver"`
	Tip         string `json:"tip"`
}

func (s *Server) handleEnactOverride(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params overrideParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	receiver, err := decodeAddress(params.TipReceiver)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid tip receiver", err.Error())
		return
	}
	tip, err := parseOptionalAmount(params.Tip)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.EnactOverride(staker.DepositID(params.Deposit), receiver, tip)
	observability.Engine().RecordOperation("lst_enactOverride", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "enactOverride failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type revokeOverrideParams struct {
	Deposit           uint64 `json:"deposit"`
	OriginalDelegatee string `json:"originalDelegatee"`
	TipReceiver       string `json:"tipReceiver"`
	Tip               string `json:"tip"`
}

func (s *Server) handleRevokeOverride(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params revokeOverrideParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	original, err := decodeAddress(params.OriginalDelegatee)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid original delegatee", err.Error())
		return
	}
	receiver, err := decodeAddress(params.TipReceiver)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid tip receiver", err.Error())
		return
	}
	tip, err := parseOptionalAmount(params.Tip)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.RevokeOverride(staker.DepositID(params.Deposit), original, receiver, tip)
	observability.Engine().RecordOperation("lst_revokeOverride", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "revokeOverride failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleMigrateOverride(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params overrideParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	receiver, err := decodeAddress(params.TipReceiver)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid tip receiver", err.Error())
		return
	}
	tip, err := parseOptionalAmount(params.Tip)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.engine.MigrateOverride(staker.DepositID(params.Deposit), receiver, tip)
	observability.Engine().RecordOperation("lst_migrateOverride", err)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeServerError, "migrateOverride failed", err.Error())
		return
	}
	writeResult(w, req.ID, true)
}

type depositIDParams struct {
	Deposit uint64 `json:"deposit"`
}

func (s *Server) handleIsOverridden(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	var params depositIDParams
	if !decodeSingleParam(w, req, &params) {
		return
	}
	flagged, err := s.engine.IsOverridden(staker.DepositID(params.Deposit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load override", err.Error())
		return
	}
	writeResult(w, req.ID, map[string]bool{"overridden": flagged})
}
