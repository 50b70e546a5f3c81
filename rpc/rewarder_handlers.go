package rpc

import (
	"encoding/json"
	"errors"

	"github.com/baseddev11/basedRewarder/native/rewarder"
)

type fillParams struct {
	Caller string `json:"caller"`
	Day    uint64 `json:"day"`
	Amount string `json:"amount"`
}

func (s *Server) rewarderFill(params []json.RawMessage) (interface{}, *rpcError) {
	var p fillParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	if err := s.engine.Fill(caller, p.Day, amount); err != nil {
		return nil, errorFor(err)
	}
	s.metrics.ObserveFill()
	total, err := s.engine.TotalReward(p.Day)
	if err != nil {
		return nil, errorFor(err)
	}
	return map[string]string{"totalReward": total.String()}, nil
}

type claimParams struct {
	Caller       string `json:"caller"`
	Day          uint64 `json:"day"`
	Cumulative   string `json:"cumulative"`
	SigTimestamp uint64 `json:"sigTimestamp"`
	Signature    string `json:"signature"`
}

func (s *Server) rewarderClaim(params []json.RawMessage) (interface{}, *rpcError) {
	var p claimParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	cumulative, err := parseAmount(p.Cumulative)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	signature, err := parseSignature(p.Signature)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	att := &rewarder.ClaimAttestation{Timestamp: p.SigTimestamp, Signature: signature}
	paid, err := s.engine.Claim(caller, p.Day, cumulative, att)
	if err != nil {
		s.metrics.ObserveClaimReject(rejectReason(err))
		return nil, errorFor(err)
	}
	s.metrics.ObserveClaim()
	return map[string]string{"paid": paid.String()}, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, rewarder.ErrNothingToClaim):
		return "nothing_to_claim"
	case errors.Is(err, rewarder.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, rewarder.ErrStaleAttestation):
		return "stale_attestation"
	case errors.Is(err, rewarder.ErrNoTokenInUse):
		return "no_token_in_use"
	default:
		return "other"
	}
}

type setRewardTokenParams struct {
	Caller string `json:"caller"`
	Symbol string `json:"symbol"`
}

func (s *Server) rewarderSetRewardToken(params []json.RawMessage) (interface{}, *rpcError) {
	var p setRewardTokenParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	if err := s.engine.SetRewardToken(caller, p.Symbol); err != nil {
		return nil, errorFor(err)
	}
	return map[string]bool{"ok": true}, nil
}

type dayParams struct {
	Day uint64 `json:"day"`
}

func (s *Server) rewarderTotalReward(params []json.RawMessage) (interface{}, *rpcError) {
	var p dayParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	total, err := s.engine.TotalReward(p.Day)
	if err != nil {
		return nil, errorFor(err)
	}
	return map[string]string{"totalReward": total.String()}, nil
}

type claimedParams struct {
	Key string `json:"key"`
	Day uint64 `json:"day"`
}

func (s *Server) rewarderClaimed(params []json.RawMessage) (interface{}, *rpcError) {
	var p claimedParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	key, err := parseTokenID(p.Key)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	claimed, err := s.engine.Claimed([32]byte(key), p.Day)
	if err != nil {
		return nil, errorFor(err)
	}
	return map[string]string{"claimed": claimed.String()}, nil
}

func (s *Server) rewarderCurrentDay(params []json.RawMessage) (interface{}, *rpcError) {
	if len(params) != 0 {
		return nil, &rpcError{Code: codeInvalidParams, Message: "expected no params"}
	}
	return map[string]uint64{"day": s.engine.CurrentDay()}, nil
}
