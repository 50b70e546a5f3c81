package rpc

import "encoding/json"

type ogMintParams struct {
	Caller string `json:"caller"`
	Owner  string `json:"owner"`
	Code   string `json:"code"`
}

func (s *Server) referralOGMint(params []json.RawMessage) (interface{}, *rpcError) {
	var p ogMintParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	owner, err := parseAddress(p.Owner)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	id, err := s.referrals.OGMint(caller, owner, p.Code)
	if err != nil {
		return nil, errorFor(err)
	}
	s.metrics.ObserveMint("og")
	return map[string]string{"tokenId": formatTokenID(id)}, nil
}

type safeMintParams struct {
	Caller   string `json:"caller"`
	Code     string `json:"code"`
	Referrer string `json:"referrer,omitempty"`
}

func (s *Server) referralSafeMint(params []json.RawMessage) (interface{}, *rpcError) {
	var p safeMintParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	id, err := s.referrals.SafeMint(caller, p.Code)
	if err != nil {
		return nil, errorFor(err)
	}
	s.metrics.ObserveMint("public")
	return map[string]string{"tokenId": formatTokenID(id)}, nil
}

func (s *Server) referralSafeMintWithReferrer(params []json.RawMessage) (interface{}, *rpcError) {
	var p safeMintParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	referrer, err := parseTokenID(p.Referrer)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	id, err := s.referrals.SafeMintWithReferrer(caller, p.Code, referrer)
	if err != nil {
		return nil, errorFor(err)
	}
	s.metrics.ObserveMint("public")
	return map[string]string{"tokenId": formatTokenID(id)}, nil
}

type setReferrerParams struct {
	Caller   string `json:"caller"`
	TokenID  string `json:"tokenId"`
	Referrer string `json:"referrer"`
}

func (s *Server) referralSetReferrer(params []json.RawMessage) (interface{}, *rpcError) {
	var p setReferrerParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	id, err := parseTokenID(p.TokenID)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	referrer, err := parseTokenID(p.Referrer)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	if err := s.referrals.SetReferrer(caller, id, referrer); err != nil {
		return nil, errorFor(err)
	}
	return map[string]bool{"ok": true}, nil
}

type tokenParams struct {
	Caller  string `json:"caller"`
	TokenID string `json:"tokenId"`
}

func (s *Server) referralSetTokenInUse(params []json.RawMessage) (interface{}, *rpcError) {
	var p tokenParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	id, err := parseTokenID(p.TokenID)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	if err := s.referrals.SetTokenInUse(caller, id); err != nil {
		return nil, errorFor(err)
	}
	return map[string]bool{"ok": true}, nil
}

type transferParams struct {
	Caller  string `json:"caller"`
	To      string `json:"to"`
	TokenID string `json:"tokenId"`
}

func (s *Server) referralTransfer(params []json.RawMessage) (interface{}, *rpcError) {
	var p transferParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	to, err := parseAddress(p.To)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	id, err := parseTokenID(p.TokenID)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	if err := s.referrals.Transfer(caller, to, id); err != nil {
		return nil, errorFor(err)
	}
	return map[string]bool{"ok": true}, nil
}

type collateralParams struct {
	Caller  string `json:"caller"`
	TokenID string `json:"tokenId"`
	Amount  string `json:"amount"`
}

func (s *Server) referralIncreaseLocked(params []json.RawMessage) (interface{}, *rpcError) {
	return s.referralAdjustLocked(params, true)
}

func (s *Server) referralDecreaseLocked(params []json.RawMessage) (interface{}, *rpcError) {
	return s.referralAdjustLocked(params, false)
}

func (s *Server) referralAdjustLocked(params []json.RawMessage, increase bool) (interface{}, *rpcError) {
	var p collateralParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	id, err := parseTokenID(p.TokenID)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	if increase {
		err = s.referrals.IncreaseLockedCollateral(caller, id, amount)
	} else {
		err = s.referrals.DecreaseLockedCollateral(caller, id, amount)
	}
	if err != nil {
		return nil, errorFor(err)
	}
	locked, err := s.referrals.Locked(id)
	if err != nil {
		return nil, errorFor(err)
	}
	return map[string]string{"locked": locked.String()}, nil
}

type tokenQueryParams struct {
	TokenID string `json:"tokenId"`
}

func (s *Server) referralIsActive(params []json.RawMessage) (interface{}, *rpcError) {
	var p tokenQueryParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, err := parseTokenID(p.TokenID)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	active, err := s.referrals.IsActiveReferrer(id)
	if err != nil {
		return nil, errorFor(err)
	}
	return map[string]bool{"active": active}, nil
}

func (s *Server) referralOwnerOf(params []json.RawMessage) (interface{}, *rpcError) {
	var p tokenQueryParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, err := parseTokenID(p.TokenID)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	owner, err := s.referrals.OwnerOf(id)
	if err != nil {
		return nil, errorFor(err)
	}
	return map[string]string{"owner": formatAddress(owner)}, nil
}

type accountQueryParams struct {
	Address string `json:"address"`
}

func (s *Server) referralTokenInUse(params []json.RawMessage) (interface{}, *rpcError) {
	var p accountQueryParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	addr, err := parseAddress(p.Address)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	id, err := s.referrals.TokenInUse(addr)
	if err != nil {
		return nil, errorFor(err)
	}
	return map[string]string{"tokenId": formatTokenID(id)}, nil
}

func (s *Server) referralBalanceOf(params []json.RawMessage) (interface{}, *rpcError) {
	var p accountQueryParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	addr, err := parseAddress(p.Address)
	if err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: err.Error()}
	}
	count, err := s.referrals.BalanceOf(addr)
	if err != nil {
		return nil, errorFor(err)
	}
	return map[string]uint64{"balance": count}, nil
}
