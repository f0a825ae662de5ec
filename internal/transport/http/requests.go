package httptransport

import "trustbind/pkg/domain"

type registerTrustRequest struct {
	CredentialID string `json:"credential_id"`
	Account      string `json:"account"`
}

func (r registerTrustRequest) parse() (domain.CredentialID, domain.Account, error) {
	id, err := domain.ParseCredentialID(r.CredentialID)
	if err != nil {
		return domain.CredentialID{}, domain.Account{}, err
	}
	account, err := domain.ParseAccount(r.Account)
	if err != nil {
		return domain.CredentialID{}, domain.Account{}, err
	}
	return id, account, nil
}

type untrustRequest struct {
	Account string `json:"account"`
}

type untrustByCredentialRequest struct {
	CredentialID string `json:"credential_id"`
}

type registerMemberRequest struct {
	Account string `json:"account"`
	Holder  string `json:"holder"`
}

func (r registerMemberRequest) parse() (account, holder domain.Account, err error) {
	account, err = domain.ParseAccount(r.Account)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}
	holder, err = domain.ParseAccount(r.Holder)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}
	return account, holder, nil
}

type registerAutoRequest struct {
	Account string `json:"account"`
}
