package httptransport

import "trustbind/pkg/domain"

type statusResponse struct {
	Status string `json:"status"`
}

type bindingResponse struct {
	Account      domain.Account      `json:"account"`
	CredentialID domain.CredentialID `json:"credential_id"`
}

type membershipResponse struct {
	Account  domain.Account `json:"account"`
	Eligible bool           `json:"eligible"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
