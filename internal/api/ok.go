package api

import (
	"encoding/json"
	"errors"
)

// OKResponse is the ok:true / ok:false union returned by login, logout and
// account sync.
type OKResponse struct {
	OK               bool   `json:"ok"`
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

type okResponseRaw struct {
	OK               *bool  `json:"ok"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func decodeOKResponse(body []byte) (OKResponse, error) {
	var raw okResponseRaw
	if err := json.Unmarshal(body, &raw); err != nil {
		return OKResponse{}, err
	}
	if raw.OK == nil {
		return OKResponse{}, errors.New("missing ok field")
	}
	return OKResponse{
		OK:               *raw.OK,
		Error:            raw.Error,
		ErrorDescription: raw.ErrorDescription,
	}, nil
}

// Err maps ok:false onto a RejectedError for op.
func (r OKResponse) Err(op string) error {
	if r.OK {
		return nil
	}
	return &RejectedError{Op: op, Code: r.Error, Description: r.ErrorDescription}
}
