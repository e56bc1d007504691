package service

// ConvertReq is a conversion request as received from the CLI or HTTP surface.
type ConvertReq struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from" validate:"required,len=3,alpha"`
	To     string  `json:"to" validate:"required,len=3,alpha"`
}

// RateReq asks for the multiplier between two codes.
type RateReq struct {
	From string `json:"from" validate:"required,len=3,alpha"`
	To   string `json:"to" validate:"required,len=3,alpha"`
}
