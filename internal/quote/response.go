package quote

import (
	"log"
	"net/http"
)

// Response is the envelope returned to quote creators.
type Response struct {
	Code    string `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Quote   *Quote `json:"quote"`
}

func CreateResponse(q *Quote, err error) Response {
	if err == nil {
		return Response{
			Code:    "200",
			Success: true,
			Quote:   q,
		}
	}

	if _, ok := errorFromAny(err); !ok {
		log.Printf("create quote: %v", err)
	}

	return Response{
		Code:    Code(err),
		Success: false,
		Message: Message(err),
	}
}

// Status is the HTTP status mirroring r.Code.
func (r Response) Status() int {
	if r.Success {
		return http.StatusOK
	}
	switch r.Code {
	case "400":
		return http.StatusBadRequest
	case "404":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
