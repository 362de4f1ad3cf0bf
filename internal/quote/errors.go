package quote

import "errors"

// QuoteError is the closed set of reasons a quote is refused.
type QuoteError int

const (
	UnknownPaymentPointer QuoteError = iota + 1
	InvalidReceiver
	InvalidAmount
	ProbeFailure
)

const unexpectedMessage = "Error trying to create quote"

var (
	ErrNotFound = errors.New("quote does not exist")
)

var errorToMessage = map[QuoteError]string{
	UnknownPaymentPointer: "payment pointer does not exist",
	InvalidReceiver:       "invalid receiver",
	InvalidAmount:         "invalid amount",
	ProbeFailure:          "unable to probe receiver exchange rate",
}

var errorToCode = map[QuoteError]string{
	UnknownPaymentPointer: "404",
	InvalidReceiver:       "400",
	InvalidAmount:         "400",
	ProbeFailure:          "500",
}

var errorToLabel = map[QuoteError]string{
	UnknownPaymentPointer: "unknown_payment_pointer",
	InvalidReceiver:       "invalid_receiver",
	InvalidAmount:         "invalid_amount",
	ProbeFailure:          "probe_failure",
}

func (e QuoteError) Error() string {
	if msg, ok := errorToMessage[e]; ok {
		return msg
	}
	return unexpectedMessage
}

// Message is the caller-facing text for err. Anything that isn't a
// QuoteError gets the generic message.
func Message(err error) string {
	if qe, ok := errorFromAny(err); ok {
		return qe.Error()
	}
	return unexpectedMessage
}

// Code is the status code string for err.
func Code(err error) string {
	if qe, ok := errorFromAny(err); ok {
		if code, ok := errorToCode[qe]; ok {
			return code
		}
	}
	return "500"
}

func errorFromAny(err error) (QuoteError, bool) {
	var qe QuoteError
	if errors.As(err, &qe) {
		return qe, true
	}
	return 0, false
}

func errorLabel(err error) string {
	if qe, ok := errorFromAny(err); ok {
		if label, ok := errorToLabel[qe]; ok {
			return label
		}
	}
	return "unexpected"
}
