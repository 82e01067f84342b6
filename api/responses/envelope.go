package responses

// Envelope wraps every successful JSON body under a data key.
type Envelope struct {
	Data any `json:"data"`
}

// ErrorBody is the public face of a failed request: a stable machine
// code, a human message, and optional structured details.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}
