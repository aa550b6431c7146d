package github

// WorkflowInputs carries the caller-supplied inputs forwarded to the
// dispatched workflow. Kwargs is an opaque JSON-encoded string whose schema
// belongs to the downstream job; it is never parsed or re-encoded here.
type WorkflowInputs struct {
	Cookie string `json:"cookie"`
	Action string `json:"action"`
	Kwargs string `json:"kwargs"`
}

// DispatchRequest is the body of a workflow_dispatch API call.
type DispatchRequest struct {
	Ref    string         `json:"ref"`
	Inputs WorkflowInputs `json:"inputs"`
}

// NewDispatchRequest assembles the fixed-shape dispatch body. The action tag
// and kwargs document are deliberately not validated; a bad value surfaces as
// an API error or a failed downstream run, not here.
func NewDispatchRequest(ref, cookie, action, kwargs string) DispatchRequest {
	return DispatchRequest{
		Ref: ref,
		Inputs: WorkflowInputs{
			Cookie: cookie,
			Action: action,
			Kwargs: kwargs,
		},
	}
}
