package webhook

// Request is one inbound invocation as seen by the handler, independent of
// the runtime that delivered it.
type Request struct {
	Method    string
	Body      []byte
	RequestID string
}

// Response is the single reply produced per invocation.
// An empty ContentType means no content-type header is set.
type Response struct {
	StatusCode  int
	ContentType string
	Body        string
}

const contentTypeHTML = "text/html"

func textResponse(status int, body string) Response {
	return Response{StatusCode: status, Body: body}
}

func htmlResponse(status int, body string) Response {
	return Response{StatusCode: status, ContentType: contentTypeHTML, Body: body}
}
