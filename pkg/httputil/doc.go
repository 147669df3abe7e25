// Package httputil provides the JSON request and response helpers of the
// reqcheck service.
//
// Handlers decode bodies with [DecodeJSON] and answer with [WriteJSON] or
// [WriteError]. [WriteError] maps the error codes of pkg/errors to HTTP
// status codes through [Status], so a handler can return whatever the
// engine reported:
//
//	findings, err := engine.Check(ctx, req.Filename, src)
//	if err != nil {
//	    httputil.WriteError(w, err)
//	    return
//	}
//	httputil.WriteJSON(w, http.StatusOK, findings)
//
// Error bodies have the shape {"error": "...", "code": "..."}.
package httputil
