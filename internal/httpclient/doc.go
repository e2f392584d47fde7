// Package httpclient is the JSON HTTP client the console talks to the REST
// backend through.
//
// # Interceptors
//
// A Client runs an ordered chain of request interceptors before a request is
// sent and an ordered chain of response interceptors after a response arrives:
//
//	c.UseRequest(RequestID(), auth.AttachToken)
//	c.UseResponse(auth.HandleResponse)
//
// A request interceptor may rewrite the request or short-circuit it with an
// error, in which case nothing reaches the network. A response interceptor may
// replace the response, for example by resubmitting the request through the
// same Client with Do.
//
// Transport errors are returned untouched. Non-2xx responses become
// *StatusError only in DoJSON; Do hands every response back as-is.
package httpclient
