// Package httpclient provides the HTTP adapter shared by the Gladia and
// Matrix clients: base URL resolution, per-request authentication, JSON and
// multipart bodies, status classification and optional retry.
//
// Authentication is resolved per request. A Request.Auth value overrides the
// adapter default for that request only, so concurrent calls never share
// mutable header state.
//
//	adapter, _ := httpclient.New(httpclient.Config{BaseURL: "https://api.gladia.io"})
//	resp, err := adapter.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   resultURL,
//	    Auth:   httpclient.APIKeyAuthHeader(key, "x-gladia-key"),
//	})
package httpclient
