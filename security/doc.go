// Package security builds client TLS settings for outbound HTTP, such as a
// private CA for a self-hosted homeserver or a client certificate.
//
//	tlsCfg, err := (&security.TLSConfig{CAFile: "/etc/transcribot/ca.pem"}).Build()
package security
