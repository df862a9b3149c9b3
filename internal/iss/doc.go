// Package iss is the HTTP client for the MoEx ISS public market-data API.
//
// Endpoints:
//   - Data: https://iss.moex.com/iss/
//   - Auth: https://passport.moex.com/authenticate
//
// Every request carries the process-wide language setting and iss.meta=off,
// and every response body is the ISS tabular format parsed by package
// tabular. Authenticated sessions ride on the MicexPassportCert cookie.
package iss
