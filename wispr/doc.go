// Package wispr implements the client side of the WISPr captive portal
// protocol.
//
// A login performs the following steps:
//  1. GET a well-known external URL and follow redirects by hand until the
//     response carries a WISPAccessGatewayParam fragment.
//  2. While the gateway answers with a Proxy message, wait the advertised
//     Delay and GET the NextURL.
//  3. Expect a Redirect message and POST the credentials to its LoginURL,
//     as WISPr 2.0 fields when VersionHigh is 2.0 and WISPr 1.0 fields
//     otherwise.
//  4. Expect an Authentication reply. While its ResponseCode is 201
//     (authentication pending), wait Delay and GET the LoginResultsURL.
//  5. On ResponseCode 50 store the LogoffURL for a later logoff.
//
// A logoff loads the stored LogoffURL, GETs it and expects a Logoff reply.
//
// Gateway responses are parsed leniently into Fields. Fields are converted
// into typed messages (Redirect, Proxy, AuthReply, LogoffReply, AbortReply)
// at each step, and any violation is returned as a typed error.
package wispr
