// Package discovery advertises the control plane over mDNS.
//
// Speakers on the local network normally locate the vendor cloud via
// hardcoded DNS; with that traffic redirected here, the advertisement
// lets the control app and diagnostics tooling find the server without
// static configuration.
package discovery
