// Package netx has network helpers for the CLI.
package netx

import "net"

// interfaceAddrs is swapped in tests.
var interfaceAddrs = net.InterfaceAddrs

// LocalIP returns the first non-loopback IPv4 address of this machine, which
// the auth server records on login. It falls back to 127.0.0.1.
func LocalIP() string {
	addrs, err := interfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}
