package discovery

import (
	"net"
	"sort"
)

// SortIPsByPreference sorts IP addresses by connection preference.
// HAP accessories serve /pair-setup on whichever family they advertise, and
// IPv4 is what every accessory supports, so IPv4 sorts first.
//
// Priority order (highest to lowest):
//  1. IPv4 addresses
//  2. IPv6 Global Unicast Addresses
//  3. IPv6 Unique Local Addresses (fc00::/7)
//  4. IPv6 Link-Local Addresses (fe80::/10)
//  5. Loopback and multicast addresses
func SortIPsByPreference(ips []net.IP) []net.IP {
	if len(ips) <= 1 {
		return ips
	}

	sorted := make([]net.IP, len(ips))
	copy(sorted, ips)

	sort.SliceStable(sorted, func(i, j int) bool {
		return ipPriority(sorted[i]) < ipPriority(sorted[j])
	})

	return sorted
}

// ipPriority returns the priority of an IP address (lower is better).
func ipPriority(ip net.IP) int {
	if ip.To16() == nil {
		return 99
	}

	switch {
	case ip.IsLoopback():
		return 80
	case ip.IsMulticast():
		return 90
	case ip.To4() != nil:
		return 0
	case isUniqueLocal(ip):
		return 2
	case ip.IsLinkLocalUnicast():
		return 3
	case ip.IsGlobalUnicast():
		return 1
	}
	return 10
}

// isUniqueLocal returns true if the IP is an IPv6 Unique Local Address (ULA).
func isUniqueLocal(ip net.IP) bool {
	ip = ip.To16()
	if ip == nil {
		return false
	}
	return ip[0] == 0xfc || ip[0] == 0xfd
}

// PreferredAddress returns the address an accessory is contacted on:
// the first IPv4 address if any, otherwise the best IPv6 address.
// Returns nil if both lists are empty.
func PreferredAddress(ipv4, ipv6 []net.IP) net.IP {
	all := make([]net.IP, 0, len(ipv4)+len(ipv6))
	all = append(all, FilterIPv4(ipv4)...)
	all = append(all, FilterIPv6(ipv6)...)
	all = SortIPsByPreference(all)
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// FilterIPv6 returns only IPv6 addresses from the slice.
func FilterIPv6(ips []net.IP) []net.IP {
	var result []net.IP
	for _, ip := range ips {
		if ip.To4() == nil && ip.To16() != nil {
			result = append(result, ip)
		}
	}
	return result
}

// FilterIPv4 returns only IPv4 addresses from the slice.
func FilterIPv4(ips []net.IP) []net.IP {
	var result []net.IP
	for _, ip := range ips {
		if ip.To4() != nil {
			result = append(result, ip)
		}
	}
	return result
}
