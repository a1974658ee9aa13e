package network

import (
	"fmt"
	"strings"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// staticStanzaMarker guards the AP static-IP stanza in dhcpcd.conf so that
// repeated switches to AP mode never append it twice.
const staticStanzaMarker = "# wall-e access point static address"

// RenderHostapdConf produces the hostapd configuration for AP mode.
func RenderHostapdConf(ap models.APConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "interface=%s\n", ap.Interface)
	b.WriteString("driver=nl80211\n")
	fmt.Fprintf(&b, "ssid=%s\n", ap.SSID)
	b.WriteString("hw_mode=g\n")
	fmt.Fprintf(&b, "channel=%d\n", ap.Channel)
	fmt.Fprintf(&b, "country_code=%s\n", ap.Country)
	b.WriteString("wmm_enabled=0\n")
	b.WriteString("macaddr_acl=0\n")
	b.WriteString("auth_algs=1\n")
	b.WriteString("ignore_broadcast_ssid=0\n")
	b.WriteString("wpa=2\n")
	fmt.Fprintf(&b, "wpa_passphrase=%s\n", ap.Passphrase)
	b.WriteString("wpa_key_mgmt=WPA-PSK\n")
	b.WriteString("wpa_pairwise=TKIP\n")
	b.WriteString("rsn_pairwise=CCMP\n")
	return b.String()
}

// RenderDnsmasqConf produces the dnsmasq configuration serving the AP pool,
// including local-domain resolution for the robot's fixed hostname.
func RenderDnsmasqConf(dhcp models.DHCPConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "interface=%s\n", dhcp.Interface)
	fmt.Fprintf(&b, "dhcp-range=%s,%s,255.255.255.0,24h\n", dhcp.RangeStart, dhcp.RangeEnd)
	fmt.Fprintf(&b, "dhcp-option=3,%s\n", dhcp.Gateway)
	fmt.Fprintf(&b, "dhcp-option=6,%s\n", dhcp.DNS)
	fmt.Fprintf(&b, "domain=%s\n", dhcp.Domain)
	fmt.Fprintf(&b, "address=/%s.%s/%s\n", dhcp.Hostname, dhcp.Domain, dhcp.Gateway)
	fmt.Fprintf(&b, "address=/%s/%s\n", dhcp.Hostname, dhcp.Gateway)
	return b.String()
}

// RenderStaticStanza produces the dhcpcd.conf stanza pinning the interface
// to the AP address and skipping wpa_supplicant hook activation.
func RenderStaticStanza(iface, cidr string) string {
	var b strings.Builder
	b.WriteString("\n" + staticStanzaMarker + "\n")
	fmt.Fprintf(&b, "interface %s\n", iface)
	fmt.Fprintf(&b, "    static ip_address=%s\n", cidr)
	b.WriteString("    nohook wpa_supplicant\n")
	return b.String()
}

// HasStaticStanza reports whether the dhcpcd.conf content already carries
// the AP stanza.
func HasStaticStanza(content string) bool {
	return strings.Contains(content, staticStanzaMarker)
}

// StripStaticStanza removes the AP stanza (marker line plus its interface
// block) from dhcpcd.conf content. Lines outside the stanza are preserved
// byte for byte.
func StripStaticStanza(content string) string {
	lines := strings.Split(content, "\n")
	var out []string
	skip := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == strings.TrimSpace(staticStanzaMarker) {
			skip = true
			// Also drop the blank separator we wrote before the marker.
			if n := len(out); n > 0 && strings.TrimSpace(out[n-1]) == "" {
				out = out[:n-1]
			}
			continue
		}
		if skip {
			if strings.HasPrefix(trimmed, "interface ") ||
				strings.HasPrefix(trimmed, "static ") ||
				strings.HasPrefix(trimmed, "nohook ") {
				continue
			}
			skip = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// RenderWpaSupplicantConf produces a wpa_supplicant configuration with a
// single network block for the given credentials.
func RenderWpaSupplicantConf(ssid, passphrase, country string) string {
	var b strings.Builder
	b.WriteString("ctrl_interface=DIR=/var/run/wpa_supplicant GROUP=netdev\n")
	b.WriteString("update_config=1\n")
	fmt.Fprintf(&b, "country=%s\n", country)
	b.WriteString("\nnetwork={\n")
	fmt.Fprintf(&b, "    ssid=\"%s\"\n", ssid)
	fmt.Fprintf(&b, "    psk=\"%s\"\n", passphrase)
	b.WriteString("    key_mgmt=WPA-PSK\n")
	b.WriteString("}\n")
	return b.String()
}

// HasNetworkBlock reports whether wpa_supplicant.conf content carries at
// least one network block.
func HasNetworkBlock(content string) bool {
	return strings.Contains(content, "network={")
}
