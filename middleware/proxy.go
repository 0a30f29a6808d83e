package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// TrustedProxies задает сети обратных прокси, которым разрешено передавать
// адрес клиента в X-Forwarded-For. Нулевое значение не доверяет никому.
type TrustedProxies struct {
	cidrs []string
	nets  []*net.IPNet
}

// ParseTrustedProxies разбирает список адресов и подсетей (10.0.0.1, 10.0.0.0/8)
func ParseTrustedProxies(list []string) (*TrustedProxies, error) {
	p := &TrustedProxies{}
	for _, raw := range list {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("неверный адрес прокси: %q", entry)
			}
			if ip.To4() != nil {
				entry += "/32"
			} else {
				entry += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("неверная подсеть прокси %q: %w", entry, err)
		}
		p.cidrs = append(p.cidrs, entry)
		p.nets = append(p.nets, ipNet)
	}
	return p, nil
}

// CIDRs возвращает подсети в формате gin.Engine.SetTrustedProxies
func (p *TrustedProxies) CIDRs() []string {
	if p == nil {
		return nil
	}
	return p.cidrs
}

func (p *TrustedProxies) trusts(addr string) bool {
	if p == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range p.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP возвращает адрес клиента. X-Forwarded-For читается только от
// доверенного прокси, справа налево до первого недоверенного адреса.
func (p *TrustedProxies) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !p.trusts(host) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if net.ParseIP(hop) == nil {
			break
		}
		host = hop
		if !p.trusts(hop) {
			break
		}
	}
	return host
}
