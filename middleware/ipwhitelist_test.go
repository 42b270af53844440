package middleware

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPWhitelist(t *testing.T) {
	cases := []struct {
		name    string
		entries []string
		ip      string
		want    int
	}{
		{"empty list allows anyone", nil, "203.0.113.9", http.StatusOK},
		{"exact match", []string{"127.0.0.1"}, "127.0.0.1", http.StatusOK},
		{"no match", []string{"127.0.0.1"}, "203.0.113.9", http.StatusForbidden},
		{"second entry matches", []string{"192.168.1.1", " 10.0.0.5 "}, "10.0.0.5", http.StatusOK},
		{"inside cidr", []string{"10.0.0.0/8"}, "10.20.30.40", http.StatusOK},
		{"outside cidr", []string{"10.0.0.0/8"}, "11.0.0.1", http.StatusForbidden},
		{"ipv6 address", []string{"::1"}, "::1", http.StatusOK},
		{"garbage entries only", []string{"not-an-ip"}, "127.0.0.1", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := okRouter(IPWhitelist(tc.entries))
			assert.Equal(t, tc.want, hit(r, tc.ip).Code)
		})
	}
}
