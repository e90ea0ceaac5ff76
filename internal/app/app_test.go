package app

import (
	"testing"
	"time"

	"taxsync/internal/config"
	"taxsync/internal/taxapi"

	"github.com/stretchr/testify/assert"
)

func TestNewTransport(t *testing.T) {
	tests := []struct {
		name      string
		transport string
		want      any
	}{
		{"soap", config.TransportSOAP, &taxapi.SOAPTransport{}},
		{"rest", config.TransportREST, &taxapi.RESTTransport{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newTransport(config.TaxifyConfig{
				Transport:     tt.transport,
				SOAPEndpoint:  "http://soap.invalid",
				SOAPNamespace: "https://ws.taxify.co/",
				RESTEndpoint:  "http://rest.invalid",
				HTTPTimeout:   time.Second,
			})
			assert.IsType(t, tt.want, got)
		})
	}
}
