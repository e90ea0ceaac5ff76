package taxapi

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taxsync/internal/apperr"
)

const (
	soapEnvelopeNS  = "http://schemas.xmlsoap.org/soap/envelope/"
	maxResponseSize = 4 << 20
)

// SOAPTransport speaks SOAP 1.1 document/literal to the tax service.
type SOAPTransport struct {
	endpoint   string
	namespace  string
	httpClient *http.Client
}

func NewSOAPTransport(endpoint, namespace string, httpClient *http.Client) *SOAPTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SOAPTransport{endpoint: endpoint, namespace: namespace, httpClient: httpClient}
}

type soapEnvelope struct {
	XMLName xml.Name `xml:"soapenv:Envelope"`
	SoapEnv string   `xml:"xmlns:soapenv,attr"`
	Body    soapBody `xml:"soapenv:Body"`
}

type soapBody struct {
	Operation soapOperation
}

type soapOperation struct {
	XMLName xml.Name
	Request any `xml:"Request"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type soapResponseEnvelope struct {
	Body struct {
		Fault *soapFault `xml:"Fault"`
		Inner []byte     `xml:",innerxml"`
	} `xml:"Body"`
}

func (t *SOAPTransport) Call(ctx context.Context, method string, in, out any) error {
	env := soapEnvelope{
		SoapEnv: soapEnvelopeNS,
		Body: soapBody{Operation: soapOperation{
			XMLName: xml.Name{Space: t.namespace, Local: method},
			Request: in,
		}},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(env); err != nil {
		return fmt.Errorf("encode %s envelope: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, &buf)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+strings.TrimSuffix(t.namespace, "/")+"/"+method+`"`)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", apperr.ErrRemoteUnavailable, err)
	}

	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(raw, &envResp); err != nil {
		return fmt.Errorf("%w: status %d, undecodable body: %v", apperr.ErrRemoteUnavailable, resp.StatusCode, err)
	}
	if f := envResp.Body.Fault; f != nil {
		return fmt.Errorf("%w: soap fault %s: %s", apperr.ErrRemoteUnavailable, f.Code, f.String)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", apperr.ErrRemoteUnavailable, resp.StatusCode)
	}
	if len(bytes.TrimSpace(envResp.Body.Inner)) == 0 {
		return fmt.Errorf("%w: empty soap body", apperr.ErrRemoteUnavailable)
	}

	if err := xml.Unmarshal(envResp.Body.Inner, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", apperr.ErrRemoteUnavailable, method, err)
	}
	return nil
}
