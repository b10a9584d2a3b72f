package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/okian/kudosly/internal/domain/model"
)

const githubPrefix = "sha256="

// signatureHeaders lists where each source carries its body signature.
var signatureHeaders = map[model.Source]string{
	model.SourceJira:      "X-Atlassian-Webhook-Signature",
	model.SourceGitHub:    "X-Hub-Signature-256",
	model.SourceSlack:     "X-Slack-Signature",
	model.SourceBitbucket: "X-Hub-Signature",
}

// GenericSignatureHeader is accepted for every source.
const GenericSignatureHeader = "X-Webhook-Signature"

// deliveryHeaders carry the sender's delivery id, in lookup order.
var deliveryHeaders = []string{
	"X-GitHub-Delivery",
	"X-Atlassian-Webhook-Identifier",
	"X-Request-UUID",
	"X-Webhook-Delivery",
}

// SignatureHeader returns the header source signs with.
func SignatureHeader(source model.Source) string {
	if h, ok := signatureHeaders[source]; ok {
		return h
	}
	return GenericSignatureHeader
}

// Sign returns the base64 HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	return base64.StdEncoding.EncodeToString(mac(secret, body))
}

// SignHex returns the GitHub style "sha256=<hex>" signature of body.
func SignHex(secret string, body []byte) string {
	return githubPrefix + hex.EncodeToString(mac(secret, body))
}

// Verify checks signature against body. An empty secret or an absent
// signature passes.
func Verify(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return true
	}
	var got []byte
	var err error
	if strings.HasPrefix(signature, githubPrefix) {
		got, err = hex.DecodeString(strings.TrimPrefix(signature, githubPrefix))
	} else {
		got, err = base64.StdEncoding.DecodeString(signature)
	}
	if err != nil {
		return false
	}
	return hmac.Equal(got, mac(secret, body))
}

func mac(secret string, body []byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return h.Sum(nil)
}

// requestSignature reads the source specific header, then the generic one.
func requestSignature(r *http.Request, source model.Source) string {
	if h, ok := signatureHeaders[source]; ok {
		if v := r.Header.Get(h); v != "" {
			return v
		}
	}
	return r.Header.Get(GenericSignatureHeader)
}

func deliveryID(r *http.Request) string {
	for _, h := range deliveryHeaders {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}
	return ""
}
